package extract

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/pkg/detect"
)

// CodeExtractor reads source files whole, tags a language from the extension
// and applies the shared chunking policy. No per-function splitting.
type CodeExtractor struct {
	cfg Config
}

func NewCodeExtractor(cfg Config) *CodeExtractor {
	return &CodeExtractor{cfg: cfg.withDefaults()}
}

func (e *CodeExtractor) Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error) {
	path, cleanup, err := ref.Stage()
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}
	defer cleanup()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}
	content := decodeText(b)

	ext := ref.Ext()
	isDockerfile := detect.IsDockerfileName(ref.Base()) || detect.SniffDockerfile(content)

	language := languageForExtension(ext)
	if language == "unknown" {
		if guess := enry.GetLanguage(filepath.Base(ref.Name()), b); guess != "" {
			language = strings.ToLower(guess)
		}
	}
	if detect.IsDockerfileName(ref.Base()) || (isDockerfile && language == "unknown") {
		language = "dockerfile"
	}

	return splitChunks(e.cfg, content, map[string]string{
		"source":        ref.Name(),
		"language":      language,
		"extension":     ext,
		"is_dockerfile": strconv.FormatBool(isDockerfile),
	})
}

// The language tags are a metadata contract consumed downstream (syntax
// highlighting, filtering), so the table stays closed; enry only fills the
// gaps for extensions it doesn't cover.
var extensionLanguages = map[string]string{
	".py":     "python",
	".js":     "javascript",
	".ts":     "typescript",
	".java":   "java",
	".c":      "c",
	".cpp":    "cpp",
	".h":      "c-header",
	".hpp":    "cpp-header",
	".cs":     "csharp",
	".php":    "php",
	".go":     "go",
	".rb":     "ruby",
	".rs":     "rust",
	".swift":  "swift",
	".kt":     "kotlin",
	".sh":     "bash",
	".bash":   "bash",
	".ps1":    "powershell",
	".sql":    "sql",
	".r":      "r",
	".scala":  "scala",
	".dart":   "dart",
	".html":   "html",
	".css":    "css",
	".scss":   "scss",
	".less":   "less",
	".xml":    "xml",
	".yaml":   "yaml",
	".yml":    "yaml",
	".lua":    "lua",
	".pl":     "perl",
	".pm":     "perl-module",
	".groovy": "groovy",
	".tsx":    "typescript-react",
	".jsx":    "javascript-react",
	".vb":     "visual-basic",
	".f90":    "fortran",
	".clj":    "clojure",
	".ex":     "elixir",
	".exs":    "elixir-script",
}

func languageForExtension(ext string) string {
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "unknown"
}

package detect

import (
	"bufio"
	"sort"
	"strings"

	"github.com/docsage/docsage/internal/models"
)

// Kind is the format family a file is routed to.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPDF
	KindWord
	KindText
	KindRTF
	KindTable
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindWord:
		return "word"
	case KindText:
		return "text"
	case KindRTF:
		return "rtf"
	case KindTable:
		return "table"
	case KindCode:
		return "code"
	}
	return "unsupported"
}

// Disjoint extension sets, one per family. JSON belongs to the tabular
// family: record-shaped JSON gets row chunking there, anything else falls
// back to plain text splitting.
var extensionKinds = map[string]Kind{
	".pdf":  KindPDF,
	".doc":  KindWord,
	".docx": KindWord,
	".txt":  KindText,
	".rtf":  KindRTF,

	".xlsx": KindTable,
	".xls":  KindTable,
	".csv":  KindTable,
	".ods":  KindTable,
	".json": KindTable,
}

var codeExtensions = []string{
	".py", ".js", ".ts", ".java", ".c", ".cpp", ".h", ".hpp",
	".cs", ".php", ".go", ".rb", ".rs", ".swift", ".kt",
	".sh", ".bash", ".ps1", ".sql", ".r", ".scala", ".dart",
	".html", ".css", ".scss", ".less", ".xml", ".yaml", ".yml",
	".lua", ".pl", ".pm", ".groovy", ".tsx", ".jsx", ".vb", ".f90",
	".clj", ".ex", ".exs",
}

func init() {
	for _, ext := range codeExtensions {
		extensionKinds[ext] = KindCode
	}
}

// Classify maps a file reference to its format family by extension. Files
// literally named Dockerfile are code even without an extension.
func Classify(ref models.FileRef) Kind {
	if IsDockerfileName(ref.Base()) {
		return KindCode
	}
	if kind, ok := extensionKinds[ref.Ext()]; ok {
		return kind
	}
	return KindUnsupported
}

// IsDockerfileName reports whether the base file name is a container build
// file. Matches "dockerfile" and "containerfile" case-insensitively.
func IsDockerfileName(base string) bool {
	base = strings.ToLower(base)
	return base == "dockerfile" || base == "containerfile"
}

var dockerfileInstructions = []string{
	"FROM", "RUN", "CMD", "LABEL", "MAINTAINER", "EXPOSE", "ENV", "ADD",
	"COPY", "ENTRYPOINT", "VOLUME", "USER", "WORKDIR", "ARG", "ONBUILD",
	"STOPSIGNAL", "HEALTHCHECK", "SHELL",
}

// SniffDockerfile scans the first ten non-empty, non-comment lines and
// reports whether at least two start with a known build instruction. Used to
// tag build-file variants whose extension says otherwise; never changes
// factory routing.
func SniffDockerfile(content string) bool {
	scanner := bufio.NewScanner(strings.NewReader(content))
	seen, hits := 0, 0
	for scanner.Scan() && seen < 10 {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seen++
		upper := strings.ToUpper(line)
		for _, instr := range dockerfileInstructions {
			if strings.HasPrefix(upper, instr+" ") {
				hits++
				break
			}
		}
	}
	return hits >= 2
}

// SupportedExtensions lists every accepted extension, sorted, for error
// messages.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionKinds))
	for ext := range extensionKinds {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

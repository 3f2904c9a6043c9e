package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"

	"github.com/docsage/docsage/internal/models"
)

// WordExtractor handles .docx uploads paragraph by paragraph. Legacy binary
// .doc files are accepted by the detector but the OOXML parser rejects them,
// which surfaces as an extraction error naming the cause.
type WordExtractor struct {
	cfg Config
}

func NewWordExtractor(cfg Config) *WordExtractor {
	return &WordExtractor{cfg: cfg.withDefaults()}
}

func (e *WordExtractor) Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error) {
	path, cleanup, err := ref.Stage()
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: fmt.Errorf("not a readable Word document: %w", err)}
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paragraphs = append(paragraphs, p.String())
		}
	}

	return splitChunks(e.cfg, strings.Join(paragraphs, "\n"), map[string]string{
		"source": ref.Name(),
	})
}

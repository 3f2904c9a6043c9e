package extract

import (
	"context"
	"os"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/docsage/docsage/internal/models"
)

// PDFExtractor extracts text page-by-page and joins the pages into one
// pre-split document before chunking.
type PDFExtractor struct {
	cfg Config
}

func NewPDFExtractor(cfg Config) *PDFExtractor {
	return &PDFExtractor{cfg: cfg.withDefaults()}
}

func (e *PDFExtractor) Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error) {
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

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}

	pages := make([]string, 0, len(docs))
	for _, doc := range docs {
		pages = append(pages, doc.PageContent)
	}

	return splitChunks(e.cfg, strings.Join(pages, "\n"), map[string]string{
		"source": ref.Name(),
	})
}

package extract

import (
	"context"
	"os"

	"github.com/docsage/docsage/internal/models"
)

// TextExtractor reads plain text files with replacement on decode errors.
type TextExtractor struct {
	cfg Config
}

func NewTextExtractor(cfg Config) *TextExtractor {
	return &TextExtractor{cfg: cfg.withDefaults()}
}

func (e *TextExtractor) Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error) {
	path, cleanup, err := ref.Stage()
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}
	defer cleanup()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}

	return splitChunks(e.cfg, decodeText(b), map[string]string{
		"source": ref.Name(),
	})
}

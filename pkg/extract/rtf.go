package extract

import (
	"context"
	"os"

	rtf2txt "github.com/EndFirstCorp/rtf2txt"

	"github.com/docsage/docsage/internal/models"
)

// RTFExtractor converts rich text to plain text before chunking.
type RTFExtractor struct {
	cfg Config
}

func NewRTFExtractor(cfg Config) *RTFExtractor {
	return &RTFExtractor{cfg: cfg.withDefaults()}
}

func (e *RTFExtractor) Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error) {
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

	buf, err := rtf2txt.Text(f)
	if err != nil {
		return nil, &ExtractionError{Source: ref.Name(), Err: err}
	}

	return splitChunks(e.cfg, buf.String(), map[string]string{
		"source": ref.Name(),
	})
}

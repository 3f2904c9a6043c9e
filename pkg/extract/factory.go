package extract

import (
	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/internal/types"
	"github.com/docsage/docsage/pkg/detect"
)

// New returns a fresh extractor for the file's format family. Extractors
// hold only configuration, no cross-call state, so one per call is cheap.
func New(ref models.FileRef, cfg Config) (types.Extractor, error) {
	switch detect.Classify(ref) {
	case detect.KindPDF:
		return NewPDFExtractor(cfg), nil
	case detect.KindWord:
		return NewWordExtractor(cfg), nil
	case detect.KindText:
		return NewTextExtractor(cfg), nil
	case detect.KindRTF:
		return NewRTFExtractor(cfg), nil
	case detect.KindTable:
		return NewTableExtractor(cfg), nil
	case detect.KindCode:
		return NewCodeExtractor(cfg), nil
	}
	return nil, &UnsupportedFormatError{Name: ref.Name()}
}

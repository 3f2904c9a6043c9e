package extract

import (
	"fmt"
	"strings"

	"github.com/docsage/docsage/pkg/detect"
)

// UnsupportedFormatError reports a file no extractor can handle. It is
// user-correctable and names the accepted extensions.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type %q: please upload one of %s, or a Dockerfile",
		e.Name, strings.Join(detect.SupportedExtensions(), " "))
}

// ExtractionError wraps an extractor-internal failure (corrupt file,
// unreadable encoding, malformed table) with its underlying cause.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

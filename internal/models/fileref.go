package models

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileRef identifies a document to ingest: either a path on disk or an
// in-memory handle carrying a file name and readable content. Resolved once
// at the API edge so extractors never probe for capabilities themselves.
type FileRef struct {
	path string
	name string
	r    io.Reader
}

// PathRef wraps an existing filesystem path.
func PathRef(path string) FileRef {
	return FileRef{path: path, name: path}
}

// HandleRef wraps an uploaded file that only exists in memory. The name is
// kept for extension-based classification and source metadata.
func HandleRef(name string, r io.Reader) FileRef {
	return FileRef{name: name, r: r}
}

// Name returns the human-readable origin of the file.
func (f FileRef) Name() string {
	return f.name
}

// Base returns the final path element of the name, lowercased.
func (f FileRef) Base() string {
	return strings.ToLower(filepath.Base(f.name))
}

// Ext returns the lowercase extension of the name, empty when there is none.
func (f FileRef) Ext() string {
	return strings.ToLower(filepath.Ext(f.name))
}

// Stage materializes the reference as a readable path. Path refs and handles
// whose name already exists on disk are returned as-is with a no-op cleanup;
// anything else is copied to a unique temp file which the cleanup removes.
// User-supplied persistent paths are never deleted.
func (f FileRef) Stage() (string, func(), error) {
	noop := func() {}

	if f.r == nil {
		return f.path, noop, nil
	}
	if f.name != "" {
		if _, err := os.Stat(f.name); err == nil {
			return f.name, noop, nil
		}
	}

	tmp, err := os.CreateTemp("", "docsage-*"+f.Ext())
	if err != nil {
		return "", noop, fmt.Errorf("failed to stage upload: %w", err)
	}
	if _, err := io.Copy(tmp, f.r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", noop, fmt.Errorf("failed to stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", noop, fmt.Errorf("failed to stage upload: %w", err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

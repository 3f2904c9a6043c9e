package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathRefStageReturnsPathAsIs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))

	ref := PathRef(path)
	staged, cleanup, err := ref.Stage()
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, path, staged)

	// Cleanup never deletes a user-supplied path.
	cleanup()
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestHandleRefStagesToTempFile(t *testing.T) {
	ref := HandleRef("upload.csv", strings.NewReader("a,b\n1,2\n"))

	staged, cleanup, err := ref.Stage()
	require.NoError(t, err)
	assert.NotEqual(t, "upload.csv", staged)
	assert.Equal(t, ".csv", filepath.Ext(staged))

	b, err := os.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(b))

	cleanup()
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestHandleRefPrefersExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("on disk"), 0644))

	// Handles whose name resolves on disk are used in place, no copy.
	ref := HandleRef(path, strings.NewReader("ignored"))
	staged, cleanup, err := ref.Stage()
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, path, staged)
}

func TestFileRefNaming(t *testing.T) {
	ref := PathRef("/tmp/uploads/Report.PDF")
	assert.Equal(t, "/tmp/uploads/Report.PDF", ref.Name())
	assert.Equal(t, "report.pdf", ref.Base())
	assert.Equal(t, ".pdf", ref.Ext())

	noExt := PathRef("Dockerfile")
	assert.Equal(t, "dockerfile", noExt.Base())
	assert.Equal(t, "", noExt.Ext())
}

func TestNewChunkCopiesMetadata(t *testing.T) {
	md := map[string]string{"source": "a.txt"}
	chunk := NewChunk("content", md)

	md["source"] = "changed"
	assert.Equal(t, "a.txt", chunk.Metadata["source"])
}

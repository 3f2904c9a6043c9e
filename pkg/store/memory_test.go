package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/models"
)

func rec(id, content string, embedding ...float32) models.Record {
	return models.Record{ID: id, Content: content, Embedding: embedding}
}

func TestMemoryStoreAddSearchRemove(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []models.Record{
		rec("a", "about cats", 1, 0),
		rec("b", "about dogs", 0, 1),
		rec("c", "about cats too", 0.9, 0.1),
	}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Nearest by cosine to the cat direction.
	out, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)

	require.NoError(t, s.Remove(ctx, []string{"a", "missing"}))
	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStoreSearchLimits(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []models.Record{rec("a", "x", 1, 0)}))

	// Limit larger than the store returns everything.
	out, err := s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	// Searching an empty store is not an error.
	require.NoError(t, s.Clear(ctx))
	out, err = s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMemoryStoreZeroVectorDoesNotPanic(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []models.Record{rec("a", "x", 0, 0)}))

	out, err := s.Search(ctx, []float32{0, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestMemoryStorePersistence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	s := NewMemoryStore(MemoryConfig{Path: dir, Persist: true})
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add(ctx, []models.Record{
		rec("a", "persisted", 1, 2),
	}))
	s.Close()

	reopened := NewMemoryStore(MemoryConfig{Path: dir, Persist: true})
	require.NoError(t, reopened.Load(ctx))

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	out, err := reopened.Search(ctx, []float32{1, 2}, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "persisted", out[0].Content)
}

func TestMemoryStoreLoadMissingSnapshot(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{Path: filepath.Join(t.TempDir(), "never-written"), Persist: true})
	assert.NoError(t, s.Load(context.Background()))
}

func TestMemoryStoreClearDeletesSnapshotDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	s := NewMemoryStore(MemoryConfig{Path: dir, Persist: true})
	require.NoError(t, s.Add(ctx, []models.Record{rec("a", "x", 1)}))

	_, err := os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStoreNonPersistentWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	s := NewMemoryStore(MemoryConfig{Path: dir, Persist: false})
	require.NoError(t, s.Add(ctx, []models.Record{rec("a", "x", 1)}))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

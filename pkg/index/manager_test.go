package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/pkg/store"
)

// stubEmbedder returns a deterministic vector per text so tests never reach a
// real embedding server.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (e *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var sum float32
		for _, r := range text {
			sum += float32(r)
		}
		out[i] = []float32{float32(len(text)), sum, 1}
	}
	return out, nil
}

func newTestManager(t *testing.T) (*Manager, *stubEmbedder) {
	t.Helper()
	emb := &stubEmbedder{}
	m := NewManager(store.NewMemoryStore(store.MemoryConfig{}), emb, nil, Config{})
	t.Cleanup(m.Close)
	return m, emb
}

func chunksOf(contents ...string) []models.Chunk {
	out := make([]models.Chunk, len(contents))
	for i, c := range contents {
		out[i] = models.NewChunk(c, map[string]string{"source": "test"})
	}
	return out
}

func TestIngestRejectsEmptyInput(t *testing.T) {
	m, emb := newTestManager(t)

	_, err := m.Ingest(context.Background(), nil, false)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, emb.calls)
}

func TestIngestRejectsWhitespaceOnlyChunks(t *testing.T) {
	m, emb := newTestManager(t)

	_, err := m.Ingest(context.Background(), chunksOf("", "   ", "\n"), false)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, emb.calls)
}

func TestIngestAssignsUniqueIDs(t *testing.T) {
	m, _ := newTestManager(t)

	ids, err := m.Ingest(context.Background(), chunksOf("alpha", "beta", "gamma"), false)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	seen := make(map[string]struct{})
	for _, id := range ids {
		assert.NotEmpty(t, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 3)
}

func TestIngestSkipsEmptyChunksButKeepsRest(t *testing.T) {
	m, _ := newTestManager(t)

	ids, err := m.Ingest(context.Background(), chunksOf("alpha", "  ", "beta"), false)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestQueryReturnsIngestedContent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Ingest(ctx, chunksOf("the budget grew", "the schedule slipped"), false)
	require.NoError(t, err)

	contents, err := m.QueryContext(ctx, "what happened to the budget?", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"the budget grew", "the schedule slipped"}, contents)
}

func TestQueryEmptyIndexYieldsNothing(t *testing.T) {
	m, emb := newTestManager(t)

	contents, err := m.QueryContext(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, contents)
	// No embedding call should be wasted on an empty index.
	assert.Zero(t, emb.calls)
}

func TestRemoveExcludesChunksFromQueries(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	ids, err := m.Ingest(ctx, chunksOf("keep me", "drop me"), false)
	require.NoError(t, err)

	assert.True(t, m.Remove(ctx, ids[1:]))

	contents, err := m.QueryContext(ctx, "which chunks remain?", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep me"}, contents)
}

func TestRemoveEdgeCases(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	assert.False(t, m.Remove(ctx, nil), "empty id list")
	assert.False(t, m.Remove(ctx, []string{"some-id"}), "index never loaded")

	_, err := m.Ingest(ctx, chunksOf("content"), false)
	require.NoError(t, err)

	// Unknown ids are a no-op, not a failure.
	assert.True(t, m.Remove(ctx, []string{"no-such-id"}))
}

func TestResetEmptiesIndex(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Ingest(ctx, chunksOf("soon gone"), false)
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))

	empty, err := m.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	// The manager stays usable after a reset.
	_, err = m.Ingest(ctx, chunksOf("fresh start"), false)
	assert.NoError(t, err)
}

func TestIngestResetFirstReplacesContent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Ingest(ctx, chunksOf("old document"), false)
	require.NoError(t, err)

	_, err = m.Ingest(ctx, chunksOf("new document"), true)
	require.NoError(t, err)

	contents, err := m.QueryContext(ctx, "what is indexed?", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"new document"}, contents)
}

func TestIngestSurfacesEmbeddingFailure(t *testing.T) {
	emb := &stubEmbedder{fail: true}
	m := NewManager(store.NewMemoryStore(store.MemoryConfig{}), emb, nil, Config{})
	defer m.Close()

	_, err := m.Ingest(context.Background(), chunksOf("content"), false)
	assert.Error(t, err)

	empty, err := m.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestIsEmpty(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	empty, err := m.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	_, err = m.Ingest(ctx, chunksOf("content"), false)
	require.NoError(t, err)

	empty, err = m.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)
}

package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/internal/types"
)

// ErrEmptyInput is returned when ingest is called with no chunks.
var ErrEmptyInput = errors.New("no document chunks provided")

const defaultSearchLimit = 5

// Manager owns the vector index lifecycle: creation or load on first access,
// incremental insertion with id tracking, deletion by id, full reset, and
// query-time retrieval. Mutating operations and searches serialize on one
// mutex; interleaved mutation and similarity search on a half-updated store
// is undefined.
type Manager struct {
	mu          sync.Mutex
	store       types.Store
	embedder    types.Embedder
	log         *zap.SugaredLogger
	searchLimit int
	loaded      bool
}

type Config struct {
	SearchLimit int
}

func NewManager(store types.Store, embedder types.Embedder, log *zap.SugaredLogger, config Config) *Manager {
	if config.SearchLimit == 0 {
		config.SearchLimit = defaultSearchLimit
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{
		store:       store,
		embedder:    embedder,
		log:         log,
		searchLimit: config.SearchLimit,
	}
}

// EnsureReady loads a previously persisted index or starts an empty one.
// A corrupt persisted index is treated the same as a missing one: the
// failure is logged and the storage is cleared. Idempotent.
func (m *Manager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureReadyLocked(ctx)
	return nil
}

func (m *Manager) ensureReadyLocked(ctx context.Context) {
	if m.loaded {
		return
	}
	if err := m.store.Load(ctx); err != nil {
		m.log.Warnw("failed to load persisted index, starting empty", "error", err)
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warnw("failed to clear unreadable index storage", "error", err)
		}
	}
	m.loaded = true
}

// Ingest embeds the chunks and stores them, returning the newly assigned
// chunk ids in input order. Chunks with empty content never reach the store.
func (m *Manager) Ingest(ctx context.Context, chunks []models.Chunk, resetFirst bool) ([]string, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureReadyLocked(ctx)

	if resetFirst {
		if err := m.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset index: %w", err)
		}
	}

	kept := make([]models.Chunk, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		kept = append(kept, chunk)
		texts = append(texts, chunk.Content)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyInput
	}

	vectors, err := m.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	ids := make([]string, len(kept))
	recs := make([]models.Record, len(kept))
	for i, chunk := range kept {
		ids[i] = uuid.NewString()
		recs[i] = models.Record{
			ID:        ids[i],
			Content:   chunk.Content,
			Embedding: vectors[i],
			Metadata:  chunk.Metadata,
		}
	}

	if err := m.store.Add(ctx, recs); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}
	return ids, nil
}

// Remove deletes the given chunk ids. Returns false, never an error, when
// ids is empty or the index was never loaded; store failures are logged and
// reported as false so the caller's bookkeeping stays intact. Removing an id
// that does not exist is a no-op.
func (m *Manager) Remove(ctx context.Context, ids []string) bool {
	if len(ids) == 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return false
	}

	if err := m.store.Remove(ctx, ids); err != nil {
		m.log.Warnw("failed to remove chunks from index", "ids", len(ids), "error", err)
		return false
	}
	return true
}

// Reset deletes the entire index contents, durable storage included, and
// leaves the manager immediately usable again.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset index: %w", err)
	}
	m.loaded = true
	return nil
}

// QueryContext returns the contents of the topK chunks nearest to the
// question. An empty index yields an empty result, not an error.
func (m *Manager) QueryContext(ctx context.Context, question string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = m.searchLimit
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureReadyLocked(ctx)

	count, err := m.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect index: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	vectors, err := m.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("embedding service returned no vector for question")
	}

	recs, err := m.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	contents := make([]string, 0, len(recs))
	for _, rec := range recs {
		contents = append(contents, rec.Content)
	}
	return contents, nil
}

// IsEmpty reports whether the index holds no chunks.
func (m *Manager) IsEmpty(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureReadyLocked(ctx)

	count, err := m.store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to inspect index: %w", err)
	}
	return count == 0, nil
}

// Close releases the underlying store.
func (m *Manager) Close() {
	m.store.Close()
}

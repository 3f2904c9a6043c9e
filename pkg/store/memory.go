package store

import (
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/docsage/docsage/internal/models"
)

const snapshotFile = "index.gob"

type MemoryConfig struct {
	// Path is the snapshot directory. Deleted wholesale on Clear.
	Path string
	// Persist controls whether mutations are flushed to Path. When false the
	// index lives for the process lifetime only.
	Persist bool
}

// MemoryStore is a brute-force cosine-similarity vector store with an
// optional gob snapshot on disk.
type MemoryStore struct {
	mu     sync.RWMutex
	config MemoryConfig
	recs   []models.Record
}

func NewMemoryStore(config MemoryConfig) *MemoryStore {
	return &MemoryStore{config: config}
}

func (s *MemoryStore) Load(ctx context.Context) error {
	if !s.config.Persist || s.config.Path == "" {
		return nil
	}

	f, err := os.Open(filepath.Join(s.config.Path, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var recs []models.Record
	if err := gob.NewDecoder(f).Decode(&recs); err != nil {
		return err
	}

	s.mu.Lock()
	s.recs = recs
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, recs []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, recs...)
	return s.snapshotLocked()
}

func (s *MemoryStore) Remove(ctx context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.recs[:0]
	for _, rec := range s.recs {
		if _, ok := drop[rec.ID]; !ok {
			kept = append(kept, rec)
		}
	}
	s.recs = kept
	return s.snapshotLocked()
}

func (s *MemoryStore) Search(ctx context.Context, embedding []float32, limit int) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.recs) {
		limit = len(s.recs)
	}

	type scored struct {
		rec   models.Record
		score float64
	}
	scores := make([]scored, 0, len(s.recs))
	for _, rec := range s.recs {
		scores = append(scores, scored{rec: rec, score: cosine(rec.Embedding, embedding)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	out := make([]models.Record, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, scores[i].rec)
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs), nil
}

// Clear drops the in-memory records and physically deletes the snapshot
// directory, which is the source of truth for a completed reset.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = nil
	if s.config.Path != "" {
		return os.RemoveAll(s.config.Path)
	}
	return nil
}

func (s *MemoryStore) Close() {}

// snapshotLocked flushes the records to disk before the mutating call
// returns. Caller holds the write lock. Written to a temp file first so a
// crash never leaves a torn snapshot behind.
func (s *MemoryStore) snapshotLocked() error {
	if !s.config.Persist || s.config.Path == "" {
		return nil
	}
	if err := os.MkdirAll(s.config.Path, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.config.Path, "index-*.tmp")
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(tmp).Encode(s.recs); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.config.Path, snapshotFile))
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package types

import (
	"context"

	"github.com/docsage/docsage/internal/models"
)

// Core interfaces

// Extractor converts one file into an ordered sequence of chunks.
type Extractor interface {
	Extract(ctx context.Context, ref models.FileRef) ([]models.Chunk, error)
}

// Embedder turns texts into embedding vectors, one vector per input text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel issues a single chat completion call against the inference
// backend. ListModels is best-effort and returns nil when the backend is
// unreachable.
type ChatModel interface {
	Chat(ctx context.Context, model string, prompt string) (string, error)
	ListModels(ctx context.Context) []string
}

// Store is a vector index backend. Load brings any persisted state into
// memory; Clear physically deletes the durable storage and leaves the store
// empty but usable.
type Store interface {
	Load(ctx context.Context) error
	Add(ctx context.Context, recs []models.Record) error
	Remove(ctx context.Context, ids []string) error
	Search(ctx context.Context, embedding []float32, limit int) ([]models.Record, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close()
}

// Retriever is the query-side surface of the index manager consumed by the
// prompt assembler.
type Retriever interface {
	QueryContext(ctx context.Context, question string, topK int) ([]string, error)
	IsEmpty(ctx context.Context) (bool, error)
}

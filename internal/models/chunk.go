package models

// Chunk is the atomic unit of embedding and retrieval: a bounded span of
// extracted text plus flat string metadata. Metadata values must be scalars
// or string-serialized composites; the index layer cannot store nested
// structures.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// NewChunk copies the metadata map so chunks stay immutable after creation.
func NewChunk(content string, metadata map[string]string) Chunk {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Chunk{Content: content, Metadata: md}
}

// Record is what the vector store holds for one chunk.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/docsage/docsage/internal/models"
)

// Config holds the shared chunking parameters. Size and overlap are part of
// the retrieval contract: they decide retrieval granularity.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

func (c Config) withDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
	return c
}

func newSplitter(cfg Config) textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
	)
}

// splitChunks runs the shared recursive splitter over one pre-split document
// and stamps every piece with a copy of the metadata. Empty pieces are
// dropped so nothing unindexable leaves the extractor.
func splitChunks(cfg Config, text string, metadata map[string]string) ([]models.Chunk, error) {
	pieces, err := newSplitter(cfg).SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, models.NewChunk(piece, metadata))
	}
	return chunks, nil
}

// decodeText converts raw bytes to a string, replacing invalid UTF-8
// sequences instead of failing, matching read-with-replacement semantics.
func decodeText(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

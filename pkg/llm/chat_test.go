package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    ChatConfig
		expectErr bool
	}{
		{
			name:   "defaults",
			config: ChatConfig{},
		},
		{
			name:   "explicit values",
			config: ChatConfig{Model: "llama3:8b", MaxTokens: 500, Temperature: 0.2},
		},
		{
			name:      "temperature too high",
			config:    ChatConfig{Temperature: 1.5},
			expectErr: true,
		},
		{
			name:      "negative temperature",
			config:    ChatConfig{Temperature: -0.1},
			expectErr: true,
		},
		{
			name:      "negative max tokens",
			config:    ChatConfig{MaxTokens: -1},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewWithConfig(tt.config)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, engine)
		})
	}
}

func TestDefaultModel(t *testing.T) {
	engine, err := NewWithConfig(ChatConfig{})
	require.NoError(t, err)
	assert.Equal(t, "deepseek-r1:14b", engine.DefaultModel())

	engine, err = NewWithConfig(ChatConfig{Model: "llama3:8b"})
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", engine.DefaultModel())
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[{"name":"deepseek-r1:14b"},{"name":"nomic-embed-text:latest"}]}`))
	}))
	defer srv.Close()

	engine, err := NewWithConfig(ChatConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	names := engine.ListModels(context.Background())
	assert.Equal(t, []string{"deepseek-r1:14b", "nomic-embed-text:latest"}, names)
}

func TestListModelsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine, err := NewWithConfig(ChatConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	assert.Nil(t, engine.ListModels(context.Background()))
}

func TestListModelsUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	engine, err := NewWithConfig(ChatConfig{BaseURL: url})
	require.NoError(t, err)

	assert.Nil(t, engine.ListModels(context.Background()))
}

func TestEmbedderConfigDefaults(t *testing.T) {
	emb, err := NewEmbedderWithConfig(EmbedderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text:latest", emb.config.Model)
	assert.Equal(t, float64(4), emb.config.RateLimit)
}

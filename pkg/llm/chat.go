package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// UnavailableError means the inference backend was unreachable or returned a
// malformed response. Surfaced as a generic failure to the end user and
// never silently retried.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("language model unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	BaseURL     string // Ollama server URL
	Model       string // default model, overridable per call
	MaxTokens   int
	Temperature float64
}

// ChatEngine issues single synchronous chat completion calls. No internal
// retry: a failed call is the caller's to surface.
type ChatEngine struct {
	config ChatConfig
	llm    *ollama.LLM
	client *http.Client
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "deepseek-r1:14b"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    model,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Chat sends the rendered prompt as a single user message and returns the
// model's text verbatim. An empty model selects the configured default.
func (ce *ChatEngine) Chat(ctx context.Context, model string, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	opts := []llms.CallOption{
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	}
	if model != "" && model != ce.config.Model {
		opts = append(opts, llms.WithModel(model))
	}

	resp, err := ce.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", &UnavailableError{Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &UnavailableError{Err: fmt.Errorf("empty response from model")}
	}
	return resp.Choices[0].Content, nil
}

// ListModels returns the model names the Ollama server advertises. Used for
// UI population only, so every failure collapses to an empty list.
func (ce *ChatEngine) ListModels(ctx context.Context) []string {
	url := strings.TrimSuffix(ce.config.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := ce.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names
}

// DefaultModel returns the configured default model name.
func (ce *ChatEngine) DefaultModel() string {
	return ce.config.Model
}

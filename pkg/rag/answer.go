package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docsage/docsage/internal/types"
)

// NoContextAnswer is returned without calling the model when retrieval finds
// nothing, so an empty index never wastes a completion call.
const NoContextAnswer = "No relevant information was found in the uploaded documents to answer this question."

const basePrompt = `Based on the following document excerpts, answer the question.
Use ONLY the information provided in these excerpts to formulate your answer.
If the answer requires information from multiple sections, please specify which parts you're referencing.

%s

Document excerpts: %s

Question: %s

Please provide your answer in the same language as the question, using only information from the provided excerpts:`

// AnswererConfig configures the retrieval and prompt assembly step.
type AnswererConfig struct {
	DefaultModel string
}

// Answerer retrieves the nearest chunks for a question and conditions the
// chat model on them through a role-specific prompt.
type Answerer struct {
	retriever types.Retriever
	chat      types.ChatModel
	config    AnswererConfig
	log       *zap.SugaredLogger
}

func NewAnswerer(retriever types.Retriever, chat types.ChatModel, log *zap.SugaredLogger, config AnswererConfig) *Answerer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Answerer{
		retriever: retriever,
		chat:      chat,
		config:    config,
		log:       log,
	}
}

// Answer runs the full query path. modelOverride selects a different model
// for this call only; empty means the configured default.
func (a *Answerer) Answer(ctx context.Context, question, role, modelOverride string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	instruction, ok := rolePrompts[role]
	if !ok {
		return "", &InvalidRoleError{Role: role, Valid: Roles()}
	}

	empty, err := a.retriever.IsEmpty(ctx)
	if err != nil {
		return "", err
	}
	if empty {
		return "", ErrNoDocument
	}

	contexts, err := a.retriever.QueryContext(ctx, question, 0)
	if err != nil {
		return "", err
	}
	if len(contexts) == 0 {
		return NoContextAnswer, nil
	}

	contextBlock := strings.Join(contexts, "\n\n")
	a.log.Debugw("retrieved context for question", "chunks", len(contexts))

	prompt := fmt.Sprintf(basePrompt, instruction, contextBlock, question)

	model := a.config.DefaultModel
	if modelOverride != "" {
		model = modelOverride
	}

	return a.chat.Chat(ctx, model, prompt)
}

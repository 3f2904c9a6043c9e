package rag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuestion is returned for an empty or whitespace-only question.
var ErrEmptyQuestion = errors.New("please enter a question")

// ErrNoDocument is returned when a question arrives before any successful
// ingest.
var ErrNoDocument = errors.New("please upload a document before asking questions")

// InvalidRoleError reports a role missing from the role table.
type InvalidRoleError struct {
	Role  string
	Valid []string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("unknown role %q: valid roles are %s", e.Role, strings.Join(e.Valid, ", "))
}

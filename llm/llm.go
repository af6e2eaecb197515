// Package llm provides the model provider clients used by the pipeline:
// an Anthropic messages client for analysis and duplicate judgment, and an
// OpenAI chat-completions client for the writing pass.
//
// Clients make exactly one attempt per call. Transient provider errors are
// not retried; the per-stage degradation policy lives with the caller.
package llm

import (
	"context"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes a single model invocation.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Temperature  float64
	MaxTokens    int
}

// Usage reports token consumption for a completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// CompletionResponse is the result of a model invocation.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Client is the interface implemented by all model providers.
type Client interface {
	// Complete runs a single completion. It blocks until the provider
	// responds or ctx is done.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Package llm defines a minimal completion client interface with OpenAI and
// Anthropic implementations.
package llm

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest carries the conversation and sampling settings.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
}

// Client completes conversations against one provider and model.
type Client interface {
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)
	ModelName() string
}

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-5-mini"
	DefaultAnthropicModel = "claude-sonnet-4-5"
)

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeClient implements Client over the Anthropic SDK.
type ClaudeClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClaudeClient creates an Anthropic client with the default model.
func NewClaudeClient(apiKey string) *ClaudeClient {
	return NewClaudeClientWithModel(apiKey, DefaultAnthropicModel)
}

// NewClaudeClientWithModel creates an Anthropic client with a specific model.
func NewClaudeClientWithModel(apiKey, model string) *ClaudeClient {
	return &ClaudeClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Complete sends the conversation through the Messages API. System messages
// are lifted into the top-level system parameter as the API requires.
func (c *ClaudeClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return CompletionResponse{}, fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	var messages []anthropic.MessageParam
	for _, msg := range in.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	if len(messages) == 0 {
		return CompletionResponse{}, fmt.Errorf("must have at least one non-system message")
	}

	maxTokens := int64(in.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if in.Temperature > 0 {
		params.Temperature = anthropic.Float(in.Temperature)
	}
	if len(systemParts) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(systemParts, "\n\n")},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("Anthropic API failed: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return CompletionResponse{Content: content.String()}, nil
}

// ModelName returns the model this client targets.
func (c *ClaudeClient) ModelName() string {
	return string(c.model)
}

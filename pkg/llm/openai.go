package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

// OpenAIClient implements Client over the official OpenAI Go package using
// the Responses API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI client with the default model.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithModel(apiKey, DefaultOpenAIModel)
}

// NewOpenAIClientWithModel creates an OpenAI client with a specific model.
func NewOpenAIClientWithModel(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete flattens the conversation into a single Responses API input.
func (o *OpenAIClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	var inputText string
	for _, msg := range in.Messages {
		switch msg.Role {
		case RoleSystem:
			inputText += fmt.Sprintf("System: %s\n\n", msg.Content)
		case RoleAssistant:
			inputText += fmt.Sprintf("Assistant: %s\n\n", msg.Content)
		default:
			inputText += msg.Content
		}
	}

	params := responses.ResponseNewParams{
		Model: o.model,
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(inputText)},
	}
	if in.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(in.MaxTokens))
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("OpenAI Responses API failed: %w", err)
	}
	if resp == nil {
		return CompletionResponse{}, fmt.Errorf("empty response from OpenAI Responses API")
	}

	return CompletionResponse{Content: resp.OutputText()}, nil
}

// ModelName returns the model this client targets.
func (o *OpenAIClient) ModelName() string {
	return o.model
}

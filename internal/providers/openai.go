package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenRouterBaseURL is used when no base URL is configured.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAIClient implements engine.LLMClient for OpenAI and every
// OpenAI-compatible endpoint (OpenRouter, Ollama, LM Studio, DeepSeek...).
// The response schema is sent as the only tool and the model is forced to
// call it.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewOpenAIClient creates a new OpenAI client for the engine.
func NewOpenAIClient(apiKey, modelName, baseURL string) (*OpenAIClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

func toOpenAIMessages(messages []engine.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: msg.Content})
		case engine.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Content})
		case engine.RoleAssistant:
			content := msg.Content
			if content == "" {
				// the SDK serialises "" as null, which some endpoints reject
				content = " "
			}
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})
		}
	}
	return out
}

// Chat implements engine.LLMClient.
func (c *OpenAIClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, schema engine.ResponseSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = c.model
	}
	if !json.Valid([]byte(schema.JSONSchema)) {
		return engine.LLMResponse{}, fmt.Errorf("invalid response schema JSON for %s", schema.Name)
	}

	temperature := opts.Temperature
	req := openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    toOpenAIMessages(messages),
		Temperature: &temperature,
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				// raw keeps property order, which steers generation order
				Parameters: json.RawMessage(schema.JSONSchema),
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: schema.Name},
		},
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		httpStatus, retryAfter := engine.ExtractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}
	if len(resp.Choices) == 0 {
		return engine.LLMResponse{}, fmt.Errorf("empty response from OpenAI")
	}

	choice := resp.Choices[0]

	// prefer the forced tool call; some compatible servers answer in content
	content := choice.Message.Content
	for _, tc := range choice.Message.ToolCalls {
		if tc.Function.Name == schema.Name && tc.Function.Arguments != "" {
			content = tc.Function.Arguments
			break
		}
	}

	finishReason := "stop"
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		finishReason = "length"
	case openai.FinishReasonContentFilter:
		finishReason = "content_filter"
	}

	return engine.LLMResponse{
		Content: content,
		Usage: engine.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
		FinishReason: finishReason,
	}, nil
}

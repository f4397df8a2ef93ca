package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// GeminiClient implements engine.LLMClient on the native Gemini API using
// JSON response mode. The schema travels in the system instruction.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient creates a Gemini client. An empty apiKey lets the SDK read
// GEMINI_API_KEY / GOOGLE_API_KEY itself.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{cli: cli, model: modelName}, nil
}

// Chat implements engine.LLMClient.
func (g *GeminiClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, schema engine.ResponseSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = g.model
	}

	var system []string
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			system = append(system, msg.Content)
		case engine.RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		case engine.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}
	system = append(system, geminiSchemaInstruction(schema))

	temperature := opts.Temperature
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}},
		Temperature:       &temperature,
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		httpStatus, retryAfter := engine.ExtractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return engine.LLMResponse{}, fmt.Errorf("empty response from Gemini")
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil && !p.Thought {
			text.WriteString(p.Text)
		}
	}

	finishReason := "stop"
	switch string(cand.FinishReason) {
	case "MAX_TOKENS":
		finishReason = "length"
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
		finishReason = "content_filter"
	}

	var usage engine.Usage
	if um := resp.UsageMetadata; um != nil {
		usage = engine.Usage{
			Prompt:     int(um.PromptTokenCount),
			Completion: int(um.CandidatesTokenCount),
			Total:      int(um.TotalTokenCount),
		}
	}

	return engine.LLMResponse{Content: text.String(), Usage: usage, FinishReason: finishReason}, nil
}

func geminiSchemaInstruction(schema engine.ResponseSchema) string {
	return fmt.Sprintf("Respond with a single JSON object named %q that validates against this JSON Schema. Fill the fields in the order they are listed.\n%s",
		schema.Name, schema.JSONSchema)
}

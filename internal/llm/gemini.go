package llm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is the Google Gemini LLM client.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client}, nil
}

// NewGeminiClientFromClient wraps an existing genai client.
func NewGeminiClientFromClient(c *genai.Client) *GeminiClient {
	return &GeminiClient{client: c}
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini)
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := defaultString(req.Model, defaultGeminiModel)

	var prompt string
	for _, msg := range req.Messages {
		if prompt != "" {
			prompt += "\n\n"
		}
		prompt += msg.Content
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(defaultInt(req.MaxTokens, 1024)),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}

	resp := &CompletionResponse{
		Content:   result.Text(),
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if result.UsageMetadata != nil {
		resp.TokensIn = int(result.UsageMetadata.PromptTokenCount)
		resp.TokensOut = int(result.UsageMetadata.CandidatesTokenCount)
	}
	if len(result.Candidates) > 0 {
		resp.StopReason = string(result.Candidates[0].FinishReason)
	}
	return resp, nil
}

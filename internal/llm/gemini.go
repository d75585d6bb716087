package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient implements Client using the Gemini generateContent API.
type GeminiClient struct {
	client *genai.Client
}

// GeminiOption configures the Gemini client.
type GeminiOption func(*genai.ClientConfig)

// WithGeminiBaseURL points the client at a different API endpoint.
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(cfg *genai.ClientConfig) { cfg.HTTPOptions.BaseURL = baseURL }
}

// NewGeminiClient creates a client for the Gemini API using apiKey.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Chat sends a non-streaming generateContent request.
func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	contents, err := c.buildContents(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, c.buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini chat: %w", err)
	}

	return c.parseResponse(resp), nil
}

func (c *GeminiClient) buildContents(req ChatRequest) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		parts := make([]*genai.Part, 0, len(m.Attachments)+1)
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		for _, a := range m.Attachments {
			data, err := a.Bytes()
			if err != nil {
				return nil, fmt.Errorf("gemini: %w", err)
			}
			parts = append(parts, genai.NewPartFromBytes(data, a.MIMEType))
		}

		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents, nil
}

func (c *GeminiClient) buildConfig(req ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.Role(genai.RoleUser))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	return cfg
}

func (c *GeminiClient) parseResponse(resp *genai.GenerateContentResponse) *ChatResponse {
	result := &ChatResponse{
		Content:    resp.Text(),
		StopReason: StopEndTurn,
	}

	if len(resp.Candidates) > 0 {
		result.StopReason = mapGeminiFinishReason(resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return result
}

func mapGeminiFinishReason(reason genai.FinishReason) StopReason {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return StopMaxTokens
	case genai.FinishReasonSafety:
		return StopSafety
	default:
		return StopEndTurn
	}
}

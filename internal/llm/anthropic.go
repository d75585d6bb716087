package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a client that reads ANTHROPIC_API_KEY from the environment.
func NewAnthropicClient(opts ...option.RequestOption) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(opts...),
	}
}

// NewAnthropicClientWithKey creates a client with an explicit API key.
func NewAnthropicClientWithKey(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
	}
}

// Chat sends a non-streaming chat request.
func (c *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	return c.parseResponse(msg), nil
}

func (c *AnthropicClient) buildParams(req ChatRequest) (anthropic.MessageNewParams, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Attachments)+1)
		for _, a := range m.Attachments {
			block, err := attachmentBlock(a)
			if err != nil {
				return anthropic.MessageNewParams{}, err
			}
			blocks = append(blocks, block)
		}
		if m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content))
		}

		switch m.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		default:
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}

	return params, nil
}

// attachmentBlock passes the base64 payload through untouched.
func attachmentBlock(a Attachment) (anthropic.ContentBlockParamUnion, error) {
	switch {
	case a.IsImage():
		return anthropic.NewImageBlockBase64(a.MIMEType, a.Data), nil
	case strings.EqualFold(a.MIMEType, "application/pdf"):
		return anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{Data: a.Data}), nil
	default:
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("anthropic: unsupported attachment type %q", a.MIMEType)
	}
}

func (c *AnthropicClient) parseResponse(msg *anthropic.Message) *ChatResponse {
	resp := &ChatResponse{
		StopReason: mapStopReason(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			resp.Content += block.Text
		}
	}

	return resp
}

func mapStopReason(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return StopEndTurn
	case anthropic.StopReasonMaxTokens:
		return StopMaxTokens
	default:
		return StopReason(string(reason))
	}
}

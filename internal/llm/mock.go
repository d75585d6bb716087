package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockResponse configures a single response from the mock client.
type MockResponse struct {
	Content    string
	StopReason StopReason
	Usage      TokenUsage
	Error      error
}

// MockClient is a configurable mock LLM client for tests and offline runs.
type MockClient struct {
	mu        sync.Mutex
	responses []MockResponse
	callIndex int
	calls     []ChatRequest
}

// NewMockClient creates a mock client with a sequence of responses.
// Responses are returned in order; if exhausted, the last response repeats.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// Chat returns the next configured response.
func (m *MockClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock: no responses configured")
	}

	idx := m.callIndex
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	} else {
		m.callIndex++
	}

	resp := m.responses[idx]
	if resp.Error != nil {
		return nil, resp.Error
	}

	stop := resp.StopReason
	if stop == "" {
		stop = StopEndTurn
	}
	return &ChatResponse{
		Content:    resp.Content,
		StopReason: stop,
		Usage:      resp.Usage,
	}, nil
}

// Calls returns all requests made to the mock client.
func (m *MockClient) Calls() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.calls...)
}

// Reset clears call history and resets the response index.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callIndex = 0
	m.calls = nil
}

// EchoClient replies with the final user line of the prompt without
// calling a provider. It backs the offline mode of serve and chat.
type EchoClient struct{}

// Chat implements Client.
func (EchoClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return &ChatResponse{Content: "echo:", StopReason: StopEndTurn}, nil
	}

	last := req.Messages[len(req.Messages)-1]
	content := "echo: " + finalUserLine(last.Content)
	if n := len(last.Attachments); n > 0 {
		content += fmt.Sprintf(" (+%d attachment(s))", n)
	}
	return &ChatResponse{Content: content, StopReason: StopEndTurn}, nil
}

// finalUserLine returns the text of the last "User: " line in prompt, or
// the last non-blank line when the prompt has no such marker.
func finalUserLine(prompt string) string {
	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if text, ok := strings.CutPrefix(lines[i], "User: "); ok {
			return text
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// Package chat answers user messages: it resolves the message language,
// composes the prompt from the language template and recent history, calls
// the completion provider and records the exchange.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/szaher/lingochat/internal/language"
	"github.com/szaher/lingochat/internal/llm"
	"github.com/szaher/lingochat/internal/memory"
	"github.com/szaher/lingochat/internal/prompts"
	"github.com/szaher/lingochat/internal/telemetry"
)

// DefaultAttachmentMessage stands in for a blank message that carries an attachment.
const DefaultAttachmentMessage = "Analyze this file"

const (
	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second
)

// ErrGenerationFailed is returned for every failed Respond call. Provider
// and store details are logged, never returned.
var ErrGenerationFailed = errors.New("chat: generation failed")

var errEmptyCompletion = errors.New("provider returned an empty completion")

// Request is a single user turn.
type Request struct {
	Message    string
	SessionID  string
	Attachment *llm.Attachment
	// Language pins the reply language. Empty or unknown values fall back
	// to detection.
	Language string
}

// Response is the assistant's reply to a Request.
type Response struct {
	Response  string       `json:"response"`
	Language  language.Tag `json:"language"`
	SessionID string       `json:"sessionId"`
}

// Service orchestrates chat turns. It is safe for concurrent use; turns
// for the same session are applied one at a time.
type Service struct {
	store       memory.Store
	client      llm.Client
	prompts     *prompts.Library
	model       string
	provider    string
	maxTokens   int
	temperature *float64
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *telemetry.Metrics
	now         func() time.Time
	locks       *sessionLocks
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPrompts replaces the default prompt library.
func WithPrompts(lib *prompts.Library) Option {
	return func(s *Service) { s.prompts = lib }
}

// WithModel sets the provider name (used as a metrics label) and model name.
func WithModel(provider, model string) Option {
	return func(s *Service) {
		s.provider = provider
		s.model = model
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(s *Service) { s.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(s *Service) { s.temperature = &t }
}

// WithTimeout bounds each provider call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the timestamp source for recorded exchanges.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a chat service over store and client.
func NewService(store memory.Store, client llm.Client, opts ...Option) *Service {
	s := &Service{
		store:     store,
		client:    client,
		prompts:   prompts.Default(),
		provider:  "unknown",
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
		logger:    slog.Default(),
		now:       time.Now,
		locks:     newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond answers req. On success the exchange is appended to the session
// history; on failure history is left untouched and ErrGenerationFailed is
// returned.
func (s *Service) Respond(ctx context.Context, req Request) (*Response, error) {
	message := req.Message
	if strings.TrimSpace(message) == "" && req.Attachment != nil {
		message = DefaultAttachmentMessage
	}

	lang := language.Resolve(req.Language, message)
	logger := telemetry.RequestLogger(ctx, s.logger, req.SessionID).With("language", string(lang))

	unlock := s.locks.lock(req.SessionID)
	defer unlock()

	history, err := s.store.History(ctx, req.SessionID)
	if err != nil {
		logger.Error("load history failed", "error", err)
		return nil, ErrGenerationFailed
	}

	msg := llm.Message{
		Role:    llm.RoleUser,
		Content: BuildContext(s.prompts.PromptFor(lang), history, message),
	}
	if req.Attachment != nil {
		msg.Attachments = []llm.Attachment{*req.Attachment}
	}

	start := time.Now()
	resp, err := s.complete(ctx, llm.ChatRequest{
		Model:       s.model,
		Messages:    []llm.Message{msg},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordResponse(s.provider, string(lang), "error", elapsed, 0, 0)
		logger.Error("completion failed",
			"error", err,
			"duration_ms", elapsed.Milliseconds(),
			"attachment", req.Attachment != nil,
		)
		return nil, ErrGenerationFailed
	}

	exchange := memory.Exchange{User: message, Bot: resp.Content, Timestamp: s.now()}
	if err := s.store.Append(ctx, req.SessionID, exchange); err != nil {
		s.metrics.RecordResponse(s.provider, string(lang), "error", elapsed, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		logger.Error("record exchange failed", "error", err)
		return nil, ErrGenerationFailed
	}

	s.metrics.RecordResponse(s.provider, string(lang), "ok", elapsed, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	logger.Info("response generated",
		"duration_ms", elapsed.Milliseconds(),
		"history", len(history)+1,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", string(resp.StopReason),
	)

	return &Response{
		Response:  resp.Content,
		Language:  lang,
		SessionID: req.SessionID,
	}, nil
}

func (s *Service) complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, errEmptyCompletion
	}
	return resp, nil
}

// History returns the recorded exchanges of a session, oldest first.
// Reading an unknown session does not register it.
func (s *Service) History(ctx context.Context, sessionID string) ([]memory.Exchange, error) {
	return s.store.Peek(ctx, sessionID)
}

// Clear forgets a session's history. It waits for any in-flight turn of the
// same session to finish first.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.store.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.metrics.RecordClear()
	telemetry.RequestLogger(ctx, s.logger, sessionID).Info("history cleared")
	return nil
}

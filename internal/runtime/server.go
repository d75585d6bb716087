package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/szaher/lingochat/internal/chat"
	"github.com/szaher/lingochat/internal/language"
	"github.com/szaher/lingochat/internal/llm"
	"github.com/szaher/lingochat/internal/memory"
	"github.com/szaher/lingochat/internal/ratelimit"
	"github.com/szaher/lingochat/internal/session"
	"github.com/szaher/lingochat/internal/telemetry"
)

const (
	msgMessageRequired  = "Message is required"
	msgInvalidBody      = "Invalid request body"
	msgGenerationFailed = "Failed to generate response. Please try again."
	msgHistoryCleared   = "Conversation history cleared"
	msgHealthy          = "LingoChat API is running"

	correlationHeader = "X-Correlation-ID"

	// bodyOverhead covers the JSON envelope and message text around the
	// base64 attachment.
	bodyOverhead = 1 << 20
)

// Server is the HTTP boundary of the chat service.
type Server struct {
	chat               *chat.Service
	sessions           *session.Manager
	mux                *http.ServeMux
	server             *http.Server
	logger             *slog.Logger
	metrics            *telemetry.Metrics
	limiter            *ratelimit.Limiter
	corsOrigins        []string
	maxAttachmentBytes int64
	startTime          time.Time
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics exposes metrics on GET /metrics.
func WithMetrics(m *telemetry.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimiter limits the /api/chat routes per client IP.
func WithRateLimiter(l *ratelimit.Limiter) ServerOption {
	return func(s *Server) { s.limiter = l }
}

// WithCORSOrigins restricts cross-origin access to the listed origins.
// Without it any origin may call the API, without credentials.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithMaxAttachmentBytes caps the decoded size of an attachment.
func WithMaxAttachmentBytes(n int64) ServerOption {
	return func(s *Server) { s.maxAttachmentBytes = n }
}

// NewServer creates the HTTP server.
func NewServer(svc *chat.Service, sessions *session.Manager, opts ...ServerOption) *Server {
	s := &Server{
		chat:               svc,
		sessions:           sessions,
		logger:             slog.Default(),
		maxAttachmentBytes: DefaultMaxAttachmentBytes,
		startTime:          time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", s.sessionRoute(s.handleChat))
	mux.Handle("GET /api/chat/history", s.sessionRoute(s.handleHistory))
	mux.Handle("DELETE /api/chat/history", s.sessionRoute(s.handleClearHistory))
	mux.HandleFunc("GET /api/languages", s.handleLanguages)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux = mux
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// sessionRoute rate limits h, when a limiter is set, and attaches the
// session ID. Limiting runs first so rejected requests issue no cookie.
func (s *Server) sessionRoute(h http.HandlerFunc) http.Handler {
	handler := s.sessions.Middleware(h)
	if s.limiter != nil {
		handler = s.limiter.Middleware(s.limiter.ClientIP)(handler)
	}
	return handler
}

// Handler returns the HTTP handler for use with httptest or custom servers.
func (s *Server) Handler() http.Handler {
	return s.requestMiddleware(s.corsMiddleware(s.mux))
}

// ListenAndServe listens on addr and serves until Shutdown. It returns
// http.ErrServerClosed when Shutdown has been called, even if it runs first.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("server starting", "addr", ln.Addr().String())
	return s.server.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type chatRequest struct {
	Message  string          `json:"message"`
	File     *llm.Attachment `json:"file,omitempty"`
	Language string          `json:"language,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxAttachmentBytes/3*4+bodyOverhead)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, s.attachmentLimitMessage())
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if strings.TrimSpace(req.Message) == "" && req.File == nil {
		writeError(w, http.StatusBadRequest, msgMessageRequired)
		return
	}

	if req.File != nil {
		if req.File.MIMEType == "" {
			writeError(w, http.StatusBadRequest, "File type is required")
			return
		}
		data, err := req.File.Bytes()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid file data")
			return
		}
		if int64(len(data)) > s.maxAttachmentBytes {
			writeError(w, http.StatusRequestEntityTooLarge, s.attachmentLimitMessage())
			return
		}
	}

	resp, err := s.chat.Respond(r.Context(), chat.Request{
		Message:    req.Message,
		SessionID:  session.FromContext(r.Context()),
		Attachment: req.File,
		Language:   req.Language,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, msgGenerationFailed)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: resp})
}

func (s *Server) attachmentLimitMessage() string {
	if s.maxAttachmentBytes%(1<<20) == 0 {
		return fmt.Sprintf("File size must be less than %dMB", s.maxAttachmentBytes>>20)
	}
	return fmt.Sprintf("File size must be less than %d bytes", s.maxAttachmentBytes)
}

type historyData struct {
	SessionID string            `json:"sessionId"`
	Exchanges []memory.Exchange `json:"exchanges"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := session.FromContext(r.Context())
	exchanges, err := s.chat.History(r.Context(), id)
	if err != nil {
		telemetry.RequestLogger(r.Context(), s.logger, id).Error("load history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load conversation history")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: historyData{SessionID: id, Exchanges: exchanges}})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id := session.FromContext(r.Context())
	if err := s.chat.Clear(r.Context(), id); err != nil {
		telemetry.RequestLogger(r.Context(), s.logger, id).Error("clear history failed", "error", err)
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgHistoryCleared})
}

type languageInfo struct {
	Tag    language.Tag `json:"tag"`
	Locale string       `json:"locale"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	tags := language.All()
	out := make([]languageInfo, len(tags))
	for i, t := range tags {
		out[i] = languageInfo{Tag: t, Locale: t.Locale()}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: out})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": msgHealthy,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// requestMiddleware assigns a correlation ID and logs each request.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := telemetry.WithCorrelationID(r.Context(), r.Header.Get(correlationHeader))
		w.Header().Set(correlationHeader, telemetry.CorrelationID(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		telemetry.RequestLogger(ctx, s.logger, "").Log(ctx, level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.corsOrigins) == 0:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.corsOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+correlationHeader)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

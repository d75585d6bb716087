package runtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/szaher/lingochat/internal/chat"
	"github.com/szaher/lingochat/internal/llm"
	"github.com/szaher/lingochat/internal/memory"
	"github.com/szaher/lingochat/internal/prompts"
	"github.com/szaher/lingochat/internal/ratelimit"
	"github.com/szaher/lingochat/internal/session"
	"github.com/szaher/lingochat/internal/telemetry"
)

// Runtime owns the chat service, its dependencies and the HTTP server.
type Runtime struct {
	config  *Config
	server  *Server
	service *chat.Service
	store   *memory.Window
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Options configures the runtime.
type Options struct {
	Logger *slog.Logger
	// LLMClient replaces the provider selected from Config.Model.
	LLMClient llm.Client
	// Provider labels LLMClient in logs and metrics.
	Provider string
}

// New creates a runtime from cfg.
func New(ctx context.Context, cfg *Config, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	provider, model := llm.ParseModelString(cfg.Model)
	providerName := string(provider)
	client := opts.LLMClient
	if client != nil {
		providerName = opts.Provider
		if providerName == "" {
			providerName = "custom"
		}
	} else {
		var err error
		client, model, err = llm.NewClientForModel(ctx, cfg.Model, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("create %s client: %w", provider, err)
		}
	}

	library := prompts.Default()
	if cfg.PromptsFile != "" {
		f, err := os.Open(cfg.PromptsFile)
		if err != nil {
			return nil, fmt.Errorf("open prompts file: %w", err)
		}
		library, err = prompts.Load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load prompts file %q: %w", cfg.PromptsFile, err)
		}
	}

	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("no session secret configured: using a random secret, sessions will not survive a restart. Set SESSION_SECRET")
	}
	sessions, err := session.NewManager(session.Config{
		Secret:     secret,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	})
	if err != nil {
		return nil, err
	}

	store := memory.NewWindow()
	metrics := telemetry.NewMetrics()
	metrics.TrackSessions(store.Len)

	chatOpts := []chat.Option{
		chat.WithLogger(logger),
		chat.WithMetrics(metrics),
		chat.WithPrompts(library),
		chat.WithModel(providerName, model),
		chat.WithMaxTokens(cfg.MaxTokens),
		chat.WithTimeout(time.Duration(cfg.RequestTimeout)),
	}
	if cfg.Temperature != nil {
		chatOpts = append(chatOpts, chat.WithTemperature(*cfg.Temperature))
	}
	service := chat.NewService(store, client, chatOpts...)

	serverOpts := []ServerOption{
		WithLogger(logger),
		WithMetrics(metrics),
		WithRateLimiter(ratelimit.New(cfg.RateLimit)),
		WithMaxAttachmentBytes(cfg.MaxAttachmentBytes),
	}
	if len(cfg.CORSOrigins) > 0 {
		serverOpts = append(serverOpts, WithCORSOrigins(cfg.CORSOrigins))
	}

	logger.Info("runtime configured", "provider", providerName, "model", model)

	return &Runtime{
		config:  cfg,
		server:  NewServer(service, sessions, serverOpts...),
		service: service,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Start serves HTTP on the configured address until Shutdown.
func (rt *Runtime) Start() error {
	return rt.server.ListenAndServe(rt.config.Addr)
}

// Shutdown gracefully stops the runtime.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.logger.Info("shutting down runtime", "sessions", rt.store.Len())
	if err := rt.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// Server returns the HTTP server.
func (rt *Runtime) Server() *Server { return rt.server }

// Service returns the chat service.
func (rt *Runtime) Service() *chat.Service { return rt.service }

// Addr returns the configured listen address.
func (rt *Runtime) Addr() string { return rt.config.Addr }

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return hex.EncodeToString(b)
}

package runtime

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/szaher/lingochat/internal/chat"
	"github.com/szaher/lingochat/internal/llm"
	"github.com/szaher/lingochat/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr != ":3000" || cfg.Model != "gemini/gemini-2.5-flash" || cfg.MaxTokens != 1024 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if time.Duration(cfg.RequestTimeout) != time.Minute {
		t.Errorf("RequestTimeout = %v, want 1m", time.Duration(cfg.RequestTimeout))
	}
	if cfg.MaxAttachmentBytes != 5<<20 {
		t.Errorf("MaxAttachmentBytes = %d, want 5 MiB", cfg.MaxAttachmentBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q, want :3000", cfg.Addr)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("LINGO_TEST_KEY", "sk-from-env")
	path := testutil.WriteFile(t, "lingochat.yaml", `
addr: ":8080"
model: anthropic/claude-sonnet-4-20250514
api_key: env(LINGO_TEST_KEY)
max_tokens: 512
temperature: 0.7
request_timeout: 15s
max_attachment_bytes: 1048576
cors_origins: ["http://localhost:5173"]
session:
  secret: s3cret
  secure: true
rate_limit:
  requests_per_second: 4
  burst: 8
  trusted_proxies: ["10.0.0.0/8", "127.0.0.1"]
log_level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Addr != ":8080" || cfg.Model != "anthropic/claude-sonnet-4-20250514" || cfg.MaxTokens != 512 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want resolved env value", cfg.APIKey)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if time.Duration(cfg.RequestTimeout) != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", time.Duration(cfg.RequestTimeout))
	}
	if cfg.Session.Secret != "s3cret" || !cfg.Session.Secure || cfg.Session.CookieName != "lingochat.sid" {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.RateLimit.RequestsPerSecond != 4 || cfg.RateLimit.Burst != 8 || len(cfg.RateLimit.TrustedProxies) != 2 {
		t.Errorf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := testutil.WriteFile(t, "lingochat.yaml", "addr: \":8080\"\nmodel: gemini/gemini-2.5-pro\n")

	t.Setenv("PORT", "9000")
	t.Setenv("LINGOCHAT_MODEL", "openai/gpt-4o")
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LINGOCHAT_RATE_LIMIT", "10:20")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Addr)
	}
	if cfg.Model != "openai/gpt-4o" || cfg.Session.Secret != "from-env" || cfg.LogLevel != "warn" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.RateLimit.RequestsPerSecond != 10 || cfg.RateLimit.Burst != 20 {
		t.Errorf("rate limit = %+v, want 10:20", cfg.RateLimit)
	}

	t.Setenv("LINGOCHAT_ADDR", "127.0.0.1:7000")
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7000" {
		t.Errorf("LINGOCHAT_ADDR should win over PORT, got %q", cfg.Addr)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown field", "adress: \":1\"\n", "field adress not found"},
		{"bad duration", "request_timeout: soon\n", "invalid duration"},
		{"unset secret reference", "api_key: env(LINGO_TEST_UNSET_VAR)\n", "api_key"},
		{"zero max tokens", "max_tokens: 0\n", "max_tokens must be positive"},
		{"temperature out of range", "temperature: 3\n", "temperature must be within"},
		{"bad log level", "log_level: loud\n", "unknown log_level"},
		{"bad rate limit", "rate_limit:\n  requests_per_second: 0\n  burst: 1\n", "rate_limit"},
		{"bad trusted proxy", "rate_limit:\n  trusted_proxies: [\"lb.internal\"]\n", "trusted_proxies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, "lingochat.yaml", tt.content)
			_, err := LoadConfig(path)
			testutil.AssertErrorContains(t, err, tt.wantErr)
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(testutil.WriteFile(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != DefaultConfig().Model {
		t.Errorf("Model = %q, want default", cfg.Model)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = ""
	cfg.MaxAttachmentBytes = 0
	err := cfg.Validate()
	for _, want := range []string{"addr must not be empty", "max_attachment_bytes must be positive"} {
		testutil.AssertErrorContains(t, err, want)
	}
}

func TestNewRuntime(t *testing.T) {
	prompts := testutil.WriteFile(t, "prompts.yaml", "english: Custom English prompt.\n")
	cfg := DefaultConfig()
	cfg.PromptsFile = prompts

	client := llm.NewMockClient(llm.MockResponse{Content: "hi"})
	rt, err := New(context.Background(), cfg, Options{
		Logger:    testutil.DiscardLogger(),
		LLMClient: client,
		Provider:  "mock",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.Addr() != ":3000" || rt.Server() == nil {
		t.Errorf("unexpected runtime: addr %q", rt.Addr())
	}

	if _, err := rt.Service().Respond(context.Background(), chat.Request{Message: "hello", SessionID: "s1"}); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got := client.Calls()[0].Messages[0].Content; !strings.HasPrefix(got, "Custom English prompt.") {
		t.Errorf("prompts file not applied: %q", got)
	}
	if err := rt.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Start: %v", err)
	}
}

func TestNewRuntimeBadPromptsFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptsFile = testutil.WriteFile(t, "prompts.yaml", "klingon: Qapla'\n")

	_, err := New(context.Background(), cfg, Options{
		Logger:    testutil.DiscardLogger(),
		LLMClient: llm.NewMockClient(),
	})
	testutil.AssertErrorContains(t, err, "load prompts file")
}

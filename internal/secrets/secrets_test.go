package secrets

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Setenv("LINGOCHAT_TEST_KEY", "k-123")

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "env(LINGOCHAT_TEST_KEY)", want: "k-123"},
		{ref: " env( LINGOCHAT_TEST_KEY ) ", want: "k-123"},
		{ref: "literal-key", want: "literal-key"},
		{ref: "", want: ""},
		{ref: "env(LINGOCHAT_TEST_MISSING)", wantErr: true},
		{ref: "env()", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestIsReference(t *testing.T) {
	if !IsReference("env(X)") {
		t.Error("env(X) should be a reference")
	}
	if IsReference("abc") {
		t.Error("abc should not be a reference")
	}
}

func TestRedactHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRedactHandler(slog.NewTextHandler(&buf, nil), "sk-secret", ""))

	logger.With("key", "sk-secret").Info("calling with sk-secret",
		"url", "https://api?key=sk-secret",
		"error", errors.New("401 for sk-secret"),
		slog.Group("req", "auth", "Bearer sk-secret"),
		"count", 3,
	)

	out := buf.String()
	if strings.Contains(out, "sk-secret") {
		t.Errorf("secret leaked into log output: %s", out)
	}
	if strings.Count(out, placeholder) != 5 {
		t.Errorf("expected 5 redactions, got output: %s", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("non-string attrs should pass through: %s", out)
	}
}

func TestRedactHandlerWithoutSecrets(t *testing.T) {
	inner := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if NewRedactHandler(inner) != slog.Handler(inner) {
		t.Error("expected inner handler to be returned when there is nothing to redact")
	}
}


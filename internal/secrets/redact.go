package secrets

import (
	"context"
	"log/slog"
	"strings"
)

const placeholder = "***REDACTED***"

// RedactHandler wraps a slog handler and scrubs known secret values from
// record messages and string, error and group attributes.
type RedactHandler struct {
	inner    slog.Handler
	replacer *strings.Replacer
}

// NewRedactHandler returns a handler that redacts every non-empty value in
// secrets. With no secrets it returns inner unchanged.
func NewRedactHandler(inner slog.Handler, secrets ...string) slog.Handler {
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, placeholder)
		}
	}
	if len(pairs) == 0 {
		return inner
	}
	return &RedactHandler{inner: inner, replacer: strings.NewReplacer(pairs...)}
}

// Enabled delegates to the inner handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle rewrites the record with secrets removed.
func (h *RedactHandler) Handle(ctx context.Context, record slog.Record) error {
	redacted := slog.NewRecord(record.Time, record.Level, h.replacer.Replace(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redact(a))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

// WithAttrs redacts attrs before handing them to the inner handler.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.redact(a)
	}
	return &RedactHandler{inner: h.inner.WithAttrs(clean), replacer: h.replacer}
}

// WithGroup delegates to the inner handler.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{inner: h.inner.WithGroup(name), replacer: h.replacer}
}

func (h *RedactHandler) redact(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.replacer.Replace(v.String()))
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = h.redact(g)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.replacer.Replace(err.Error()))
		}
	}
	return a
}

// Package runtime wires the chat service behind the HTTP API and manages its
// lifecycle.
package runtime

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/szaher/lingochat/internal/ratelimit"
	"github.com/szaher/lingochat/internal/secrets"
)

// DefaultMaxAttachmentBytes is the largest decoded attachment accepted.
const DefaultMaxAttachmentBytes = 5 << 20

// Config is the complete server configuration. Values are resolved in this
// order: environment variable, config file, default.
type Config struct {
	Addr               string           `yaml:"addr"`
	Model              string           `yaml:"model"`
	APIKey             string           `yaml:"api_key"`
	MaxTokens          int              `yaml:"max_tokens"`
	Temperature        *float64         `yaml:"temperature,omitempty"`
	RequestTimeout     Duration         `yaml:"request_timeout"`
	PromptsFile        string           `yaml:"prompts_file,omitempty"`
	MaxAttachmentBytes int64            `yaml:"max_attachment_bytes"`
	CORSOrigins        []string         `yaml:"cors_origins,omitempty"`
	Session            SessionConfig    `yaml:"session"`
	RateLimit          ratelimit.Config `yaml:"rate_limit"`
	LogLevel           string           `yaml:"log_level"`
}

// SessionConfig holds session cookie settings.
type SessionConfig struct {
	Secret     string `yaml:"secret"`
	CookieName string `yaml:"cookie_name"`
	Secure     bool   `yaml:"secure"`
}

// Duration is a time.Duration that decodes from strings such as "60s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:               ":3000",
		Model:              "gemini/gemini-2.5-flash",
		MaxTokens:          1024,
		RequestTimeout:     Duration(60 * time.Second),
		MaxAttachmentBytes: DefaultMaxAttachmentBytes,
		Session:            SessionConfig{CookieName: "lingochat.sid"},
		RateLimit:          ratelimit.DefaultConfig(),
		LogLevel:           "info",
	}
}

// LoadConfig reads the YAML file at path (optional), applies environment
// overrides, resolves secret references and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := decodeConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	var err error
	if cfg.APIKey, err = secrets.Resolve(cfg.APIKey); err != nil {
		return nil, fmt.Errorf("api_key: %w", err)
	}
	if cfg.Session.Secret, err = secrets.Resolve(cfg.Session.Secret); err != nil {
		return nil, fmt.Errorf("session.secret: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if addr := os.Getenv("LINGOCHAT_ADDR"); addr != "" {
		c.Addr = addr
	}
	if model := os.Getenv("LINGOCHAT_MODEL"); model != "" {
		c.Model = model
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		c.Session.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	c.RateLimit = ratelimit.ApplyEnv(c.RateLimit)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", *c.Temperature))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request_timeout must not be negative"))
	}
	if c.MaxAttachmentBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_attachment_bytes must be positive, got %d", c.MaxAttachmentBytes))
	}
	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Package ratelimit applies per-client token bucket limits to HTTP handlers.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// EnvVar holds a "rate:burst" override, e.g. "2:5".
const EnvVar = "LINGOCHAT_RATE_LIMIT"

// idleTTL is how long an unused client bucket is kept.
const idleTTL = 10 * time.Minute

// Config holds rate limiting configuration.
type Config struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	// TrustedProxies lists the peer addresses or CIDR ranges whose
	// X-Forwarded-For header is honoured.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DefaultConfig returns the default rate limit settings.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		Burst:             5,
	}
}

// ApplyEnv overrides cfg from LINGOCHAT_RATE_LIMIT. Malformed parts are
// ignored.
func ApplyEnv(cfg Config) Config {
	val := os.Getenv(EnvVar)
	if val == "" {
		return cfg
	}

	parts := strings.SplitN(val, ":", 2)
	if r, err := strconv.ParseFloat(parts[0], 64); err == nil && r > 0 {
		cfg.RequestsPerSecond = r
	}
	if len(parts) > 1 {
		if burst, err := strconv.Atoi(parts[1]); err == nil && burst > 0 {
			cfg.Burst = burst
		}
	}
	return cfg
}

// Validate checks the configured limits and proxy ranges.
func (c Config) Validate() error {
	var errs []error
	if c.RequestsPerSecond <= 0 || c.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit requests_per_second and burst must be positive"))
	}
	for _, p := range c.TrustedProxies {
		if _, err := parsePrefix(p); err != nil {
			errs = append(errs, fmt.Errorf("rate_limit trusted_proxies: %w", err))
		}
	}
	return errors.Join(errs...)
}

func parsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Limiter tracks one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	config   Config
	trusted  []netip.Prefix
	clients  map[string]*client
	lastSeen time.Time
	now      func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter with the given configuration. Trusted proxy
// entries that do not parse are skipped; Config.Validate reports them.
func New(cfg Config) *Limiter {
	l := &Limiter{
		config:  cfg,
		clients: make(map[string]*client),
		now:     time.Now,
	}
	for _, p := range cfg.TrustedProxies {
		if prefix, err := parsePrefix(p); err == nil {
			l.trusted = append(l.trusted, prefix)
		}
	}
	return l
}

// Allow reports whether a request from key may proceed, consuming a token
// if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSeen) > idleTTL {
		l.evictIdle(now)
		l.lastSeen = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *Limiter) evictIdle(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > idleTTL {
			delete(l.clients, key)
		}
	}
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) retryAfter() string {
	if l.config.RequestsPerSecond <= 0 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(1 / l.config.RequestsPerSecond)))
}

// Middleware returns HTTP middleware that applies rate limiting. keyFunc
// extracts the client key; an empty key bypasses the limiter.
func (l *Limiter) Middleware(keyFunc func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !l.Allow(key) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", l.retryAfter())
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = fmt.Fprint(w, `{"success":false,"error":"Too many requests. Please slow down."}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by client IP. X-Forwarded-For is read only when
// the peer is a trusted proxy; the key is then the nearest hop that is not
// itself trusted.
func (l *Limiter) ClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !l.isTrusted(peer) {
		return peer
	}

	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !l.isTrusted(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return peer
}

func (l *Limiter) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

package memory

import (
	"context"
	"sync"
)

// Window implements Store in process memory with FIFO eviction.
type Window struct {
	mu           sync.Mutex
	maxExchanges int
	sessions     map[string][]Exchange
}

// NewWindow creates an in-memory store that keeps the most recent
// MaxExchanges exchanges of every session.
func NewWindow() *Window {
	return &Window{
		maxExchanges: MaxExchanges,
		sessions:     make(map[string][]Exchange),
	}
}

// History returns a copy of the session history, creating an empty entry
// for sessions seen for the first time.
func (w *Window) History(_ context.Context, sessionID string) ([]Exchange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	exchanges, ok := w.sessions[sessionID]
	if !ok {
		w.sessions[sessionID] = nil
		return []Exchange{}, nil
	}
	result := make([]Exchange, len(exchanges))
	copy(result, exchanges)
	return result, nil
}

// Peek returns a copy of the session history without creating an entry.
func (w *Window) Peek(_ context.Context, sessionID string) ([]Exchange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	exchanges := w.sessions[sessionID]
	result := make([]Exchange, len(exchanges))
	copy(result, exchanges)
	return result, nil
}

// Append adds an exchange and evicts the oldest when the window is exceeded.
func (w *Window) Append(_ context.Context, sessionID string, exchange Exchange) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	existing := append(w.sessions[sessionID], exchange)

	// Evict from the front if over limit; copy so the evicted prefix can be collected.
	if len(existing) > w.maxExchanges {
		trimmed := make([]Exchange, w.maxExchanges)
		copy(trimmed, existing[len(existing)-w.maxExchanges:])
		existing = trimmed
	}

	w.sessions[sessionID] = existing
	return nil
}

// Clear removes the session entry entirely.
func (w *Window) Clear(_ context.Context, sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, sessionID)
	return nil
}

// Len returns the number of sessions currently held.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions)
}

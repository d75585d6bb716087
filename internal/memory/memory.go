// Package memory stores the rolling conversation history of each chat session.
package memory

import (
	"context"
	"time"
)

// MaxExchanges is the number of exchanges retained per session.
const MaxExchanges = 10

// Exchange is one recorded user message and the reply it received.
type Exchange struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Timestamp time.Time `json:"timestamp"`
}

// Store manages conversation history keyed by session ID.
type Store interface {
	// History returns the session's exchanges, oldest first. A session
	// that has never been seen yields an empty history.
	History(ctx context.Context, sessionID string) ([]Exchange, error)

	// Peek returns the session's exchanges like History but leaves
	// unknown sessions absent.
	Peek(ctx context.Context, sessionID string) ([]Exchange, error)

	// Append adds an exchange to the end of the session history and
	// evicts the oldest exchanges beyond MaxExchanges.
	Append(ctx context.Context, sessionID string, exchange Exchange) error

	// Clear removes the session's history. Clearing an unknown session
	// is not an error.
	Clear(ctx context.Context, sessionID string) error
}

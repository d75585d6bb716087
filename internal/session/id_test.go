package session

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if !strings.HasPrefix(id, "sess_") {
			t.Fatalf("NewID() = %q, want sess_ prefix", id)
		}
		if !validID(id) {
			t.Fatalf("NewID() = %q is not a valid id", id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestValidID(t *testing.T) {
	tests := map[string]bool{
		"":                            false,
		"sess_":                       false,
		"sess_short":                  false,
		"tr_AAAAAAAAAAAAAAAAAAAAAA":   false,
		"sess_AAAAAAAAAAAAAAAAAAAAAA": true,
		"sess_AAAAAAAAAAAAAAAAAAAA+A": false,
	}
	for id, want := range tests {
		if got := validID(id); got != want {
			t.Errorf("validID(%q) = %v, want %v", id, got, want)
		}
	}
}

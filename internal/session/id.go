package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const idPrefix = "sess_"

// NewID creates a cryptographically random session ID with 128 bits of
// entropy. The ID is prefixed with "sess_" and uses URL-safe base64
// encoding (no padding) for the random component.
func NewID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return idPrefix + base64.RawURLEncoding.EncodeToString(b)
}

// validID reports whether id has the shape produced by NewID.
func validID(id string) bool {
	raw, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return false
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	return err == nil && len(b) == 16
}

// Package secrets resolves credential references from configuration and
// keeps resolved credentials out of log output.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Resolve expands a reference of the form "env(VAR_NAME)" to the value of
// that environment variable. Any other value is returned unchanged so that
// configuration may carry a literal credential.
func Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !IsReference(ref) {
		return ref, nil
	}

	name := strings.TrimSpace(ref[len("env(") : len(ref)-1])
	if name == "" {
		return "", fmt.Errorf("secret reference %q names no variable", ref)
	}
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("environment variable %q not set", name)
	}
	return value, nil
}

// IsReference reports whether s is an env() reference rather than a literal.
func IsReference(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "env(") && strings.HasSuffix(s, ")")
}

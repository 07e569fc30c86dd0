package util

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (caller API keys and upstream tokens). Kept
	// broad: tokens show up in logs via HTTP error messages from the
	// inference provider.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|scorer[_-]?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// Gemini keys have a recognizable prefix; scrub them even outside
	// key=value shapes.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{20,}\b`)
)

// RedactSecrets removes obvious secret-bearing substrings from error and log
// strings. Safe to call on any message, including fallback justifications
// built from upstream error text.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}

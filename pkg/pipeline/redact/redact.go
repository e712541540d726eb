package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	secretKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|pass(word)?|secret)\b\s*[:=]\s*[^\s"']+`)

	// SMTP auth failures can echo the credential line back verbatim.
	smtpAuthRe = regexp.MustCompile(`(?i)\bAUTH\s+PLAIN\s+[A-Za-z0-9+/=]+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = secretKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = smtpAuthRe.ReplaceAllString(out, "AUTH PLAIN <redacted>")
	return strings.TrimSpace(out)
}

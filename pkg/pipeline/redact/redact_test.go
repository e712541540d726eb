package redact_test

import (
	"strings"
	"testing"

	"github.com/leadsmith/leadsmith/pkg/pipeline/redact"
)

func TestSecrets(t *testing.T) {
	cases := []struct {
		in      string
		mustNot string
	}{
		{"request failed: Bearer eyJhbGciOi.payload.sig", "eyJhbGciOi"},
		{"config error: api_key=sk-live-123456", "sk-live-123456"},
		{"smtp: 535 after AUTH PLAIN dXNlcjpwYXNz", "dXNlcjpwYXNz"},
		{"dial failed: password=hunter2", "hunter2"},
	}
	for _, c := range cases {
		got := redact.Secrets(c.in)
		if strings.Contains(got, c.mustNot) {
			t.Fatalf("Secrets(%q) = %q, still contains %q", c.in, got, c.mustNot)
		}
	}

	if got := redact.Secrets("plain connection refused"); got != "plain connection refused" {
		t.Fatalf("unexpected rewrite of clean string: %q", got)
	}
}

package extract_test

import (
	"os"
	"slices"
	"testing"

	"github.com/leadsmith/leadsmith/internal/extract"
)

func TestEmails_KeepsRealDropsTelemetry(t *testing.T) {
	t.Parallel()

	e := &extract.Extractor{}
	html := `<html><body>
		Reach us at person@acme.com.
		<script>window.__dsn = "a1b2c3@o12345.ingest.sentry.io";</script>
		errors go to support@sentry.io
	</body></html>`

	got := e.Emails(html)
	if !slices.Equal(got, []string{"person@acme.com"}) {
		t.Fatalf("unexpected survivors: %#v", got)
	}
}

func TestEmails_DenyCategories(t *testing.T) {
	t.Parallel()

	e := &extract.Extractor{}
	denied := []string{
		"noreply@wixpress.com",                 // telemetry/hosting vendor
		"module@polyfill.io",                   // bundler fake domain
		"bundle@lodash.com",                    // bundler fake domain
		"hero@2x300.png",                       // image asset pseudo-address
		"logo-v2@3x-600x400.png",               // versioned image asset
		"banner@120x80.jpeg",                   // image asset pseudo-address
		"icon@64x64.png.webp",                  // webp-suffixed asset
		"v@1.2.3",                              // dotted-numeric domain
		"contact@IASC.example.com",             // literal false positive
		"Mesa-de-trabajo@example.com",          // literal false positive
	}
	for _, addr := range denied {
		html := "before " + addr + " after, plus keeper@real.example"
		got := e.Emails(html)
		if slices.Contains(got, addr) {
			t.Fatalf("deny list missed %q: %#v", addr, got)
		}
	}
}

func TestEmails_Idempotent(t *testing.T) {
	t.Parallel()

	e := &extract.Extractor{}
	html := `<p>a@x.example b@y.example a@x.example SALES@X.EXAMPLE</p>`

	first := e.Emails(html)
	second := e.Emails(html)
	if !slices.Equal(first, second) {
		t.Fatalf("not idempotent: %#v vs %#v", first, second)
	}
	if !slices.Equal(first, []string{"a@x.example", "b@y.example", "sales@x.example"}) {
		t.Fatalf("unexpected set: %#v", first)
	}
}

func TestEmails_MailtoAnchors(t *testing.T) {
	t.Parallel()

	e := &extract.Extractor{}
	html := `<a href="mailto:hello%40studio.example?subject=Hi">write us</a>`

	got := e.Emails(html)
	if !slices.Equal(got, []string{"hello@studio.example"}) {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestEmails_NothingSurvives(t *testing.T) {
	t.Parallel()

	e := &extract.Extractor{}
	if got := e.Emails("<html>just markup, img@2x64.png only</html>"); len(got) != 0 {
		t.Fatalf("expected empty set, got %#v", got)
	}
}

func TestParseRules_RejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := extract.ParseRules([]byte("rules:\n  - category: broken\n    patterns: ['[']\n"))
	if err == nil {
		t.Fatal("expected compile error")
	}
}

func TestLoadRules_FromFile(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/rules.yml"
	if err := os.WriteFile(path, []byte("rules:\n  - category: custom\n    patterns: ['spam\\.example']\n"), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rs, err := extract.LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected 1 rule, got %d", rs.Len())
	}
	if cat, denied := rs.Deny("bot@spam.example"); !denied || cat != "custom" {
		t.Fatalf("expected custom deny, got %q %t", cat, denied)
	}

	e := &extract.Extractor{Rules: rs}
	got := e.Emails("bot@spam.example ok@fine.example")
	if !slices.Equal(got, []string{"ok@fine.example"}) {
		t.Fatalf("unexpected survivors: %#v", got)
	}
}

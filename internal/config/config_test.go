package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leadsmith/leadsmith/internal/config"
)

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
search:
  page_delay_seconds: 2
  max_pages: 4
crawl:
  workers: 3
smtp:
  host: relay.corp.example
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PageDelay() != 2*time.Second {
		t.Fatalf("page delay = %s", cfg.PageDelay())
	}
	if cfg.Search.MaxPages != 4 || cfg.Crawl.Workers != 3 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.SMTP.Host != "relay.corp.example" || cfg.SMTP.Port != 587 {
		t.Fatalf("smtp defaults not preserved: %#v", cfg.SMTP)
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	if cfg.PageDelay() != 5*time.Second {
		t.Fatalf("default page delay = %s, want 5s", cfg.PageDelay())
	}
	if cfg.SMTP.Host != "smtp.gmail.com" || cfg.SMTP.Port != 587 {
		t.Fatalf("unexpected smtp defaults: %#v", cfg.SMTP)
	}
}

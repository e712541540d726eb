package gemini_test

import (
	"context"
	"strings"
	"testing"

	"github.com/leadsmith/leadsmith/internal/textgen/gemini"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := gemini.New(context.Background(), gemini.Config{Model: "gemini-2.0-flash"})
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected API key error, got %v", err)
	}
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := gemini.New(context.Background(), gemini.Config{APIKey: "test-key"})
	if err == nil || !strings.Contains(err.Error(), "GEMINI_MODEL") {
		t.Fatalf("expected model error, got %v", err)
	}
}

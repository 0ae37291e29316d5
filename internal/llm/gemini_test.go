package llm

import (
	"context"
	"testing"
)

func TestNewGeminiRequiresAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		_, err := NewGemini(context.Background(), key, "")
		if err != ErrMissingAPIKey {
			t.Errorf("NewGemini(%q) error = %v, want %v", key, err, ErrMissingAPIKey)
		}
	}
}

func TestNewGeminiDefaultModel(t *testing.T) {
	g, err := NewGemini(context.Background(), "test-key", "")
	if err != nil {
		t.Fatalf("NewGemini() unexpected error: %v", err)
	}
	if g.Model() != DefaultGeminiModel {
		t.Errorf("Model() = %q, want %q", g.Model(), DefaultGeminiModel)
	}
}

func TestGeminiGenerateRejectsEmptyPrompt(t *testing.T) {
	g, err := NewGemini(context.Background(), "test-key", "gemini-test")
	if err != nil {
		t.Fatalf("NewGemini() unexpected error: %v", err)
	}

	if _, err := g.Generate(context.Background(), " \n"); err != ErrEmptyPrompt {
		t.Errorf("Generate() error = %v, want %v", err, ErrEmptyPrompt)
	}
}

func TestProviderFunc(t *testing.T) {
	var p Provider = ProviderFunc(func(_ context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	})

	got, err := p.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if got != "echo: hi" {
		t.Errorf("Generate() = %q, want %q", got, "echo: hi")
	}
}

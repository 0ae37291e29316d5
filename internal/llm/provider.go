package llm

import (
	"context"
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("llm: api key is required")
	ErrEmptyPrompt   = errors.New("llm: prompt is empty")
)

// Provider produces a completion for a plain-text prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

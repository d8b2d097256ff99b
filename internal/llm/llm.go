// Package llm wraps the text-generation providers behind a single interface.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Options is the fixed sampling configuration sent with every request.
type Options struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

var DefaultOptions = Options{
	Temperature:     0.8,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 1024,
}

type Settings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Options    Options
	HTTPClient *http.Client
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// StatusError reports a non-success HTTP status from the provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// New builds the generator named by s.Provider.
func New(ctx context.Context, s Settings) (Generator, error) {
	if s.Options == (Options{}) {
		s.Options = DefaultOptions
	}
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderGemini:
		return NewGemini(ctx, s)
	case ProviderOpenAI:
		return NewOpenAI(s)
	case ProviderMock:
		return Mock{}, nil
	default:
		return nil, fmt.Errorf("llm provider %q not supported", s.Provider)
	}
}

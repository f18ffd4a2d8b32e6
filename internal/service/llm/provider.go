// Package llm adapts the supported model backends to one outline-drafting
// contract.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

// Kind names a backend family as it appears in the provider form field.
type Kind string

const (
	KindOpenAI    Kind = "openai"
	KindGemini    Kind = "gemini"
	KindOllama    Kind = "ollama"
	KindAnthropic Kind = "anthropic"
)

// Kinds lists every supported backend in display order.
var Kinds = []Kind{KindOpenAI, KindGemini, KindOllama, KindAnthropic}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidProvider, "invalid provider")
}

// NeedsCredential reports whether calls to this backend require an API key.
func (k Kind) NeedsCredential() bool {
	return k != KindOllama
}

// Provider is implemented once per backend family.
type Provider interface {
	Kind() Kind
	ListModels(ctx context.Context) ([]string, error)
	GenerateOutline(ctx context.Context, req *Request) (string, error)
}

type OllamaOptions struct {
	DefaultURL  string
	Binary      string
	ListTimeout time.Duration
	TagsTimeout time.Duration
	// GenerateTimeout bounds silence on the stream, not its total length.
	GenerateTimeout time.Duration
	MaxAttempts     int
	RetryDelay      time.Duration
}

// Options holds process-wide backend settings. Credentials and the daemon
// endpoint are per request and never stored here.
type Options struct {
	OpenAIBaseURL    string
	GeminiBaseURL    string
	AnthropicBaseURL string
	HTTPTimeout      time.Duration
	Ollama           OllamaOptions
}

func DefaultOptions() Options {
	return Options{
		OpenAIBaseURL:    "https://api.openai.com/v1/",
		GeminiBaseURL:    "https://generativelanguage.googleapis.com",
		AnthropicBaseURL: "https://api.anthropic.com/",
		HTTPTimeout:      120 * time.Second,
		Ollama: OllamaOptions{
			DefaultURL:      DefaultOllamaURL,
			Binary:          "ollama",
			ListTimeout:     15 * time.Second,
			TagsTimeout:     10 * time.Second,
			GenerateTimeout: 120 * time.Second,
			MaxAttempts:     3,
			RetryDelay:      2 * time.Second,
		},
	}
}

// New builds the adapter for kind. apiKey is ignored for ollama; endpoint is
// only used by ollama and falls back to the default local address.
func New(kind Kind, apiKey, endpoint string, opts Options, log *logger.Logger) (Provider, error) {
	if kind.NeedsCredential() && strings.TrimSpace(apiKey) == "" {
		return nil, errors.New(errors.ErrCodeInvalidReq, fmt.Sprintf("api key is required for provider %s", kind))
	}

	switch kind {
	case KindOpenAI:
		return newOpenAIProvider(apiKey, opts, log), nil
	case KindGemini:
		return newGeminiProvider(apiKey, opts, log), nil
	case KindAnthropic:
		return newAnthropicProvider(apiKey, opts, log), nil
	case KindOllama:
		return newOllamaProvider(endpoint, opts.Ollama, log), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidProvider, "invalid provider")
	}
}

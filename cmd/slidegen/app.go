package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CHuiV123/slidegen/internal/infra/config"
	"github.com/CHuiV123/slidegen/internal/infra/limiter"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/internal/service/background"
	"github.com/CHuiV123/slidegen/internal/service/deck"
	"github.com/CHuiV123/slidegen/internal/service/llm"
	"github.com/CHuiV123/slidegen/internal/service/orchestrator"
	"github.com/CHuiV123/slidegen/internal/service/storage"
)

type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store *storage.Service
	orch  *orchestrator.Orchestrator
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	lim := limiter.New(cfg.Limiter.MaxConcurrent, cfg.Limiter.RatePerSecond)

	backgrounds := background.New(cfg.Storage.TempDir, log).WithMaxPixels(cfg.Storage.MaxBackgroundPixels)
	renderer := deck.NewPPTXRenderer(log)
	store := storage.New(cfg.Storage.OutputDir, log)

	orch := orchestrator.New(providerOptions(cfg), backgrounds, renderer, store, lim, log)

	return &app{cfg: cfg, log: log, store: store, orch: orch}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}

// providerOptions maps configuration onto adapter options, keeping the
// built-in default for anything left unset.
func providerOptions(cfg *config.Config) llm.Options {
	opts := llm.DefaultOptions()
	p := cfg.Providers

	if p.OpenAI.BaseURL != "" {
		opts.OpenAIBaseURL = p.OpenAI.BaseURL
	}
	if p.Gemini.BaseURL != "" {
		opts.GeminiBaseURL = p.Gemini.BaseURL
	}
	if p.Anthropic.BaseURL != "" {
		opts.AnthropicBaseURL = p.Anthropic.BaseURL
	}
	if cfg.HTTPClient.TimeoutSeconds > 0 {
		opts.HTTPTimeout = seconds(cfg.HTTPClient.TimeoutSeconds)
	}

	o := p.Ollama
	if o.DefaultURL != "" {
		opts.Ollama.DefaultURL = o.DefaultURL
	}
	if o.Binary != "" {
		opts.Ollama.Binary = o.Binary
	}
	if o.ListTimeoutSeconds > 0 {
		opts.Ollama.ListTimeout = seconds(o.ListTimeoutSeconds)
	}
	if o.TagsTimeoutSeconds > 0 {
		opts.Ollama.TagsTimeout = seconds(o.TagsTimeoutSeconds)
	}
	if o.GenerateTimeoutSeconds > 0 {
		opts.Ollama.GenerateTimeout = seconds(o.GenerateTimeoutSeconds)
	}
	if o.MaxAttempts > 0 {
		opts.Ollama.MaxAttempts = o.MaxAttempts
	}
	if o.RetryDelaySeconds > 0 {
		opts.Ollama.RetryDelay = seconds(o.RetryDelaySeconds)
	}
	return opts
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// apiKeyFor falls back to the conventional environment variable of a hosted
// backend when no key was passed on the command line.
func apiKeyFor(provider, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	switch llm.Kind(strings.ToLower(provider)) {
	case llm.KindOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case llm.KindGemini:
		return os.Getenv("GEMINI_API_KEY")
	case llm.KindAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

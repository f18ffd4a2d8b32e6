package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Limiter    LimiterConfig    `yaml:"limiter"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Storage    StorageConfig    `yaml:"storage"`
	CORS       CORSConfig       `yaml:"cors"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr" env:"SLIDEGEN_SERVER_ADDR"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds" env:"SLIDEGEN_SERVER_READ_TIMEOUT_SECONDS"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds" env:"SLIDEGEN_SERVER_WRITE_TIMEOUT_SECONDS"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"SLIDEGEN_LOG_LEVEL"`
	Format string `yaml:"format" env:"SLIDEGEN_LOG_FORMAT"`
}

// HTTPClientConfig applies to hosted backends reached over plain REST.
type HTTPClientConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"SLIDEGEN_HTTP_TIMEOUT_SECONDS"`
}

type LimiterConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent" env:"SLIDEGEN_LIMITER_MAX_CONCURRENT"`
	RatePerSecond float64 `yaml:"rate_per_second" env:"SLIDEGEN_LIMITER_RATE_PER_SECOND"`
}

type ProvidersConfig struct {
	OpenAI    HostedConfig `yaml:"openai"`
	Gemini    HostedConfig `yaml:"gemini"`
	Anthropic HostedConfig `yaml:"anthropic"`
	Ollama    OllamaConfig `yaml:"ollama"`
}

// HostedConfig only carries endpoints; credentials arrive with each request.
type HostedConfig struct {
	BaseURL string `yaml:"base_url"`
}

type OllamaConfig struct {
	DefaultURL             string `yaml:"default_url" env:"OLLAMA_DEFAULT_URL"`
	Binary                 string `yaml:"binary" env:"OLLAMA_BINARY"`
	ListTimeoutSeconds     int    `yaml:"list_timeout_seconds"`
	TagsTimeoutSeconds     int    `yaml:"tags_timeout_seconds"`
	GenerateTimeoutSeconds int    `yaml:"generate_timeout_seconds"`
	MaxAttempts            int    `yaml:"max_attempts"`
	RetryDelaySeconds      int    `yaml:"retry_delay_seconds"`
}

type StorageConfig struct {
	OutputDir string `yaml:"output_dir" env:"SLIDEGEN_OUTPUT_DIR"`
	TempDir   string `yaml:"temp_dir" env:"SLIDEGEN_TEMP_DIR"`
	// MaxBackgroundPixels rejects uploaded backgrounds above width*height.
	MaxBackgroundPixels int64 `yaml:"max_background_pixels" env:"SLIDEGEN_MAX_BACKGROUND_PIXELS"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" env:"SLIDEGEN_CORS_ALLOW_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	return LoadFile(configPath)
}

// LoadFile reads path over the defaults (a missing file is not an error)
// and then applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                "127.0.0.1:8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTPClient: HTTPClientConfig{
			TimeoutSeconds: 120,
		},
		Limiter: LimiterConfig{
			MaxConcurrent: 4,
			RatePerSecond: 2,
		},
		Providers: ProvidersConfig{
			OpenAI:    HostedConfig{BaseURL: "https://api.openai.com/v1/"},
			Gemini:    HostedConfig{BaseURL: "https://generativelanguage.googleapis.com"},
			Anthropic: HostedConfig{BaseURL: "https://api.anthropic.com/"},
			Ollama: OllamaConfig{
				DefaultURL:             "http://localhost:11434",
				Binary:                 "ollama",
				ListTimeoutSeconds:     15,
				TagsTimeoutSeconds:     10,
				GenerateTimeoutSeconds: 120,
				MaxAttempts:            3,
				RetryDelaySeconds:      2,
			},
		},
		Storage: StorageConfig{
			OutputDir:           defaultDownloadsDir(),
			TempDir:             ".",
			MaxBackgroundPixels: 25_000_000,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Providers.OpenAI.BaseURL = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.Providers.Gemini.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		cfg.Providers.Anthropic.BaseURL = v
	}
	return nil
}

func defaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultEndpoint       = "http://localhost:8000/classify"
	DefaultMaxUploadBytes = 10 * 1024 * 1024
	DefaultPort           = "8888"

	LabelSourcePlaceholder = "placeholder"
	LabelSourceResponse    = "response"

	ProviderEndpoint = "endpoint"
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
)

// Config holds runtime settings. Values come from the environment (and .env),
// and cobra flags may override them afterwards.
type Config struct {
	Endpoint       string
	LabelSource    string
	Provider       string
	Model          string
	UploadTimeout  time.Duration
	MaxUploadBytes int64
	Port           string
	GeminiAPIKey   string
	OllamaURL      string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Endpoint:     envOr("STICKER_ENDPOINT", DefaultEndpoint),
		LabelSource:  envOr("STICKER_LABEL_SOURCE", LabelSourcePlaceholder),
		Provider:     envOr("STICKER_PROVIDER", ProviderEndpoint),
		Model:        os.Getenv("STICKER_MODEL"),
		Port:         envOr("PORT", DefaultPort),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		OllamaURL:    envOr("OLLAMA_URL", envOr("OLLAMA_HOST", "http://localhost:11434")),
	}

	if v := os.Getenv("STICKER_UPLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STICKER_UPLOAD_TIMEOUT %q: %w", v, err)
		}
		cfg.UploadTimeout = d
	}

	cfg.MaxUploadBytes = DefaultMaxUploadBytes
	if v := os.Getenv("STICKER_MAX_UPLOAD"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid STICKER_MAX_UPLOAD %q: %w", v, err)
		}
		cfg.MaxUploadBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.LabelSource {
	case LabelSourcePlaceholder, LabelSourceResponse:
	default:
		return fmt.Errorf("unsupported label source: %s", c.LabelSource)
	}

	switch c.Provider {
	case ProviderEndpoint, ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadBytes)
	}

	if c.LabelSource == LabelSourceResponse {
		slog.Warn("Labels will be read from the classifier response instead of the placeholder set")
	}
	return nil
}

// DefaultModel returns the model for the configured provider.
func (c *Config) DefaultModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderGemini:
		return "gemini-1.5-flash"
	case ProviderOllama:
		return "llava:13b"
	default:
		return ""
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

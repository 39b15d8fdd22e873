package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/amendment-desk/internal/common"
	"github.com/Veraticus/amendment-desk/internal/llm"
	"github.com/spf13/viper"
)

// Config is the typed application configuration.
type Config struct {
	Logging   LoggingConfig
	Database  DatabaseConfig
	Voice     VoiceConfig
	NATS      NATSConfig
	Generator GeneratorConfig
	LLM       llm.Config
	Wizard    WizardConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// LoggingConfig configures slog. File is used by full-screen modes.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// VoiceConfig selects the speech source.
type VoiceConfig struct {
	Source        string
	SilenceWindow time.Duration
}

// GeneratorConfig selects how addendum content is produced.
type GeneratorConfig struct {
	Backend         string
	OpenTimeout     time.Duration
	TripThreshold   uint32
	FallbackOnError bool
}

// WizardConfig bounds the wizard's asynchronous units.
type WizardConfig struct {
	Actor             string
	GenerationTimeout time.Duration
	SubmissionTimeout time.Duration
}

// NATSConfig configures the submitted-addendum announcement.
type NATSConfig struct {
	URL        string
	Subject    string
	ClientName string
	Timeout    time.Duration
	Enabled    bool
}

// TelemetryConfig toggles tracing and metrics export.
type TelemetryConfig struct {
	Tracing bool
	Metrics bool
}

// Generator backends.
const (
	BackendTemplate = "template"
	BackendLLM      = "llm"
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/amend/amend.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "~/.local/state/amend/amend.log")

	v.SetDefault("voice.source", "")
	v.SetDefault("voice.silence_window", 3*time.Second)

	v.SetDefault("generator.backend", BackendTemplate)
	v.SetDefault("generator.fallback_on_error", false)
	v.SetDefault("generator.trip_threshold", 3)
	v.SetDefault("generator.open_timeout", 30*time.Second)

	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.rate_limit", 30)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)

	v.SetDefault("wizard.actor", "")
	v.SetDefault("wizard.generation_timeout", 60*time.Second)
	v.SetDefault("wizard.submission_timeout", 30*time.Second)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.subject", "amendments.submitted")
	v.SetDefault("nats.client_name", "amend")
	v.SetDefault("nats.timeout", 5*time.Second)

	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.metrics", false)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
			File:   ExpandPath(v.GetString("logging.file")),
		},
		Voice: VoiceConfig{
			Source:        v.GetString("voice.source"),
			SilenceWindow: v.GetDuration("voice.silence_window"),
		},
		Generator: GeneratorConfig{
			Backend:         strings.ToLower(v.GetString("generator.backend")),
			FallbackOnError: v.GetBool("generator.fallback_on_error"),
			TripThreshold:   v.GetUint32("generator.trip_threshold"),
			OpenTimeout:     v.GetDuration("generator.open_timeout"),
		},
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Wizard: WizardConfig{
			Actor:             v.GetString("wizard.actor"),
			GenerationTimeout: v.GetDuration("wizard.generation_timeout"),
			SubmissionTimeout: v.GetDuration("wizard.submission_timeout"),
		},
		NATS: NATSConfig{
			Enabled:    v.GetBool("nats.enabled"),
			URL:        v.GetString("nats.url"),
			Subject:    v.GetString("nats.subject"),
			ClientName: v.GetString("nats.client_name"),
			Timeout:    v.GetDuration("nats.timeout"),
		},
		Telemetry: TelemetryConfig{
			Tracing: v.GetBool("telemetry.tracing"),
			Metrics: v.GetBool("telemetry.metrics"),
		},
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKeyFromEnv(v, cfg.LLM.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// providerKeyFromEnv falls back to the provider's conventional variable.
func providerKeyFromEnv(v *viper.Viper, provider string) string {
	switch provider {
	case "anthropic":
		_ = v.BindEnv("llm.anthropic_key", "ANTHROPIC_API_KEY")
		return v.GetString("llm.anthropic_key")
	case "openai":
		_ = v.BindEnv("llm.openai_key", "OPENAI_API_KEY")
		return v.GetString("llm.openai_key")
	}
	return ""
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level %q", common.ErrInvalidConfig, c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}

	if c.Voice.SilenceWindow <= 0 {
		return fmt.Errorf("%w: voice.silence_window must be positive", common.ErrInvalidConfig)
	}
	if c.Wizard.GenerationTimeout <= 0 || c.Wizard.SubmissionTimeout <= 0 {
		return fmt.Errorf("%w: wizard timeouts must be positive", common.ErrInvalidConfig)
	}

	switch c.Generator.Backend {
	case BackendTemplate:
	case BackendLLM:
		switch c.LLM.Provider {
		case "anthropic", "openai":
		default:
			return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
		}
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key is required for the llm generator", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown generator.backend %q", common.ErrInvalidConfig, c.Generator.Backend)
	}

	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("%w: nats.url", common.ErrMissingConfig)
		}
		if c.NATS.Subject == "" {
			return fmt.Errorf("%w: nats.subject", common.ErrMissingConfig)
		}
	}

	return nil
}

// Package config loads agentdesk settings from defaults, an optional JSON file
// and AGENTDESK_* environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "AGENTDESK_"

// Providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOffline   = "offline"
)

// Duration is a time.Duration that reads and writes "60s" style strings in
// JSON files and environment variables.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds every setting.
type Config struct {
	Provider  string `json:"provider" env:"PROVIDER"`
	ModelName string `json:"model" env:"MODEL"`
	APIKey    string `json:"api_key" env:"API_KEY"`

	MaxIterations     int      `json:"max_iterations" env:"MAX_ITERATIONS"`
	CompletionTimeout Duration `json:"completion_timeout" env:"COMPLETION_TIMEOUT"`
	ToolTimeout       Duration `json:"tool_timeout" env:"TOOL_TIMEOUT"`

	SessionMaxIdle Duration `json:"session_max_idle" env:"SESSION_MAX_IDLE"`
	SweepInterval  Duration `json:"sweep_interval" env:"SWEEP_INTERVAL"`

	ListenAddr  string `json:"listen_addr" env:"LISTEN_ADDR"`
	InputFormat string `json:"input_format" env:"INPUT_FORMAT"`
	RateLimit   int    `json:"rate_limit" env:"RATE_LIMIT"` // messages per minute per identity
	RateBurst   int    `json:"rate_burst" env:"RATE_BURST"`

	DatabasePath  string `json:"database_path" env:"DATABASE_PATH"`
	AdminPassword string `json:"admin_password" env:"ADMIN_PASSWORD"`
	FAQPath       string `json:"faq_path" env:"FAQ_PATH"`

	LogLevel  string `json:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" env:"LOG_FORMAT"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		ModelName:         "gpt-4o-mini",
		MaxIterations:     10,
		CompletionTimeout: Duration(60 * time.Second),
		ToolTimeout:       Duration(15 * time.Second),
		SessionMaxIdle:    Duration(24 * time.Hour),
		SweepInterval:     Duration(5 * time.Minute),
		ListenAddr:        ":8080",
		InputFormat:       "json",
		RateLimit:         20,
		RateBurst:         5,
		DatabasePath:      "agentdesk.db",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load returns defaults overlaid with the JSON file at path (skipped when
// path is empty or the file does not exist) and then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	return cfg, nil
}

// Offline reports whether the scripted offline model is selected.
func (c *Config) Offline() bool { return c.Provider == ProviderOffline }

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOffline:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}

	if !c.Offline() {
		if c.APIKey == "" {
			errs = append(errs, fmt.Errorf("api key is required for provider %q", c.Provider))
		}
		if c.ModelName == "" {
			errs = append(errs, errors.New("model is required"))
		}
	}

	switch strings.ToLower(c.InputFormat) {
	case "json", "form":
	default:
		errs = append(errs, fmt.Errorf("unknown input format %q", c.InputFormat))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	positive := []struct {
		name string
		ok   bool
	}{
		{"max_iterations", c.MaxIterations > 0},
		{"completion_timeout", c.CompletionTimeout > 0},
		{"tool_timeout", c.ToolTimeout > 0},
		{"session_max_idle", c.SessionMaxIdle > 0},
		{"sweep_interval", c.SweepInterval > 0},
		{"rate_limit", c.RateLimit > 0},
		{"rate_burst", c.RateBurst > 0},
	}
	for _, p := range positive {
		if !p.ok {
			errs = append(errs, fmt.Errorf("%s must be positive", p.name))
		}
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}

	return nil
}

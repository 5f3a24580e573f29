// Package config loads and validates agent configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all tunable parameters for the agent.
type Config struct {
	// Env selects runtime behavior ("development" or "production").
	Env string `env:"ENV" envDefault:"production"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Port is the HTTP/WebSocket listen port.
	Port string `env:"PORT" envDefault:"8090"`

	// Language is the BCP-47 tag passed to the speech recognizer.
	Language string `env:"SPEECH_LANGUAGE" envDefault:"hi-IN"`

	// ParseURL is the remote item-parsing endpoint. Ignored when a
	// Gemini API key is configured.
	ParseURL string `env:"PARSE_URL"`

	// NameDetectURL is the remote customer-name detection endpoint.
	NameDetectURL string `env:"NAME_DETECT_URL"`

	// GeminiAPIKey enables the bundled Gemini parser when set.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// GeminiModel overrides the default Gemini model name.
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// SpeechWSURL points the streaming recognizer at an external
	// speech-to-text websocket service. When empty, recognition events
	// are expected from a device client on the capture gateway.
	SpeechWSURL string `env:"SPEECH_WS_URL"`

	// BillOutputDir is where generated text receipts are written.
	BillOutputDir string `env:"BILL_OUTPUT_DIR" envDefault:"bills"`

	// FlushDelayMs is the transcript debounce window in milliseconds.
	FlushDelayMs int `env:"FLUSH_DELAY_MS" envDefault:"800"`

	// StopTimeoutMs bounds how long a graceful capture stop may take
	// before the session is force-aborted.
	StopTimeoutMs int `env:"STOP_TIMEOUT_MS" envDefault:"1500"`

	// ParseTimeoutMs is the per-attempt budget for a parse call.
	ParseTimeoutMs int `env:"PARSE_TIMEOUT_MS" envDefault:"8000"`

	// ParseRetries is the number of automatic retries after a failed
	// parse attempt.
	ParseRetries int `env:"PARSE_RETRIES" envDefault:"2"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("SPEECH_LANGUAGE is required")
	}
	if c.GeminiAPIKey == "" && c.ParseURL == "" {
		return fmt.Errorf("either GEMINI_API_KEY or PARSE_URL is required")
	}
	if c.FlushDelayMs <= 0 {
		return fmt.Errorf("FLUSH_DELAY_MS must be positive, got %d", c.FlushDelayMs)
	}
	if c.StopTimeoutMs <= 0 {
		return fmt.Errorf("STOP_TIMEOUT_MS must be positive, got %d", c.StopTimeoutMs)
	}
	if c.ParseTimeoutMs <= 0 {
		return fmt.Errorf("PARSE_TIMEOUT_MS must be positive, got %d", c.ParseTimeoutMs)
	}
	if c.ParseRetries < 0 {
		return fmt.Errorf("PARSE_RETRIES must not be negative, got %d", c.ParseRetries)
	}
	return nil
}

// FlushDelay returns the debounce window as a duration.
func (c *Config) FlushDelay() time.Duration {
	return time.Duration(c.FlushDelayMs) * time.Millisecond
}

// StopTimeout returns the capture stop budget as a duration.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMs) * time.Millisecond
}

// ParseTimeout returns the per-attempt parse budget as a duration.
func (c *Config) ParseTimeout() time.Duration {
	return time.Duration(c.ParseTimeoutMs) * time.Millisecond
}

// IsDevelopment reports whether the agent runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

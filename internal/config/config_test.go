package config

import (
	"testing"
	"time"
)

func valid() *Config {
	return &Config{
		Env:            "development",
		LogLevel:       "debug",
		Port:           "8090",
		Language:       "hi-IN",
		ParseURL:       "http://localhost:9000/api/parse-ai",
		FlushDelayMs:   800,
		StopTimeoutMs:  1500,
		ParseTimeoutMs: 8000,
		ParseRetries:   2,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := valid().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RequiresParserBackend(t *testing.T) {
	cfg := valid()
	cfg.ParseURL = ""
	cfg.GeminiAPIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when neither GEMINI_API_KEY nor PARSE_URL is set")
	}

	cfg.GeminiAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("gemini key alone should satisfy validation, got %v", err)
	}
}

func TestValidate_Durations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero flush delay", func(c *Config) { c.FlushDelayMs = 0 }},
		{"negative stop timeout", func(c *Config) { c.StopTimeoutMs = -1 }},
		{"zero parse timeout", func(c *Config) { c.ParseTimeoutMs = 0 }},
		{"negative retries", func(c *Config) { c.ParseRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := valid()
	if got := cfg.FlushDelay(); got != 800*time.Millisecond {
		t.Errorf("FlushDelay() = %v, want 800ms", got)
	}
	if got := cfg.StopTimeout(); got != 1500*time.Millisecond {
		t.Errorf("StopTimeout() = %v, want 1.5s", got)
	}
	if got := cfg.ParseTimeout(); got != 8*time.Second {
		t.Errorf("ParseTimeout() = %v, want 8s", got)
	}
}

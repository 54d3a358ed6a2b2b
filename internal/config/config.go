package config

import "time"

// Config holds all harness configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	API        APIConfig        `mapstructure:"api" validate:"required"`
	UI         UIConfig         `mapstructure:"ui" validate:"required"`
	Log        LogConfig        `mapstructure:"log" validate:"required"`
	Validation ValidationConfig `mapstructure:"validation" validate:"required"`
}

// APIConfig contains the settings of the Users API under test.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	// RateLimitRPS caps outgoing requests per second; zero disables the limit.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps" validate:"gte=0"`
	// JWTSecret signs a bearer token sent with every request when set.
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
}

// Timeout returns the per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// UIConfig contains the settings of the browser-driven web application.
type UIConfig struct {
	BaseURL            string `mapstructure:"base_url" validate:"omitempty,url"`
	WaitTimeoutSeconds int    `mapstructure:"wait_timeout_seconds" validate:"required,gt=0"`
	Headless           bool   `mapstructure:"headless"`
	ChromePath         string `mapstructure:"chrome_path"`
}

// WaitTimeout returns how long element waits may block.
func (c UIConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ValidationConfig contains defaults applied by the response validator.
type ValidationConfig struct {
	MaxLatencyMS int `mapstructure:"max_latency_ms" validate:"required,gt=0"`
}

// MaxLatency returns the default latency bound for a response.
func (c ValidationConfig) MaxLatency() time.Duration {
	return time.Duration(c.MaxLatencyMS) * time.Millisecond
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/users-qa/internal/ciutil"
	"github.com/phrazzld/users-qa/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "USERSQA"

// DefaultConfigFile is looked up in the working directory and the project
// root when no explicit file is given.
const DefaultConfigFile = "usersqa.yaml"

// legacyEnv lists settings that may still arrive under the names used by
// older pipelines. The first name of each entry is the preferred one.
var legacyEnv = []struct {
	key   string
	names []string
}{
	{"api.base_url", []string{ciutil.EnvAPIBaseURL, ciutil.EnvLegacyAPIBaseURL}},
	{"api.timeout_seconds", []string{ciutil.EnvAPITimeout, ciutil.EnvLegacyAPITimeout}},
	{"ui.base_url", []string{ciutil.EnvUIBaseURL, ciutil.EnvLegacyUIBaseURL}},
	{"ui.wait_timeout_seconds", []string{ciutil.EnvUIWaitTimeout, ciutil.EnvLegacyUIWaitTimeout}},
	{"log.level", []string{ciutil.EnvLogLevelPrefixed, ciutil.EnvLogLevel}},
}

type loadOptions struct {
	configFile string
	logger     *slog.Logger
	overrides  map[string]any
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithConfigFile reads settings from path. A missing file is an error.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithLogger sets the logger used to report legacy variable usage.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = logger }
}

// WithOverride sets key (for example "api.base_url") to value, ahead of
// every other source.
func WithOverride(key string, value any) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]any)
		}
		o.overrides[key] = value
	}
}

// Load configuration from defaults, an optional config file and environment
// variables. Environment variables take precedence over values from config files.
// Returns a populated Config or an error wrapping domain.ErrConfiguration.
func Load(opts ...LoadOption) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}

	for _, legacy := range legacyEnv {
		if val := ciutil.GetEnvWithFallbacks(legacy.names, "", o.logger); val != "" {
			v.Set(legacy.key, val)
		}
	}
	for key, value := range o.overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode configuration: %v", domain.ErrConfiguration, err)
	}

	cfg.API.BaseURL = NormalizeBaseURL(cfg.API.BaseURL)
	cfg.UI.BaseURL = NormalizeBaseURL(cfg.UI.BaseURL)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: validation failed: %v", domain.ErrConfiguration, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout_seconds", 10)
	v.SetDefault("api.rate_limit_rps", 0)
	v.SetDefault("api.jwt_secret", "")
	v.SetDefault("ui.base_url", "")
	v.SetDefault("ui.wait_timeout_seconds", 10)
	v.SetDefault("ui.headless", true)
	v.SetDefault("ui.chrome_path", "")
	v.SetDefault("log.level", ciutil.DefaultLogLevel)
	v.SetDefault("validation.max_latency_ms", 500)
}

func readConfigFile(v *viper.Viper, o loadOptions) error {
	path := o.configFile
	if path == "" {
		found, err := ciutil.FindConfigFile(DefaultConfigFile, o.logger)
		if errors.Is(err, ciutil.ErrConfigFileNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		path = found
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: failed to read config file %s: %v", domain.ErrConfiguration, path, err)
	}
	if o.logger != nil {
		o.logger.Debug("loaded config file", "path", path)
	}
	return nil
}

// NormalizeBaseURL lower-cases a base URL and strips trailing slashes so
// paths can be appended with a single separator.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
}

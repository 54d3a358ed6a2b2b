package ciutil

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Environment variable names read by the harness.
const (
	// CI environment detection variables
	EnvCI               = "CI"
	EnvGitHubActions    = "GITHUB_ACTIONS"
	EnvGitHubWorkspace  = "GITHUB_WORKSPACE"
	EnvGitLabCI         = "GITLAB_CI"
	EnvGitLabProjectDir = "CI_PROJECT_DIR"
	EnvJenkinsURL       = "JENKINS_URL"
	EnvTravisCI         = "TRAVIS"
	EnvCircleCI         = "CIRCLECI"

	// Explicit project root override
	EnvProjectRoot = "USERSQA_PROJECT_ROOT"

	// Preferred names, read through viper with the USERSQA_ prefix
	EnvAPIBaseURL       = "USERSQA_API_BASE_URL"
	EnvAPITimeout       = "USERSQA_API_TIMEOUT_SECONDS"
	EnvUIBaseURL        = "USERSQA_UI_BASE_URL"
	EnvUIWaitTimeout    = "USERSQA_UI_WAIT_TIMEOUT_SECONDS"
	EnvLogLevelPrefixed = "USERSQA_LOG_LEVEL"

	// Legacy names still honoured as fallbacks
	EnvLegacyAPIBaseURL    = "API_BASE_URL"
	EnvLegacyAPITimeout    = "API_TIMEOUT"
	EnvLegacyUIBaseURL     = "BASE_URL"
	EnvLegacyUIWaitTimeout = "UI_WAIT_TIMEOUT"
	EnvLogLevel            = "LOG_LEVEL"

	DefaultLogLevel = "info"
)

// IsCI returns true if the current environment is a CI environment.
// It checks for common CI environment variables across different CI providers.
func IsCI() bool {
	return os.Getenv(EnvCI) != "" ||
		os.Getenv(EnvGitHubActions) != "" ||
		os.Getenv(EnvGitLabCI) != "" ||
		os.Getenv(EnvJenkinsURL) != "" ||
		os.Getenv(EnvTravisCI) != "" ||
		os.Getenv(EnvCircleCI) != ""
}

// IsGitHubActions returns true if the current environment is GitHub Actions.
func IsGitHubActions() bool {
	return os.Getenv(EnvGitHubActions) != "" && os.Getenv(EnvGitHubWorkspace) != ""
}

// IsGitLabCI returns true if the current environment is GitLab CI.
func IsGitLabCI() bool {
	return os.Getenv(EnvGitLabCI) != "" && os.Getenv(EnvGitLabProjectDir) != ""
}

// GetEnvWithFallbacks returns the value of the first non-empty environment variable
// from the provided list. If no environment variables are set, it returns the defaultValue.
//
// A warning is logged when a name other than the first one supplies the value.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Warn("Using legacy environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
					"value", MaskSensitiveValue(val),
				)
			}
			return val
		}
	}
	return defaultValue
}

// MaskSensitiveValue masks credentials embedded in URLs and values that look
// like tokens or keys, so they can be logged.
func MaskSensitiveValue(value string) string {
	if strings.Contains(value, "://") && strings.Contains(value, "@") {
		if u, err := url.Parse(value); err == nil && u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword {
				u.User = url.UserPassword(u.User.Username(), "****")
				return strings.Replace(u.String(), "%2A%2A%2A%2A", "****", 1)
			}
		}
	}

	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "bearer ") {
		return value[:len("bearer ")] + "****"
	}

	if len(value) > 8 && (strings.Contains(lower, "key") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "secret")) {
		return value[:4] + "****" + value[len(value)-4:]
	}

	return value
}

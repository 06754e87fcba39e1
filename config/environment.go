package config

import (
	"os"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
	environmentStaging     = "staging"
)

var environmentAliases = map[string]string{
	"dev":  environmentDevelopment,
	"prod": environmentProduction,
	"stag": environmentStaging,
}

// envConfigPaths lists the per-environment files that replace
// DefaultConfigPath when APP_ENV selects them.
var envConfigPaths = map[string]string{
	environmentDevelopment: "config/config.development.yml",
	environmentProduction:  "config/config.production.yml",
	environmentStaging:     "config/config.staging.yml",
}

// AppEnvironment reads APP_ENV, normalised through the alias table. It
// defaults to development.
func AppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// ResolvePath returns the environment specific configuration file when the
// caller asked for the default path and one exists for APP_ENV. Explicit
// paths are returned unchanged.
func ResolvePath(path string) string {
	if path == "" {
		path = DefaultConfigPath
	}
	if path != DefaultConfigPath {
		return path
	}
	if envPath, ok := envConfigPaths[AppEnvironment()]; ok {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	return path
}

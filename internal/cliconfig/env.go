package cliconfig

import (
	"os"
	"strconv"
)

// Environment variables recognized by the CLI. DOCKER_HOST is honored
// for compatibility with existing tooling; DOCKHAND_HOST wins when
// both are set.
const (
	EnvHost          = "DOCKHAND_HOST"
	EnvDockerHost    = "DOCKER_HOST"
	EnvAPIVersion    = "DOCKHAND_API_VERSION"
	EnvCallTimeoutMS = "DOCKHAND_CALL_TIMEOUT_MS"
	EnvLogLevel      = "DOCKHAND_LOG_LEVEL"
)

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDockerHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvAPIVersion); v != "" {
		cfg.APIVersion = v
	}
	if v := os.Getenv(EnvCallTimeoutMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.CallTimeoutMS = ms
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

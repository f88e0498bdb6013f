// Package cliconfig resolves CLI defaults from rc files and the
// environment. Merge order: built-in defaults, then the global config
// file, then the local rc file, then environment variables.
package cliconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// LocalConfigFileName is looked up in the working directory.
	LocalConfigFileName = ".dockhandrc.json"
	// GlobalConfigDir under os.UserConfigDir.
	GlobalConfigDir = "dockhand"
	// GlobalConfigFileName inside GlobalConfigDir.
	GlobalConfigFileName = "config.json"

	// DefaultHost is used when nothing else names an engine endpoint.
	DefaultHost = "unix:///var/run/docker.sock"
)

// Config holds CLI-level defaults.
type Config struct {
	// Host is the engine connection URI.
	Host string `json:"host,omitempty"`
	// APIVersion pins the engine API version; empty means latest.
	APIVersion string `json:"apiVersion,omitempty"`
	// CallTimeoutMS bounds each invocation, in milliseconds. Zero
	// means unbounded.
	CallTimeoutMS int `json:"callTimeoutMs,omitempty"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `json:"logLevel,omitempty"`
}

// ConfigError reports a malformed config file with its location.
type ConfigError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Path, e.Message, e.Line, e.Column)
	}
	return e.Path + ": " + e.Message
}

// Load resolves the effective config.
func Load() (*Config, error) {
	cfg := &Config{Host: DefaultHost, LogLevel: "info"}

	if path := globalConfigPath(); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if path := localConfigPath(); path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func localConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	path := filepath.Join(cwd, LocalConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func globalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(configDir, GlobalConfigDir, GlobalConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// mergeFile overlays the values set in the file at path onto cfg.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var layer Config
	if err := json.Unmarshal(data, &layer); err != nil {
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			line, col := lineColumn(data, syntaxErr.Offset)
			return &ConfigError{Path: path, Line: line, Column: col, Message: syntaxErr.Error()}
		}
		return &ConfigError{Path: path, Message: err.Error()}
	}
	if layer.Host != "" {
		cfg.Host = layer.Host
	}
	if layer.APIVersion != "" {
		cfg.APIVersion = layer.APIVersion
	}
	if layer.CallTimeoutMS != 0 {
		cfg.CallTimeoutMS = layer.CallTimeoutMS
	}
	if layer.LogLevel != "" {
		cfg.LogLevel = layer.LogLevel
	}
	return nil
}

// lineColumn converts a byte offset into 1-based line and column.
func lineColumn(data []byte, offset int64) (int, int) {
	line, col := 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

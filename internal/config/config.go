// Package config loads heliocanvas settings from TOML or YAML files,
// applies HELIOCANVAS_* environment overrides, and watches the file for
// live reload.
package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds all settings.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	Keys    KeysConfig    `toml:"keys" yaml:"keys"`
	Script  ScriptConfig  `toml:"script" yaml:"script"`
}

// HistoryConfig configures the undo/redo history.
type HistoryConfig struct {
	// MaxCommands is the capacity of each of the undo and redo stacks.
	MaxCommands int `toml:"max_commands" yaml:"max_commands"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// StoreConfig configures the autosave database. An empty Path disables it.
type StoreConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// MetricsConfig configures the prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// KeysConfig holds the key bindings for history navigation, such as
// "Ctrl+Z" or "Meta+Shift+Z".
type KeysConfig struct {
	Undo []string `toml:"undo" yaml:"undo"`
	Redo []string `toml:"redo" yaml:"redo"`
}

// ScriptConfig limits Lua scripts.
type ScriptConfig struct {
	// Timeout bounds a single script run, in time.ParseDuration form.
	Timeout      string `toml:"timeout" yaml:"timeout"`
	CallStack    int    `toml:"call_stack" yaml:"call_stack"`
	RegistrySize int    `toml:"registry_size" yaml:"registry_size"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		History: HistoryConfig{MaxCommands: 100},
		Log:     LogConfig{Level: "info", Format: FormatConsole},
		Metrics: MetricsConfig{Namespace: "heliocanvas"},
		Keys: KeysConfig{
			Undo: []string{"Ctrl+Z", "Meta+Z"},
			Redo: []string{"Ctrl+Shift+Z", "Meta+Shift+Z", "Ctrl+Y", "Meta+Y"},
		},
		Script: ScriptConfig{
			Timeout:      "5s",
			CallStack:    120,
			RegistrySize: 1024 * 20,
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.History.MaxCommands <= 0 {
		return &ValidationError{Field: "history.max_commands", Message: fmt.Sprintf("must be positive, got %d", c.History.MaxCommands)}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Message: err.Error()}
	}
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return &ValidationError{Field: "metrics.namespace", Message: "required when metrics are enabled"}
	}
	if len(c.Keys.Undo) == 0 {
		return &ValidationError{Field: "keys.undo", Message: "at least one binding required"}
	}
	if len(c.Keys.Redo) == 0 {
		return &ValidationError{Field: "keys.redo", Message: "at least one binding required"}
	}
	if d, err := time.ParseDuration(c.Script.Timeout); err != nil || d <= 0 {
		return &ValidationError{Field: "script.timeout", Message: fmt.Sprintf("invalid duration %q", c.Script.Timeout)}
	}
	if c.Script.CallStack <= 0 || c.Script.RegistrySize <= 0 {
		return &ValidationError{Field: "script", Message: "call_stack and registry_size must be positive"}
	}
	return nil
}

// ScriptTimeout returns Script.Timeout as a duration. It assumes the
// config has been validated.
func (c *Config) ScriptTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Script.Timeout)
	return d
}

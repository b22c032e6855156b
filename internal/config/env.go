package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HELIOCANVAS_"

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg from HELIOCANVAS_* variables:
//
//	HELIOCANVAS_MAX_COMMANDS       history.max_commands
//	HELIOCANVAS_LOG_LEVEL          log.level
//	HELIOCANVAS_LOG_FORMAT         log.format
//	HELIOCANVAS_DB                 store.path
//	HELIOCANVAS_METRICS            metrics.enabled
//	HELIOCANVAS_METRICS_NAMESPACE  metrics.namespace
//	HELIOCANVAS_UNDO_KEYS          keys.undo (comma separated)
//	HELIOCANVAS_REDO_KEYS          keys.redo (comma separated)
//	HELIOCANVAS_SCRIPT_TIMEOUT     script.timeout
//
// Empty values are treated as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		return lookup(EnvPrefix + name)
	}

	if v, ok := get("MAX_COMMANDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_COMMANDS: %w", EnvPrefix, err)
		}
		cfg.History.MaxCommands = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := get("DB"); ok {
		cfg.Store.Path = v
	}
	if v, ok := get("METRICS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS: %w", EnvPrefix, err)
		}
		cfg.Metrics.Enabled = b
	}
	if v, ok := get("METRICS_NAMESPACE"); ok {
		cfg.Metrics.Namespace = v
	}
	if v, ok := get("UNDO_KEYS"); ok {
		cfg.Keys.Undo = splitList(v)
	}
	if v, ok := get("REDO_KEYS"); ok {
		cfg.Keys.Redo = splitList(v)
	}
	if v, ok := get("SCRIPT_TIMEOUT"); ok {
		cfg.Script.Timeout = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

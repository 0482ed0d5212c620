package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "reportql.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "reportql.yml"

// EnvPrefix scopes the environment variables the loader reads. Double
// underscores separate nesting levels so underscored keys stay intact:
// REPORTQL_EXECUTION__TYPE overrides execution.type,
// REPORTQL_LIMITS__MAX_ROWS overrides limits.max_rows.
const EnvPrefix = "REPORTQL_"

// defaults are the base configuration layer; file, environment, and flags
// override it in that order.
func defaults() map[string]any {
	return map[string]any{
		"execution.type":      "sqlite",
		"execution.path":      ":memory:",
		"state.path":          "reportql.db",
		"server.addr":         ":8080",
		"limits.max_rows":     10000,
		"polling.interval_ms": 1500,
		"polling.max_polls":   200,
		"log_level":           "info",
	}
}

// Load reads configuration from defaults, then the config file in dir (when
// present), then REPORTQL_-prefixed environment variables, then the given
// flag set (when non-nil).
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile locates reportql.yaml or reportql.yml in dir. Empty when
// neither exists.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file. Empty when none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

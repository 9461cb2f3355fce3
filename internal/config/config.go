// Package config implements muton's layered configuration (C8's ambient
// concern): built-in defaults, overridden by a TOML file discovered by
// walking up from cwd, overridden by environment variables, overridden
// last by explicit CLI flags (applied by the cmd/muton layer after Load).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the TOML config file FindConfigFile walks up from cwd
// looking for.
const ConfigFileName = "muton.toml"

// TargetRule binds a test command and timeout to targets whose path
// matches Glob, taking precedence over the global test command/timeout
// but yielding to a CLI-supplied override. First match in the list wins.
type TargetRule struct {
	Glob    string `toml:"glob"`
	Command string `toml:"cmd"`
	Timeout int    `toml:"timeout"` // seconds; 0 falls back to [test].timeout
}

type generalSection struct {
	DB             string   `toml:"db"`
	IgnoreTargets  []string `toml:"ignore_targets"`
}

type mutationsSection struct {
	Slugs []string `toml:"slugs"`
}

type testSection struct {
	Command    string       `toml:"cmd"`
	Timeout    int          `toml:"timeout"` // seconds; 0 means "derive from baseline"
	PerTarget  []TargetRule `toml:"per_target"`
}

type logSection struct {
	Level string `toml:"level"`
	Color *bool  `toml:"color"`
}

// fileConfig mirrors the on-disk TOML schema from spec.md §6: `[general]`,
// `[mutations]`, `[test]`, `[log]`.
type fileConfig struct {
	General   generalSection   `toml:"general"`
	Mutations mutationsSection `toml:"mutations"`
	Test      testSection      `toml:"test"`
	Log       logSection       `toml:"log"`
}

// Config is muton's fully resolved configuration, flattened for direct use
// by the rest of the program.
type Config struct {
	DB            string
	IgnoreTargets []string

	SlugAllowList []string // empty means "no restriction"

	Command string
	Timeout time.Duration // zero means "derive from the baseline" (t = 2*d_base)
	Rules   []TargetRule

	LogLevel string
	LogColor bool

	Comprehensive bool
	Verbose       bool
}

// Defaults returns the configuration used when no file, environment
// variable, or flag supplies a value.
func Defaults() Config {
	return Config{
		DB:       "muton.sqlite",
		LogLevel: "info",
		LogColor: true,
	}
}

// FindConfigFile walks up from dir looking for muton.toml, returning "" if
// none is found before reaching the filesystem root.
func FindConfigFile(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load builds a Config by applying, in precedence order: built-in
// defaults, the TOML file at path (skipped if path is "" or the file does
// not exist), then environment variable overrides. CLI flags are applied
// afterward by the caller, since cobra owns flag parsing.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnv(cfg), nil
			}
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeFile(&cfg, fc)
	}

	return applyEnv(cfg), nil
}

func mergeFile(cfg *Config, fc fileConfig) {
	if fc.General.DB != "" {
		cfg.DB = fc.General.DB
	}
	if len(fc.General.IgnoreTargets) > 0 {
		cfg.IgnoreTargets = fc.General.IgnoreTargets
	}
	if len(fc.Mutations.Slugs) > 0 {
		cfg.SlugAllowList = fc.Mutations.Slugs
	}
	if fc.Test.Command != "" {
		cfg.Command = fc.Test.Command
	}
	if fc.Test.Timeout > 0 {
		cfg.Timeout = time.Duration(fc.Test.Timeout) * time.Second
	}
	if len(fc.Test.PerTarget) > 0 {
		cfg.Rules = fc.Test.PerTarget
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = fc.Log.Level
	}
	if fc.Log.Color != nil {
		cfg.LogColor = *fc.Log.Color
	}
}

func applyEnv(cfg Config) Config {
	cfg.DB = getEnv("MUTON_DB", cfg.DB)
	cfg.LogLevel = getEnv("MUTON_LOG_LEVEL", cfg.LogLevel)
	cfg.LogColor = getEnvBool("MUTON_LOG_COLOR", cfg.LogColor)
	cfg.Command = getEnv("MUTON_TEST_CMD", cfg.Command)
	if v := os.Getenv("MUTON_TEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("MUTON_IGNORE_TARGETS"); v != "" {
		cfg.IgnoreTargets = splitCommaList(v)
	}
	if v := os.Getenv("MUTON_SLUGS"); v != "" {
		cfg.SlugAllowList = splitCommaList(v)
	}
	return cfg
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// ResolveCommand returns the (command, timeout) pair for a target path: the
// first per_target rule whose glob matches wins over the global default.
// matchGlob is injected so this package doesn't need its own glob-compile
// error-handling conventions (see internal/target.IsExcluded for the
// sibling pattern).
func (c Config) ResolveCommand(path string, matchGlob func(glob, path string) bool) (command string, timeout time.Duration) {
	for _, rule := range c.Rules {
		if matchGlob(rule.Glob, path) {
			cmd := rule.Command
			if cmd == "" {
				cmd = c.Command
			}
			t := c.Timeout
			if rule.Timeout > 0 {
				t = time.Duration(rule.Timeout) * time.Second
			}
			return cmd, t
		}
	}
	return c.Command, c.Timeout
}

// Package config loads blitz settings from a config file, BLITZ_ environment
// variables and defaults, in that order of precedence from last to first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a setting holds a value blitz cannot use.
var ErrInvalidConfig = errors.New("invalid config")

// Setting keys.
const (
	KeyDataDir          = "data_dir"
	KeyStorage          = "storage"
	KeyTimeout          = "timeout"
	KeyLogLevel         = "log_level"
	KeyMaxResponseBytes = "max_response_bytes"
	KeyHistoryLimit     = "history_limit"
	KeyColor            = "color"
)

const (
	envPrefix   = "BLITZ"
	dirName     = ".blitz"
	localConfig = "blitz.yaml"
)

// Config is the resolved set of settings.
type Config struct {
	// Path is the config file that was read, empty when none was found.
	Path             string
	DataDir          string
	Storage          string
	LogLevel         string
	Timeout          time.Duration
	MaxResponseBytes int64
	HistoryLimit     int
	Color            bool
}

// Debug reports whether debug logging was asked for.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Load resolves the settings. When path is empty the first of
// ~/.blitz/config.yaml and ./blitz.yaml that exists is used. A missing file is
// not an error; defaults and environment still apply.
func Load(path string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v := viper.New()
	v.SetDefault(KeyDataDir, filepath.Join(home, dirName))
	v.SetDefault(KeyStorage, "sqlite")
	v.SetDefault(KeyTimeout, "30s")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMaxResponseBytes, 50*1024*1024)
	v.SetDefault(KeyHistoryLimit, 100)
	v.SetDefault(KeyColor, true)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if path == "" {
		path = findConfig(filepath.Join(home, dirName, "config.yaml"), localConfig)
	} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Path:             path,
		DataDir:          expandHome(v.GetString(KeyDataDir), home),
		Storage:          strings.ToLower(v.GetString(KeyStorage)),
		LogLevel:         strings.ToLower(v.GetString(KeyLogLevel)),
		Timeout:          v.GetDuration(KeyTimeout),
		MaxResponseBytes: v.GetInt64(KeyMaxResponseBytes),
		HistoryLimit:     v.GetInt(KeyHistoryLimit),
		Color:            v.GetBool(KeyColor),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !slices.Contains([]string{"sqlite", "json"}, c.Storage) {
		return fmt.Errorf("%w: %s must be sqlite or json, got %q", ErrInvalidConfig, KeyStorage, c.Storage)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("%w: %s must be one of debug, info, warn or error, got %q", ErrInvalidConfig, KeyLogLevel, c.LogLevel)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s must be a positive duration", ErrInvalidConfig, KeyTimeout)
	}
	if c.MaxResponseBytes <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyMaxResponseBytes)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyHistoryLimit)
	}
	return nil
}

func findConfig(candidates ...string) string {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}

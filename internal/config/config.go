// Package config provides configuration management for partials using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration supports a .partials.yml file, environment variable
// overrides with the PARTIALS_ prefix, defaults and validation. It covers
// where templates live, how tag bodies are sanitized, logging, and the
// debounce and ignore rules used when watching templates.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/partials/internal/logging"
	"github.com/conneroisu/partials/internal/tag"
)

// Viper keys.
const (
	KeyTemplatesDir       = "templates.dir"
	KeyTemplatesExtension = "templates.extension"
	KeyRenderSanitize     = "render.sanitize"
	KeyRenderStrictLocals = "render.strict_locals"
	KeyLoggingLevel       = "logging.level"
	KeyLoggingFormat      = "logging.format"
	KeyWatchDebounce      = "watch.debounce"
	KeyWatchIgnore        = "watch.ignore"
)

// EnvPrefix prefixes every environment override, e.g. PARTIALS_LOGGING_LEVEL.
const EnvPrefix = "PARTIALS"

type Config struct {
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Render    RenderConfig    `mapstructure:"render"    yaml:"render"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Watch     WatchConfig     `mapstructure:"watch"     yaml:"watch"`
}

type TemplatesConfig struct {
	Dir       string `mapstructure:"dir"       yaml:"dir"`
	Extension string `mapstructure:"extension" yaml:"extension"`
}

type RenderConfig struct {
	Sanitize     string `mapstructure:"sanitize"      yaml:"sanitize"`
	StrictLocals bool   `mapstructure:"strict_locals" yaml:"strict_locals"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Ignore   []string      `mapstructure:"ignore"   yaml:"ignore"`
}

// SetDefaults registers the default value of every key on v. Keys must be
// known to viper for PARTIALS_ environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTemplatesDir, "templates")
	v.SetDefault(KeyTemplatesExtension, ".html")
	v.SetDefault(KeyRenderSanitize, tag.PolicyNone)
	v.SetDefault(KeyRenderStrictLocals, false)
	v.SetDefault(KeyLoggingLevel, "info")
	v.SetDefault(KeyLoggingFormat, "text")
	v.SetDefault(KeyWatchDebounce, 300*time.Millisecond)
	v.SetDefault(KeyWatchIgnore, []string{".git", "node_modules"})
}

// BindEnv enables PARTIALS_ environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults and validation.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle ignore set via env as a comma separated string (workaround for viper slice handling)
	if len(config.Watch.Ignore) == 1 && strings.Contains(config.Watch.Ignore[0], ",") {
		config.Watch.Ignore = strings.Split(config.Watch.Ignore[0], ",")
	}

	if !strings.HasPrefix(config.Templates.Extension, ".") {
		config.Templates.Extension = "." + config.Templates.Extension
	}
	config.Render.Sanitize = strings.ToLower(config.Render.Sanitize)
	config.Logging.Format = strings.ToLower(config.Logging.Format)

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.LogLevel {
	level, _ := logging.ParseLevel(c.Logging.Level)
	return level
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateTemplatesConfig(&config.Templates); err != nil {
		return fmt.Errorf("templates config: %w", err)
	}

	if _, err := tag.Policy(config.Render.Sanitize); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if _, err := logging.ParseLevel(config.Logging.Level); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	if !slices.Contains([]string{"text", "json"}, config.Logging.Format) {
		return fmt.Errorf("logging config: unknown format %q", config.Logging.Format)
	}

	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: debounce %s is negative", config.Watch.Debounce)
	}

	return nil
}

// validateTemplatesConfig validates the template directory and extension
func validateTemplatesConfig(config *TemplatesConfig) error {
	if err := validatePath(config.Dir); err != nil {
		return fmt.Errorf("invalid dir '%s': %w", config.Dir, err)
	}

	if config.Extension == "." || strings.ContainsAny(config.Extension, `/\`) {
		return fmt.Errorf("invalid extension %q", config.Extension)
	}

	return nil
}

// validatePath validates a file path for safety
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

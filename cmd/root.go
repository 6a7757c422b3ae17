// Package cmd provides the command-line interface for partials with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --templates, etc.) - highest priority
//	2. PARTIALS_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (PARTIALS_TEMPLATES_DIR, etc.)
//	4. Configuration files (.partials.yml) - lowest priority
//
// Environment Variables:
//
//	PARTIALS_CONFIG_FILE: Path to custom configuration file
//	PARTIALS_TEMPLATES_DIR: Override the template directory
//	PARTIALS_RENDER_SANITIZE: Sanitize policy for tag bodies (none, strict, ugc)
//	PARTIALS_LOGGING_LEVEL: Override the log level
//	And the rest following the PARTIALS_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/partials/internal/config"
	"github.com/conneroisu/partials/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "partials",
	Short: "Render templates through named, composable content sections",
	Long: `partials renders pongo2 templates that read their content from named
sections. Sections are filled from the command line, from locals, or by the
template itself, and can be required, optional, wrapped in tags, or forwarded
to nested templates.

Quick Start:
  partials render card --set title=Hello --set body=@body.md
  partials render page --locals-file locals.yaml --output page.html
  partials render page --watch
  partials version`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .partials.yml, can also use PARTIALS_CONFIG_FILE env var)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.StringP("templates", "t", "templates", "template directory")
	flags.String("sanitize", "none", "sanitize policy for tag bodies (none, strict, ugc)")

	bindFlag(config.KeyLoggingLevel, "log-level")
	bindFlag(config.KeyLoggingFormat, "log-format")
	bindFlag(config.KeyTemplatesDir, "templates")
	bindFlag(config.KeyRenderSanitize, "sanitize")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. PARTIALS_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .partials.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".partials")
	}

	config.BindEnv(viper.GetViper())

	// A missing or unreadable file leaves the defaults in place
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from the loaded configuration.
func newLogger(cfg *config.Config, out io.Writer) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     cfg.LogLevel(),
		Format:    cfg.Logging.Format,
		Output:    out,
		Component: "cli",
	})
}

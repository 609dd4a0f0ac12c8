package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/wikietl/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// DefaultConfigFile is read when --config is not given. If it does not exist
// the built-in jobs are used.
const DefaultConfigFile = "wikietl.yaml"

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wikietl",
	Short: "Wikipedia table ETL",
	Long: `A batch tool that scrapes a table from an archived Wikipedia page,
transforms it, and loads it into a CSV file and a SQL table.

Features:
  - Config-driven table extraction (tbody index, link cell, placeholder rows)
  - Currency expansion from a reference rate table
  - Unit rescaling with decimal rounding
  - SQLite or MySQL destination with replace semantics
  - Named report queries printed after each load
  - Timestamped progress log per job`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", DefaultConfigFile,
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
	}
}

// loadConfig reads the config file and applies CLI overrides. A missing file
// is only an error when --config was given explicitly.
func loadConfig() (*config.Config, string, error) {
	configFile := GetConfigFile()

	var cfg *config.Config
	_, statErr := os.Stat(configFile)
	switch {
	case errors.Is(statErr, os.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") && configFile == DefaultConfigFile:
		cfg = config.DefaultConfig()
		configFile = "(built-in defaults)"
	default:
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, configFile, fmt.Errorf("failed to load config: %w", err)
		}
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat)
	return cfg, configFile, nil
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{
			name:     "default config file",
			cfgValue: DefaultConfigFile,
			want:     "wikietl.yaml",
		},
		{
			name:     "custom config file",
			cfgValue: "/path/to/custom.yaml",
			want:     "/path/to/custom.yaml",
		},
		{
			name:     "config file with spaces",
			cfgValue: "/path/to/my config.yaml",
			want:     "/path/to/my config.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
	}()

	logLevel = "debug"
	logFormat = "json"
	assert.Equal(t, CLIOverrides{LogLevel: "debug", LogFormat: "json"}, GetCLIOverrides())

	logLevel = ""
	logFormat = ""
	assert.Equal(t, CLIOverrides{}, GetCLIOverrides())
}

func TestLoadConfig_DefaultsWhenDefaultFileMissing(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	wd, err := os.Getwd()
	require.NoError(t, err)
	if _, err := os.Stat(filepath.Join(wd, DefaultConfigFile)); err == nil {
		t.Skip("a wikietl.yaml exists in the working directory")
	}

	cfgFile = DefaultConfigFile
	cfg, source, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "(built-in defaults)", source)
	assert.ElementsMatch(t, []string{"banks", "gdp"}, cfg.ListJobs())
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()

	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestLoadConfig_AppliesOverrides(t *testing.T) {
	originalCfgFile, originalLevel := cfgFile, logLevel
	defer func() { cfgFile, logLevel = originalCfgFile, originalLevel }()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))

	cfgFile = path
	logLevel = "debug"
	cfg, source, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

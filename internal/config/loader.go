package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
// Jobs declared in the file replace built-in jobs of the same name.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := substituteEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	cfg.applyJobDefaults(func(job, key string) bool {
		return v.IsSet("jobs." + job + "." + key)
	})
	return cfg, nil
}

// envVarPattern matches ${NAME} and $NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars expands environment references in paths and connection
// fields. Report SQL is left alone.
func substituteEnvVars(cfg *Config) error {
	for name, job := range cfg.Jobs {
		expandAll(&job.SourceURL, &job.ReferenceTablePath, &job.OutputCSVPath, &job.DatabasePath, &job.LogPath)
		cfg.Jobs[name] = job
	}
	my := &cfg.Database.MySQL
	expandAll(&my.Host, &my.User, &my.Password, &my.Database, &cfg.Logging.Output)
	return nil
}

func expandAll(fields ...*string) {
	for _, f := range fields {
		*f = expandEnvVar(*f)
	}
}

// expandEnvVar replaces ${VAR} and $VAR with the variable's value. Unset
// variables are kept verbatim so a literal "$" in a URL survives.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

// applyJobDefaults fills the optional job fields a YAML file may omit.
// isSet reports whether a job key was given explicitly, so a zero the user
// wrote is kept.
func (c *Config) applyJobDefaults(isSet func(job, key string) bool) {
	for name, job := range c.Jobs {
		for i := range job.Table.Columns {
			if job.Table.Columns[i].Mode == "" {
				job.Table.Columns[i].Mode = ModeText
			}
		}
		if job.Transform.Type == "" {
			job.Transform.Type = TransformNone
		}
		if job.Transform.Rounding == "" {
			job.Transform.Rounding = RoundHalfEven
		}
		if job.Transform.Decimals == 0 && !isSet(name, "transform.decimals") {
			job.Transform.Decimals = 2
		}
		if job.Transform.Type == TransformCurrency && job.Transform.ColumnPattern == "" {
			job.Transform.ColumnPattern = "MC_%s_Billion"
		}
		if job.Transform.Type == TransformRescale && job.Transform.Scale == 0 {
			job.Transform.Scale = 1
		}
		c.Jobs[name] = job
	}
}

// GetJob retrieves a specific job configuration by name.
func (c *Config) GetJob(name string) (*JobConfig, error) {
	job, exists := c.Jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %q not found in configuration", name)
	}
	return &job, nil
}

// ApplyOverrides applies CLI flag overrides to the global configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
}

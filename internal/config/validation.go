package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/wikietl/internal/lock"
	"github.com/dbsmedya/wikietl/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if len(c.Jobs) == 0 {
		errors = append(errors, ValidationError{
			Field:   "jobs",
			Message: "at least one job must be defined",
		})
	}
	for _, name := range c.ListJobs() {
		job := c.Jobs[name]
		if err := c.validateJob(name, &job); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateDatabase(); err != nil {
		errors = append(errors, err...)
	}

	if c.HTTP.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "http.timeout_seconds",
			Message: "timeout_seconds cannot be negative",
		})
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	validMethods := map[string]bool{VerifyCount: true, VerifySHA256: true, VerifySkip: true, "": true}
	if !validMethods[c.Verification.Method] {
		errors = append(errors, ValidationError{
			Field:   "verification.method",
			Message: "method must be 'count', 'sha256', or 'skip'",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateJob checks a single job and the global sections it depends on.
func (c *Config) ValidateJob(name string) error {
	job, err := c.GetJob(name)
	if err != nil {
		return err
	}
	errors := c.validateJob(name, job)
	errors = append(errors, c.validateDatabase()...)
	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateJob(name string, job *JobConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("jobs.%s", name)

	if job.SourceURL == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".source_url",
			Message: "source_url is required",
		})
	}

	if !sqlutil.IsValidIdentifier(job.TableName) {
		errors = append(errors, ValidationError{
			Field:   prefix + ".table_name",
			Message: "table_name must contain only alphanumeric characters and underscores",
		})
	}

	if job.OutputCSVPath == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".output_csv_path",
			Message: "output_csv_path is required",
		})
	}

	if job.LogPath == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".log_path",
			Message: "log_path is required",
		})
	}

	if c.Database.Driver != DriverMySQL && job.DatabasePath == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database_path",
			Message: "database_path is required for the sqlite driver",
		})
	}

	errors = append(errors, validateTable(prefix+".table", &job.Table)...)
	errors = append(errors, validateTransform(prefix, job)...)

	for i, q := range job.Queries {
		qPrefix := fmt.Sprintf("%s.queries[%d]", prefix, i)
		if q.Name == "" {
			errors = append(errors, ValidationError{
				Field:   qPrefix + ".name",
				Message: "name is required",
			})
		}
		if strings.TrimSpace(q.SQL) == "" {
			errors = append(errors, ValidationError{
				Field:   qPrefix + ".sql",
				Message: "sql is required",
			})
		}
	}

	return errors
}

func validateTable(prefix string, tc *TableConfig) ValidationErrors {
	var errors ValidationErrors

	if tc.Index < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".index",
			Message: "index cannot be negative",
		})
	}
	if tc.LinkCell < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".link_cell",
			Message: "link_cell cannot be negative",
		})
	}
	if len(tc.Columns) == 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".columns",
			Message: "at least one column must be defined",
		})
	}

	validModes := map[string]bool{ModeText: true, ModeAnchor: true, ModeRaw: true, "": true}
	seen := make(map[string]bool, len(tc.Columns))
	for i, col := range tc.Columns {
		colPrefix := fmt.Sprintf("%s.columns[%d]", prefix, i)
		if !sqlutil.IsValidIdentifier(col.Name) {
			errors = append(errors, ValidationError{
				Field:   colPrefix + ".name",
				Message: "name must contain only alphanumeric characters and underscores",
			})
		}
		if seen[col.Name] {
			errors = append(errors, ValidationError{
				Field:   colPrefix + ".name",
				Message: fmt.Sprintf("duplicate column %q", col.Name),
			})
		}
		seen[col.Name] = true
		if col.Cell < 0 {
			errors = append(errors, ValidationError{
				Field:   colPrefix + ".cell",
				Message: "cell cannot be negative",
			})
		}
		if !validModes[col.Mode] {
			errors = append(errors, ValidationError{
				Field:   colPrefix + ".mode",
				Message: "mode must be 'text', 'anchor', or 'raw'",
			})
		}
	}

	if tc.Placeholder != nil {
		if tc.Placeholder.Cell < 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".placeholder.cell",
				Message: "cell cannot be negative",
			})
		}
		if tc.Placeholder.Token == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".placeholder.token",
				Message: "token is required when placeholder is set",
			})
		}
	}

	return errors
}

func validateTransform(jobPrefix string, job *JobConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := jobPrefix + ".transform"
	tc := &job.Transform

	validTypes := map[string]bool{TransformCurrency: true, TransformRescale: true, TransformNone: true, "": true}
	if !validTypes[tc.Type] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".type",
			Message: "type must be 'currency', 'rescale', or 'none'",
		})
		return errors
	}

	validRounding := map[string]bool{RoundHalfEven: true, RoundHalfUp: true, "": true}
	if !validRounding[tc.Rounding] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".rounding",
			Message: "rounding must be 'half_even' or 'half_up'",
		})
	}
	if tc.Decimals < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".decimals",
			Message: "decimals cannot be negative",
		})
	}

	if tc.Type == TransformNone || tc.Type == "" {
		return errors
	}

	hasColumn := false
	for _, col := range job.Table.Columns {
		if col.Name == tc.Column {
			hasColumn = true
			break
		}
	}
	if !hasColumn {
		errors = append(errors, ValidationError{
			Field:   prefix + ".column",
			Message: fmt.Sprintf("column %q is not an extracted column", tc.Column),
		})
	}

	switch tc.Type {
	case TransformCurrency:
		if job.ReferenceTablePath == "" {
			errors = append(errors, ValidationError{
				Field:   jobPrefix + ".reference_table_path",
				Message: "reference_table_path is required for the currency transform",
			})
		}
		if len(tc.Currencies) == 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".currencies",
				Message: "at least one currency is required",
			})
		}
		if tc.ColumnPattern != "" && strings.Count(tc.ColumnPattern, "%s") != 1 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".column_pattern",
				Message: "column_pattern must contain exactly one %s",
			})
		}
	case TransformRescale:
		if tc.Rename != "" && !sqlutil.IsValidIdentifier(tc.Rename) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".rename",
				Message: "rename must contain only alphanumeric characters and underscores",
			})
		}
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	validDrivers := map[string]bool{DriverSQLite: true, DriverMySQL: true, "": true}
	if !validDrivers[c.Database.Driver] {
		errors = append(errors, ValidationError{
			Field:   "database.driver",
			Message: "driver must be 'sqlite' or 'mysql'",
		})
	}

	if c.Database.LockTimeoutSeconds < lock.TimeoutInfinite {
		errors = append(errors, ValidationError{
			Field:   "database.lock_timeout_seconds",
			Message: "lock_timeout_seconds must be -1 or greater",
		})
	}

	if c.Database.Driver != DriverMySQL {
		return errors
	}

	db := &c.Database.MySQL
	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.mysql.host",
			Message: "host is required",
		})
	}
	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.mysql.port",
			Message: "port must be between 1 and 65535",
		})
	}
	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.mysql.user",
			Message: "user is required",
		})
	}
	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.mysql.database",
			Message: "database name is required",
		})
	}
	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   "database.mysql.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}

// Package config provides configuration structures and loading for wikietl.
package config

import (
	"sort"

	"github.com/dbsmedya/wikietl/internal/lock"
)

// Transform types.
const (
	TransformCurrency = "currency"
	TransformRescale  = "rescale"
	TransformNone     = "none"
)

// Column extraction modes.
const (
	ModeText   = "text"   // trimmed text of the whole cell
	ModeAnchor = "anchor" // first child text of the first <a> in the cell
	ModeRaw    = "raw"    // first child text of the cell, untrimmed
)

// Rounding modes.
const (
	RoundHalfEven = "half_even"
	RoundHalfUp   = "half_up"
)

// Verification methods.
const (
	VerifyCount  = "count"
	VerifySHA256 = "sha256"
	VerifySkip   = "skip"
)

// Database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config represents the complete application configuration.
type Config struct {
	Jobs         map[string]JobConfig `yaml:"jobs" mapstructure:"jobs"`
	HTTP         HTTPConfig           `yaml:"http" mapstructure:"http"`
	Database     DatabaseConfig       `yaml:"database" mapstructure:"database"`
	Verification VerificationConfig   `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig        `yaml:"logging" mapstructure:"logging"`
}

// HTTPConfig controls the outbound fetcher.
type HTTPConfig struct {
	TimeoutSeconds float64 `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // 0 keeps the transport default
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// DatabaseConfig selects the destination database engine.
// With the sqlite driver each job writes to its own database_path.
type DatabaseConfig struct {
	Driver string      `yaml:"driver" mapstructure:"driver"` // sqlite or mysql
	MySQL  MySQLConfig `yaml:"mysql" mapstructure:"mysql"`

	// LockTimeoutSeconds bounds the wait for the table lock taken around a
	// MySQL load. -1 waits forever.
	LockTimeoutSeconds int `yaml:"lock_timeout_seconds" mapstructure:"lock_timeout_seconds"`
}

// VerificationConfig controls the check run after a table is loaded.
type VerificationConfig struct {
	Method string `yaml:"method" mapstructure:"method"` // count, sha256 or skip
}

// MySQLConfig represents a MySQL database connection configuration.
type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	TLS      string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
}

// JobConfig represents one scrape-transform-load job.
type JobConfig struct {
	SourceURL          string          `yaml:"source_url" mapstructure:"source_url"`
	Table              TableConfig     `yaml:"table" mapstructure:"table"`
	Transform          TransformConfig `yaml:"transform" mapstructure:"transform"`
	ReferenceTablePath string          `yaml:"reference_table_path" mapstructure:"reference_table_path"`
	OutputCSVPath      string          `yaml:"output_csv_path" mapstructure:"output_csv_path"`
	DatabasePath       string          `yaml:"database_path" mapstructure:"database_path"`
	TableName          string          `yaml:"table_name" mapstructure:"table_name"`
	LogPath            string          `yaml:"log_path" mapstructure:"log_path"`
	Queries            []QueryConfig   `yaml:"queries" mapstructure:"queries"`
	Progress           ProgressConfig  `yaml:"progress" mapstructure:"progress"`
}

// ProgressConfig overrides the message written to the progress log at each
// stage transition. Empty fields keep the default wording.
type ProgressConfig struct {
	Start       string `yaml:"start" mapstructure:"start"`
	Extracted   string `yaml:"extracted" mapstructure:"extracted"`
	Transformed string `yaml:"transformed" mapstructure:"transformed"`
	CSVSaved    string `yaml:"csv_saved" mapstructure:"csv_saved"`
	Connected   string `yaml:"connected" mapstructure:"connected"`
	Loaded      string `yaml:"loaded" mapstructure:"loaded"`
	Complete    string `yaml:"complete" mapstructure:"complete"`
}

// TableConfig locates the source table and the cells to extract.
type TableConfig struct {
	Index       int                `yaml:"index" mapstructure:"index"`         // zero-based tbody index
	LinkCell    int                `yaml:"link_cell" mapstructure:"link_cell"` // cell that must hold an <a>
	Columns     []ColumnConfig     `yaml:"columns" mapstructure:"columns"`
	Placeholder *PlaceholderConfig `yaml:"placeholder,omitempty" mapstructure:"placeholder"`
}

// ColumnConfig maps a table cell to an output column.
type ColumnConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	Cell int    `yaml:"cell" mapstructure:"cell"`
	Mode string `yaml:"mode" mapstructure:"mode"` // text, anchor or raw
}

// PlaceholderConfig skips rows whose cell holds a missing-data token.
type PlaceholderConfig struct {
	Cell  int    `yaml:"cell" mapstructure:"cell"`
	Token string `yaml:"token" mapstructure:"token"`
}

// TransformConfig describes the numeric transformation of a job.
type TransformConfig struct {
	Type          string   `yaml:"type" mapstructure:"type"` // currency, rescale or none
	Column        string   `yaml:"column" mapstructure:"column"`
	Currencies    []string `yaml:"currencies" mapstructure:"currencies"`
	ColumnPattern string   `yaml:"column_pattern" mapstructure:"column_pattern"` // e.g. MC_%s_Billion
	Rename        string   `yaml:"rename" mapstructure:"rename"`
	Scale         float64  `yaml:"scale" mapstructure:"scale"`
	// LegacyConstant, when set, overwrites every rescaled value with this
	// constant the way the original GDP script did.
	LegacyConstant *float64 `yaml:"legacy_constant,omitempty" mapstructure:"legacy_constant"`
	Rounding       string   `yaml:"rounding" mapstructure:"rounding"` // half_even or half_up
	Decimals       int      `yaml:"decimals" mapstructure:"decimals"`
}

// QueryConfig is a named read-only report query. {{table}} expands to the
// quoted destination table name.
type QueryConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	SQL  string `yaml:"sql" mapstructure:"sql"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with the two built-in jobs.
func DefaultConfig() *Config {
	return &Config{
		Jobs: map[string]JobConfig{
			"banks": BanksJob(),
			"gdp":   GDPJob(),
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 0,
			UserAgent:      "wikietl/1.0",
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			MySQL: MySQLConfig{
				Port: 3306,
				TLS:  "preferred",
			},
			LockTimeoutSeconds: lock.TimeoutDefault,
		},
		Verification: VerificationConfig{
			Method: VerifyCount,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// BanksJob returns the largest-banks job: market capitalisation in USD,
// expanded into EUR, GBP and INR.
func BanksJob() JobConfig {
	return JobConfig{
		SourceURL: "https://web.archive.org/web/20230908091635/https://en.wikipedia.org/wiki/List_of_largest_banks",
		Table: TableConfig{
			Index:    0,
			LinkCell: 1,
			Columns: []ColumnConfig{
				{Name: "Name", Cell: 1, Mode: ModeText},
				{Name: "MC_USD_Billion", Cell: 2, Mode: ModeText},
			},
		},
		Transform: TransformConfig{
			Type:          TransformCurrency,
			Column:        "MC_USD_Billion",
			Currencies:    []string{"EUR", "GBP", "INR"},
			ColumnPattern: "MC_%s_Billion",
			Rounding:      RoundHalfEven,
			Decimals:      2,
		},
		ReferenceTablePath: "https://cf-courses-data.s3.us.cloud-object-storage.appdomain.cloud/IBMSkillsNetwork-PY0221EN-Coursera/labs/v2/exchange_rate.csv",
		OutputCSVPath:      "./Largest_banks_data.csv",
		DatabasePath:       "Banks.db",
		TableName:          "Largest_banks",
		LogPath:            "code_log.txt",
		Queries: []QueryConfig{
			{Name: "all_rows", SQL: "SELECT * FROM {{table}}"},
			{Name: "avg_gbp", SQL: "SELECT AVG(MC_GBP_Billion) FROM {{table}}"},
			{Name: "top_names", SQL: "SELECT Name FROM {{table}} LIMIT 5"},
			{Name: "row_count", SQL: "SELECT COUNT(*) FROM {{table}}"},
		},
	}
}

// GDPJob returns the countries-by-GDP job.
func GDPJob() JobConfig {
	return JobConfig{
		SourceURL: "https://web.archive.org/web/20230902185326/https://en.wikipedia.org/wiki/List_of_countries_by_GDP_%28nominal%29",
		Table: TableConfig{
			Index:    2,
			LinkCell: 0,
			Columns: []ColumnConfig{
				{Name: "Country", Cell: 0, Mode: ModeAnchor},
				{Name: "GDP_USD_millions", Cell: 2, Mode: ModeRaw},
			},
			Placeholder: &PlaceholderConfig{Cell: 2, Token: "—"},
		},
		Transform: TransformConfig{
			Type:     TransformRescale,
			Column:   "GDP_USD_millions",
			Rename:   "GDP_USD_billions",
			Scale:    0.001,
			Rounding: RoundHalfEven,
			Decimals: 2,
		},
		OutputCSVPath: "./Countries_by_GDP.csv",
		DatabasePath:  "World_Economies.db",
		TableName:     "Countries_by_GDP",
		LogPath:       "./etl_project_log.txt",
		Queries: []QueryConfig{
			{Name: "large_economies", SQL: "SELECT * FROM {{table}} WHERE GDP_USD_billions >= 100"},
		},
	}
}

// ListJobs returns all job names defined in the configuration, sorted.
func (c *Config) ListJobs() []string {
	jobs := make([]string, 0, len(c.Jobs))
	for name := range c.Jobs {
		jobs = append(jobs, name)
	}
	sort.Strings(jobs)
	return jobs
}

// ColumnNames returns the extracted column names in declaration order.
func (tc *TableConfig) ColumnNames() []string {
	names := make([]string, len(tc.Columns))
	for i, col := range tc.Columns {
		names[i] = col.Name
	}
	return names
}

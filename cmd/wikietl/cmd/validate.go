package cmd

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/extract"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate checks the configuration file without fetching anything or
touching the database.

Checks performed:
  - Configuration syntax and required fields
  - Table spec (tbody index, cells, extraction modes)
  - Transform settings and rounding mode
  - SQL identifiers for table and column names
  - Database driver and MySQL connection fields

Example:
  wikietl validate --config wikietl.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, configFile, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", configFile)
	cmd.Printf("Jobs found: %d\n\n", len(cfg.Jobs))

	hasErrors := false
	for _, jobName := range cfg.ListJobs() {
		cmd.Printf("--- Job: %s ---\n", jobName)
		if err := validateJob(cfg, jobName); err != nil {
			cmd.Printf("%s %v\n\n", color.Red.Sprint("FAIL"), err)
			hasErrors = true
			continue
		}
		cmd.Printf("%s all checks passed\n\n", color.Green.Sprint("OK"))
	}

	// Global sections; job errors were already reported above.
	if !hasErrors {
		if err := cfg.Validate(); err != nil {
			cmd.Printf("%s %v\n", color.Red.Sprint("FAIL"), err)
			hasErrors = true
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more jobs")
	}

	cmd.Println("=== Validation Complete ===")
	cmd.Println(color.Green.Sprint("All jobs validated successfully"))
	return nil
}

func validateJob(cfg *config.Config, jobName string) error {
	if err := cfg.ValidateJob(jobName); err != nil {
		return err
	}
	job, err := cfg.GetJob(jobName)
	if err != nil {
		return err
	}
	if _, err := extract.NewParser(extract.SpecFromConfig(job.Table)); err != nil {
		return fmt.Errorf("table spec: %w", err)
	}
	return nil
}

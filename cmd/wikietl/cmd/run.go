package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/wikietl/internal/database"
	"github.com/dbsmedya/wikietl/internal/logger"
	"github.com/dbsmedya/wikietl/internal/pipeline"
)

var runJob string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one ETL job",
	Long: `Run executes a job once: it fetches the source page, extracts the
configured table, transforms it, writes the CSV file, replaces the database
table and prints the report queries. Progress lines are appended to the job's
log file.

Example:
  wikietl run --job banks
  wikietl run --config wikietl.yaml --job gdp`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runJob, "job", "j", "",
		"Job name from configuration (required)")
	runCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, configFile, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.ValidateJob(runJob); err != nil {
		return fmt.Errorf("invalid configuration for job %q: %w", runJob, err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Infow("Starting ETL job", "job", runJob, "config", configFile)

	ctx, stop := database.SetupSignalHandler(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - aborting run", "signal", sig.String())
	})
	defer stop()

	p, err := pipeline.New(cfg, runJob,
		pipeline.WithLogger(log),
		pipeline.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}

	result, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("ETL job cancelled by user")
		}
		return fmt.Errorf("job %q failed: %w", runJob, err)
	}

	cmd.Printf("\n=== %s ===\n", color.Green.Sprint("ETL Complete"))
	cmd.Printf("Job: %s\n", result.JobName)
	cmd.Printf("Run ID: %s\n", result.RunID)
	cmd.Printf("Duration: %s\n", result.Duration)
	cmd.Printf("Rows Extracted: %d\n", result.RowsExtracted)
	cmd.Printf("Rows Loaded: %d\n", result.RowsLoaded)
	if v := result.Verification; v != nil {
		cmd.Printf("Verification: %s (%s)\n", v.Method, color.Green.Sprint("passed"))
	}
	cmd.Printf("Queries Run: %d\n", result.QueriesRun)
	if n := len(result.CoercionWarnings); n > 0 {
		cmd.Printf("%s\n", color.Yellow.Sprintf("Values stored as missing: %d", n))
		for _, w := range result.CoercionWarnings {
			cmd.Printf("  - %s\n", w)
		}
	}
	return nil
}

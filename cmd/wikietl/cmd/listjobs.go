package cmd

import (
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/wikietl/internal/config"
)

// maxSourceWidth bounds the printed source URL in terminal cells.
const maxSourceWidth = 72

var listJobsCmd = &cobra.Command{
	Use:   "list-jobs",
	Short: "List all jobs defined in configuration",
	Long: `List-jobs displays all ETL jobs in the configuration file, or the
built-in banks and gdp jobs when no file exists, with their settings.

Example:
  wikietl list-jobs --config wikietl.yaml`,
	RunE: runListJobs,
}

func init() {
	rootCmd.AddCommand(listJobsCmd)
}

func runListJobs(cmd *cobra.Command, args []string) error {
	cfg, configFile, err := loadConfig()
	if err != nil {
		return err
	}

	jobNames := cfg.ListJobs()
	if len(jobNames) == 0 {
		cmd.Printf("No jobs defined in %s\n", configFile)
		return nil
	}

	cmd.Printf("Jobs defined in %s:\n\n", configFile)

	for i, jobName := range jobNames {
		job, err := cfg.GetJob(jobName)
		if err != nil {
			return err
		}

		cmd.Printf("%d. %s\n", i+1, color.Cyan.Sprint(jobName))
		cmd.Printf("   Source:        %s\n", truncate(job.SourceURL, maxSourceWidth))
		cmd.Printf("   Table:         tbody #%d, link in cell %d\n", job.Table.Index, job.Table.LinkCell)
		cmd.Printf("   Columns:       %s\n", strings.Join(job.Table.ColumnNames(), ", "))
		if job.Table.Placeholder != nil {
			cmd.Printf("   Skip rows:     cell %d = %q\n", job.Table.Placeholder.Cell, job.Table.Placeholder.Token)
		}
		cmd.Printf("   Transform:     %s\n", describeTransform(&job.Transform))
		cmd.Printf("   CSV:           %s\n", job.OutputCSVPath)
		if cfg.Database.Driver == config.DriverMySQL {
			cmd.Printf("   Table name:    %s (mysql %s)\n", job.TableName, cfg.Database.MySQL.Database)
		} else {
			cmd.Printf("   Table name:    %s (%s)\n", job.TableName, job.DatabasePath)
		}
		cmd.Printf("   Progress log:  %s\n", job.LogPath)
		cmd.Printf("   Queries:       %d\n", len(job.Queries))
		for _, q := range job.Queries {
			cmd.Printf("      - %s\n", q.Name)
		}

		if i < len(jobNames)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d job(s)\n", len(jobNames))
	return nil
}

func describeTransform(tc *config.TransformConfig) string {
	switch tc.Type {
	case config.TransformCurrency:
		return tc.Column + " -> " + strings.Join(tc.Currencies, ", ") + " (" + tc.Rounding + ")"
	case config.TransformRescale:
		desc := tc.Column
		if tc.Rename != "" {
			desc += " -> " + tc.Rename
		}
		if tc.LegacyConstant != nil {
			return desc + " (legacy constant)"
		}
		return desc + " (" + tc.Rounding + ")"
	default:
		return "none"
	}
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

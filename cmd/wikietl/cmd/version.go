package cmd

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/wikietl/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Long: `Print the wikietl version, the commit it was built from, the Go runtime,
the built-in jobs and the supported database drivers.`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	defaults := config.DefaultConfig()

	cmd.Printf("wikietl %s (commit %s)\n", Version, Commit)
	cmd.Printf("  Runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	cmd.Printf("  Built-in jobs: %s\n", strings.Join(defaults.ListJobs(), ", "))
	cmd.Printf("  Drivers: %s (default), %s\n", config.DriverSQLite, config.DriverMySQL)
	cmd.Printf("  User agent: %s\n", defaults.HTTP.UserAgent)
}

// Package cli provides the command-line interface for reportql.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/cli/commands"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reportql",
		Short: "reportql - ad-hoc report query compiler",
		Long: `reportql compiles declarative report configurations (models, joins,
filters, derived fields) into SQL and runs them against a database,
synchronously or as background analytics jobs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("dir", "C", "", "Project directory (defaults to the nearest directory with reportql.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewModelsCommand(),
		commands.NewCompileCommand(),
		commands.NewRunCommand(),
		commands.NewPreviewCommand(),
		commands.NewJobsCommand(),
		commands.NewTemplatesCommand(),
		commands.NewServeCommand(),
	)

	return rootCmd
}

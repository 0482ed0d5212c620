package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewJobsCommand manages recorded analytics jobs.
func NewJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and prune analytics jobs",
	}
	cmd.AddCommand(newJobsListCommand(), newJobsPruneCommand())
	return cmd
}

func newJobsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List recent jobs, newest first",
		Example: `  reportql jobs list --limit 20`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			jobs, err := app.Store.ListJobs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Status", "Created", "Completed", "Error"})
			for _, job := range jobs {
				completed := ""
				if job.CompletedAt != nil {
					completed = job.CompletedAt.Format(time.RFC3339)
				}
				t.AppendRow(table.Row{job.ID, job.Status, job.CreatedAt.Format(time.RFC3339), completed, job.Error})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of jobs to list")
	return cmd
}

func newJobsPruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:     "prune",
		Short:   "Delete finished jobs older than a cutoff",
		Example: `  reportql jobs prune --older-than 168h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := app.Store.PruneJobs(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d job(s)\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Prune finished jobs older than this")
	return cmd
}

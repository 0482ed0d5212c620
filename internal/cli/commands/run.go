package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/exec"
	"github.com/leapstack-labs/reportql/internal/query"
	"github.com/leapstack-labs/reportql/internal/server"
)

// NewRunCommand compiles a selection to the analytics configuration and
// executes it, polling to completion when the service answers with a job.
func NewRunCommand() *cobra.Command {
	var opts selectionOptions
	var (
		async     bool
		remoteURL string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an analytics query",
		Long: `Run compiles the selection into the aggregate query configuration and
executes it. Stale derived fields block submission. With --async the
service may queue the query as a background job; run then polls until
the job completes.`,
		Example: `  reportql run -m orders --metric orders.total:sum --dimension orders.created_at:month
  reportql run --template 4f1c... --async
  reportql run -m orders --metric orders.total:sum --server http://localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			sel, err := opts.buildSelection(ctx, app)
			if err != nil {
				return err
			}
			sel.AllowAsync = async

			builder := query.NewBuilder(app.Catalog, app.Cfg.Limits.MaxRows)
			res, err := builder.BuildAnalytics(sel)
			if err != nil {
				return err
			}
			printNotes(cmd.ErrOrStderr(), res.Warnings, res.Errors)

			executor := app.Executor
			if remoteURL != "" {
				executor = exec.NewExecutor(server.NewClient(remoteURL), app.Logger, exec.Options{
					PollInterval: pollInterval(app.Cfg),
					MaxPolls:     app.Cfg.Polling.MaxPolls,
				})
			}

			result, err := executor.Execute(ctx, res.Config, sel.Derived)
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	addSelectionFlags(cmd, &opts)
	cmd.Flags().BoolVar(&async, "async", false, "Allow the service to queue the query as a background job")
	cmd.Flags().StringVar(&remoteURL, "server", "", "Execute against a running reportql server instead of the local database")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/query"
)

// NewPreviewCommand runs the row-preview query for a selection. Preview always
// executes synchronously and supports the full filter operator set.
func NewPreviewCommand() *cobra.Command {
	var opts selectionOptions

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview raw rows for a selection",
		Example: `  reportql preview -m orders --limit 20
  reportql preview -m orders -w orders.status:contains:pa -w orders.shipped_at:is_null`,
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

			builder := query.NewBuilder(app.Catalog, app.Cfg.Limits.MaxRows)
			res, err := builder.BuildPreview(sel, app.DB.Dialect())
			if err != nil {
				return err
			}
			printNotes(cmd.ErrOrStderr(), res.Warnings, res.Errors)

			result, err := app.Executor.Preview(ctx, res.Request)
			if err != nil {
				return err
			}
			renderResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	addSelectionFlags(cmd, &opts)
	return cmd
}

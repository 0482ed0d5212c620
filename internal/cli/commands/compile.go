package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/graph"
	"github.com/leapstack-labs/reportql/internal/query"
	"github.com/leapstack-labs/reportql/internal/runner"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// NewCompileCommand builds a selection into a query configuration and prints
// the generated SQL without executing it.
func NewCompileCommand() *cobra.Command {
	var opts selectionOptions
	var preview bool

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a selection and print the generated SQL",
		Long: `Compile assembles the selection into a query configuration, reports any
warnings the builder produced, and prints the SQL that would run. Nothing
is executed against the database.`,
		Example: `  reportql compile -m orders --metric orders.total:sum --dimension orders.status
  reportql compile -m orders -m refunds -j orders.id=refunds.order_id:left \
      --metric orders.total:sum -w orders.status:equals:paid
  reportql compile --template 4f1c... --preview`,
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

			out := cmd.OutOrStdout()
			analysis := graph.Analyze(sel.Models, sel.Joins)
			if len(analysis.Disconnected) > 0 {
				fmt.Fprintf(out, "warning: models not joined to %s: %v\n",
					analysis.Components[analysis.PrimaryIndex][0], analysis.Disconnected)
			}
			for _, line := range coverageWarnings(sel.Derived, sel.Joins) {
				fmt.Fprintln(out, line)
			}

			builder := query.NewBuilder(app.Catalog, app.Cfg.Limits.MaxRows)
			gen := runner.NewGenerator(app.DB.Dialect(), app.Catalog)

			var stmt runner.Statement
			if preview {
				res, err := builder.BuildPreview(sel, app.DB.Dialect())
				if err != nil {
					return err
				}
				printNotes(cmd.ErrOrStderr(), res.Warnings, res.Errors)
				if stmt, err = gen.Preview(res.Request); err != nil {
					return err
				}
			} else {
				res, err := builder.BuildAnalytics(sel)
				if err != nil {
					return err
				}
				printNotes(cmd.ErrOrStderr(), res.Warnings, res.Errors)
				if stmt, err = gen.Analytics(res.Config); err != nil {
					return err
				}
			}

			fmt.Fprintln(out, stmt.SQL)
			if len(stmt.Args) > 0 {
				fmt.Fprintf(out, "-- args: %v\n", stmt.Args)
			}
			return nil
		},
	}

	addSelectionFlags(cmd, &opts)
	cmd.Flags().BoolVar(&preview, "preview", false, "Compile the row-preview query instead of the analytics query")
	return cmd
}

// coverageWarnings re-checks every derived field's join dependencies against
// the configured join list and formats one warning line per unsatisfied pair.
func coverageWarnings(derived []*core.DerivedField, joins []core.JoinCondition) []string {
	joinKeys := graph.JoinKeySet(joins)
	var lines []string
	for _, field := range derived {
		for _, cov := range graph.EvaluateCoverage(field, joinKeys) {
			if cov.Satisfied {
				continue
			}
			lines = append(lines, fmt.Sprintf("warning: derived field %s needs a join between %s and %s",
				field.Name, cov.Pair.A, cov.Pair.B))
		}
	}
	return lines
}

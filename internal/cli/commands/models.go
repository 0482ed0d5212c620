package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/filter"
)

// NewModelsCommand lists the configured models with their fields, resolved
// types, and available filter operators.
func NewModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List configured models and their fields",
		Example: `  reportql models
  reportql models --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			for _, id := range app.Catalog.IDs() {
				model, _ := app.Catalog.Model(id)
				fmt.Fprintf(out, "%s (%s)\n", model.Name, model.Table)

				t := table.NewWriter()
				t.SetOutputMirror(out)
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Field", "Type", "Nullable", "Operators"})
				for _, field := range model.Fields {
					ops := filter.OperatorsFor(field.Type)
					names := make([]string, 0, len(ops))
					for _, op := range ops {
						names = append(names, string(op))
					}
					t.AppendRow(table.Row{field.ID, field.Type, field.Nullable, joinTrunc(names)})
				}
				t.Render()
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	return cmd
}

func joinTrunc(names []string) string {
	const max = 6
	if len(names) > max {
		return strings.Join(names[:max], ", ") + ", ..."
	}
	return strings.Join(names, ", ")
}

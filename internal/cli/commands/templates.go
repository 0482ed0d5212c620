package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/reportql/pkg/core"
)

// NewTemplatesCommand manages saved report templates.
func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage saved report templates",
	}
	cmd.AddCommand(
		newTemplatesListCommand(),
		newTemplatesShowCommand(),
		newTemplatesSaveCommand(),
		newTemplatesDeleteCommand(),
	)
	return cmd
}

func newTemplatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			summaries, err := app.Store.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name", "Updated"})
			for _, s := range summaries {
				t.AppendRow(table.Row{s.ID, s.Name, s.UpdatedAt.Format(time.RFC3339)})
			}
			t.Render()
			return nil
		},
	}
}

func newTemplatesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template-id>",
		Short: "Print a template as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			tpl, err := app.Store.GetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(tpl)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newTemplatesSaveCommand() *cobra.Command {
	var opts selectionOptions
	var name string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the given selection as a template",
		Example: `  reportql templates save --name "Monthly revenue" \
      -m orders --metric orders.total:sum --dimension orders.created_at:month`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
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

			tpl := &core.Template{
				ID:               opts.Template,
				Name:             name,
				Models:           sel.Models,
				Fields:           sel.Fields,
				Joins:            sel.Joins,
				Filters:          sel.Filters,
				MetricsSpotlight: sel.Visual,
			}
			for _, f := range sel.Derived {
				tpl.DerivedFields = append(tpl.DerivedFields, *f)
			}

			if err := app.Store.SaveTemplate(ctx, tpl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved template %s\n", tpl.ID)
			return nil
		},
	}

	addSelectionFlags(cmd, &opts)
	cmd.Flags().StringVar(&name, "name", "", "Template name")
	return cmd
}

func newTemplatesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted template %s\n", args[0])
			return nil
		},
	}
}

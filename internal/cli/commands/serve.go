package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/reportql/internal/server"
)

// NewServeCommand starts the HTTP execution service.
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reportql HTTP server",
		Long: `Serve exposes the model catalog, query execution, job polling, row
preview, and template storage over HTTP. The server shuts down cleanly
on SIGINT or SIGTERM, draining in-flight background jobs first.`,
		Example: `  reportql serve
  reportql serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.Cfg.Server.Addr
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.NewServer(server.Config{
				Service: app.Service,
				Store:   app.Store,
				Catalog: app.Catalog,
				Addr:    addr,
				Logger:  app.Logger,
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr from config)")
	return cmd
}

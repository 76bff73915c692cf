package cli

import (
	"github.com/spf13/cobra"

	"rehearse/internal/history"
	"rehearse/internal/server"
)

func newServeCommand(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis and history HTTP API",
		Long: `Serve the HTTP API until interrupted.

Endpoints:
  GET  /health
  POST /api/v1/analyze        routing result in, analysis report out
  GET  /api/v1/sessions       ?limit=N
  GET  /api/v1/sessions/:id
  GET  /api/v1/lingered       ?n=N`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			analyzer, err := app.newAnalyzer()
			if err != nil {
				return app.fail(1, err)
			}

			// A nil store disables the session endpoints.
			var sessions server.SessionStore
			if app.Config.History.Enabled {
				store, err := app.openStore()
				if err != nil {
					return app.fail(1, err)
				}
				defer func() { _ = store.Close() }()
				sessions = store
			}

			router := server.NewRouter(server.NewHandler(analyzer, sessions), app.Log, app.Config.Server.Mode)
			if err := server.New(addr, router, app.Log).Run(cmd.Context()); err != nil {
				return app.fail(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

var _ server.SessionStore = (*history.Store)(nil)

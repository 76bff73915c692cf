package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"rehearse/internal/history"
)

func newHistoryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded playback sessions",
	}
	cmd.AddCommand(
		newHistoryListCommand(app),
		newHistoryShowCommand(app),
		newHistoryLingeredCommand(app),
		newHistoryDeleteCommand(app),
	)
	return cmd
}

func newHistoryListCommand(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *history.Store) error {
				sessions, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				app.Printer.PrintSessions(sessions)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum sessions to list (0 for all)")
	return cmd
}

func newHistoryShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session with its per-point dwell",
		Long: `Show one session. A unique prefix of the session ID is enough.

Example:
  rehearse history show 3f2a9c1e`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *history.Store) error {
				sess, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				app.Printer.PrintSession(sess)
				app.Printer.PrintStressSummary(sess.Stress(app.Config.Output.StressTop))
				return nil
			})
		},
	}
}

func newHistoryLingeredCommand(app *App) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "lingered",
		Short: "Rank the junctions you lingered on across all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *history.Store) error {
				js, err := store.MostLingered(cmd.Context(), n)
				if err != nil {
					return err
				}
				app.Printer.PrintLingered(js)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "top", "n", 3, "number of junctions to show")
	return cmd
}

func newHistoryDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(func(store *history.Store) error {
				sess, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), sess.ID); err != nil {
					return err
				}
				app.Printer.PrintSessionDeleted(sess.ID)
				return nil
			})
		},
	}
}

// withStore opens the session store, runs fn and closes the store. A missing
// or ambiguous session exits with code 2, any other failure with code 1.
func (app *App) withStore(fn func(*history.Store) error) error {
	store, err := app.openStore()
	if err != nil {
		return app.fail(1, err)
	}
	defer func() { _ = store.Close() }()

	if err := fn(store); err != nil {
		if errors.Is(err, history.ErrSessionNotFound) || errors.Is(err, history.ErrAmbiguousID) {
			return app.fail(2, err)
		}
		return app.fail(1, err)
	}
	return nil
}

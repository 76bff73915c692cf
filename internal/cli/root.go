// Package cli implements the rehearse command line interface.
//
// Commands are built with Cobra around an [App] that carries the loaded
// configuration, the terminal [output.Printer] and the logger. Commands never
// call os.Exit themselves; they return an [ExitError] which [RunWithConfig]
// turns into an [ExecuteResult].
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rehearse/internal/analysis"
	"rehearse/internal/config"
	"rehearse/internal/history"
	"rehearse/internal/logging"
	"rehearse/internal/output"
	"rehearse/internal/playback"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

// App holds the dependencies shared by every command.
type App struct {
	Config  *config.Config
	Printer *output.Printer
	Log     zerolog.Logger

	// Clock drives real-time playback. Nil means the wall clock.
	Clock playback.Clock
}

// ExecuteResult is the outcome of a CLI run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// NewApp creates an App writing to stdout with logging disabled until the
// root command configures it.
func NewApp(cfg *config.Config) *App {
	return &App{
		Config:  cfg,
		Printer: output.NewPrinter(),
		Log:     zerolog.Nop(),
	}
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "rehearse",
		Short: "Rehearse the hard junctions of a driving route",
		Long: `rehearse reads a routing result, picks the junctions worth rehearsing
and plays them back one at a time, lingering on the high-stakes ones.

Example:
  rehearse analyze route.json
  rehearse play route.json --speed 2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg, err := config.NewLoader().LoadPath(configPath)
				if err != nil {
					app.Printer.PrintError(err)
					return NewExitError(1)
				}
				app.Config = cfg
			}
			if app.Config == nil {
				app.Config = config.DefaultConfig()
			}

			level := app.Config.Log.Level
			if logLevel != "" {
				level = logLevel
			}
			app.Log = logging.New(cmd.ErrOrStderr(), level, app.Config.Log.Pretty)
			app.Printer.SetTruncateLength(app.Config.Output.TruncateLength)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: auto-discovered)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error, off")

	root.AddCommand(
		newAnalyzeCommand(app),
		newPlayCommand(app),
		newHistoryCommand(app),
		newServeCommand(app),
		newPatternsCommand(app),
	)
	return root
}

// RunWithConfig runs the CLI with cfg and the process arguments.
func RunWithConfig(cfg *config.Config) ExecuteResult {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg)
	root := NewRootCommand(app)
	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		app.Printer.PrintError(err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads the configuration, runs the CLI and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(RunWithConfig(cfg).ExitCode)
}

// newAnalyzer builds an analyzer from the configured pattern table and rules.
func (app *App) newAnalyzer() (*analysis.Analyzer, error) {
	path := scoring.ResolvePatternsPath(app.Config.Scoring.PatternsPath)
	ps, err := scoring.LoadPatterns(path)
	if err != nil {
		return nil, err
	}
	patterns, err := ps.Compile()
	if err != nil {
		return nil, err
	}

	scorer := scoring.NewScorer(patterns, app.Config.Scoring.Rules)
	selector := selection.NewSelector(app.Config.Selection, scorer)
	return analysis.NewAnalyzer(scorer, selector, app.Log), nil
}

// openStore opens the session store, or returns an error when history is
// disabled.
func (app *App) openStore() (*history.Store, error) {
	if !app.Config.History.Enabled {
		return nil, errHistoryDisabled
	}
	path, err := app.Config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func (app *App) clock() playback.Clock {
	if app.Clock != nil {
		return app.Clock
	}
	return playback.RealClock{}
}

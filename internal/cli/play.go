package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"rehearse/internal/analysis"
	"rehearse/internal/history"
	"rehearse/internal/playback"
)

type playOptions struct {
	instant bool
	speed   float64
	noSave  bool
	verbose bool
}

func newPlayCommand(app *App) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play <route.json>",
		Short: "Play back the decision points of a route",
		Long: `Play back the selected junctions in route order. Each point stays on
screen for the base dwell divided by the speed, and longer for decision
points. When playback ends the junctions you lingered on are ranked and the
session is saved to history.

Speeds: 0 (skip), 0.5, 1, 2.

Example:
  rehearse play route.json
  rehearse play route.json --speed 2
  rehearse play route.json --instant --no-save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("speed") && !playback.ValidSpeed(opts.speed) {
				return app.fail(2, fmt.Errorf("%w: got %g", playback.ErrInvalidSpeed, opts.speed))
			}

			report, err := app.analyzeFile(cmd, args[0])
			if err != nil {
				return err
			}
			if report.Outcome != analysis.OutcomeOK {
				app.Printer.PrintReport(report)
				return nil
			}
			return app.play(cmd.Context(), report, opts, cmd.Flags().Changed("speed"))
		},
	}

	cmd.Flags().BoolVar(&opts.instant, "instant", false, "run on a virtual clock without waiting")
	cmd.Flags().Float64Var(&opts.speed, "speed", 1, "speed multiplier: 0, 0.5, 1 or 2")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not record the session in history")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print per-point diagnostics after playback")
	return cmd
}

func (app *App) play(ctx context.Context, report analysis.Report, opts playOptions, speedSet bool) error {
	cfg := app.Config.Playback
	if speedSet {
		cfg.Speed = opts.speed
	}

	var clock playback.Clock = app.clock()
	var manual *playback.ManualClock
	if opts.instant {
		manual = playback.NewManualClock(time.Now())
		clock = manual
	}

	seq := playback.New(cfg, clock, app.Log)
	defer seq.Destroy()

	// Timer callbacks notify from their own goroutine.
	var mu sync.Mutex
	last := -1
	seq.Subscribe(func(s playback.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.Index != last && s.State != playback.StateIdle {
			last = s.Index
			app.Printer.PrintSnapshot(s)
		}
	})

	started := clock.Now()
	seq.Init(report.Points)

	var completed bool
	if manual != nil {
		completed = runInstant(seq, manual)
	} else {
		completed = runRealtime(ctx, seq)
	}
	if !completed {
		seq.Pause()
		app.Printer.PrintWarning("Playback interrupted")
	}
	ended := clock.Now()

	records := seq.DwellRecords()
	stress := seq.StressSummary(app.Config.Output.StressTop)
	if opts.verbose {
		app.Printer.PrintDiagnostics(report.Points, records, stress)
	} else {
		app.Printer.PrintStressSummary(stress)
	}

	if opts.noSave || !app.Config.History.Enabled {
		return nil
	}
	app.saveSession(ctx, history.NewSession(report.Summary, report.TotalDistanceMeters,
		report.Points, records, completed, started, ended))
	return nil
}

// runInstant plays the sequence to completion by advancing the virtual clock
// to each pending timer in turn.
func runInstant(seq *playback.Sequencer, clock *playback.ManualClock) bool {
	seq.Play()
	for seq.Snapshot().State != playback.StateCompleted {
		d, ok := clock.NextDue()
		if !ok {
			return false
		}
		clock.Advance(d)
	}
	return true
}

// runRealtime plays until completion or until ctx is cancelled.
func runRealtime(ctx context.Context, seq *playback.Sequencer) bool {
	updates, cancel := seq.Updates(16)
	defer cancel()

	seq.Play()
	for {
		if seq.Snapshot().State == playback.StateCompleted {
			return true
		}
		select {
		case s, ok := <-updates:
			if !ok {
				return false
			}
			if s.State == playback.StateCompleted {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// saveSession stores sess. A store failure is reported but does not fail the
// playback that produced it.
func (app *App) saveSession(ctx context.Context, sess *history.Session) {
	// An interrupt cancels ctx; the session it cut short must still be written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	store, err := app.openStore()
	if err != nil {
		app.Printer.PrintWarning(fmt.Sprintf("session not saved: %v", err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Save(ctx, sess); err != nil {
		app.Printer.PrintWarning(fmt.Sprintf("session not saved: %v", err))
		return
	}
	app.Log.Debug().Str("session", sess.ID).Bool("completed", sess.Completed).Msg("session saved")
	app.Printer.PrintSessionSaved(sess.ID)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/schedule"
	"github.com/roach88/postbot/internal/session"
)

// ScheduleOptions holds flags for the schedule command.
type ScheduleOptions struct {
	*RootOptions
	DryRun bool
}

// NewScheduleCommand creates the schedule command.
func NewScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScheduleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Publish at random intervals until interrupted",
		Long: `Run one publish attempt immediately, then keep publishing at random
intervals between schedule.min_interval and schedule.max_interval, plus jitter.

Failed runs are logged and never stop the loop. SIGINT or SIGTERM stops it
between runs; a run already committing finishes first.

Example:
  postbot schedule --config postbot.yaml
  postbot schedule --dry-run --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print texts instead of posting; the ledger is not written")

	return cmd
}

func runSchedule(opts *ScheduleOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd, a.logger)
	defer stop()

	l, err := a.openRunLedger(opts.DryRun)
	if err != nil {
		return err
	}
	defer a.closeLedger(l)

	p, err := a.newPublisher(ctx, opts.DryRun)
	if err != nil {
		return err
	}

	rec := a.newRecorder()
	loopOpts := []schedule.Option{
		schedule.WithLogger(a.logger),
		schedule.WithClock(a.now),
		schedule.WithObserver(func(res session.Result) {
			if !opts.DryRun {
				rec.Observe(res)
				a.flushMetrics(rec)
			}
			a.out.VerboseLog("Run %s: %s", res.RunID, res.Outcome)
		}),
	}

	sc := a.cfg.Schedule
	loop := schedule.New(schedule.Config{
		MinInterval: sc.MinInterval,
		MaxInterval: sc.MaxInterval,
		Jitter:      sc.Jitter,
		Floor:       sc.Floor,
		RunTimeout:  sc.RunTimeout,
	}, a.newSession(l, p).Run, loopOpts...)

	if a.out.Format != "json" {
		fmt.Fprintln(a.out.Writer, "Scheduler started. Press Ctrl-C to stop.")
	}

	if err := loop.Run(ctx); err != nil && !isCancel(err) {
		return WrapExitError(ExitFailure, "scheduler error", err)
	}

	a.logger.Info("scheduler stopped gracefully")
	return a.out.Success("Scheduler stopped.")
}

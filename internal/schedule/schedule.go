// Package schedule drives publish runs at jittered random intervals.
//
// The loop holds no state of its own between runs. It does not replace the
// publish lock: a manual run overlapping a scheduled one is still refused by
// the lock, not by the loop.
package schedule

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/roach88/postbot/internal/session"
)

// Config controls run spacing.
type Config struct {
	// MinInterval and MaxInterval bound the base sleep between runs.
	MinInterval time.Duration
	MaxInterval time.Duration

	// Jitter is added uniformly in [-Jitter, +Jitter].
	Jitter time.Duration

	// Floor is the shortest sleep ever used.
	Floor time.Duration

	// RunTimeout bounds one run. <= 0 means unbounded.
	RunTimeout time.Duration
}

// Rand is the randomness NextInterval needs. *rand.Rand satisfies it.
type Rand interface {
	Int64N(n int64) int64
}

// NextInterval picks the next sleep: uniform in [MinInterval, MaxInterval],
// plus uniform jitter in [-Jitter, +Jitter], clamped to at least Floor.
func NextInterval(r Rand, cfg Config) time.Duration {
	d := cfg.MinInterval
	if span := cfg.MaxInterval - cfg.MinInterval; span > 0 {
		d += time.Duration(r.Int64N(int64(span) + 1))
	}
	if cfg.Jitter > 0 {
		d += time.Duration(r.Int64N(2*int64(cfg.Jitter)+1)) - cfg.Jitter
	}
	return max(d, cfg.Floor)
}

// RunFunc performs one publish attempt.
type RunFunc func(ctx context.Context) session.Result

// Loop runs RunFunc immediately and then after every NextInterval.
type Loop struct {
	cfg     Config
	run     RunFunc
	rng     Rand
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	observe func(session.Result)
	logger  *slog.Logger
}

// Option customizes a Loop.
type Option func(*Loop)

// WithRand sets the interval randomness source.
func WithRand(r Rand) Option {
	return func(l *Loop) { l.rng = r }
}

// WithSleep replaces the context-aware sleep. Tests use it to skip time.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Loop) { l.sleep = sleep }
}

// WithObserver is called with every run's result.
func WithObserver(fn func(session.Result)) Option {
	return func(l *Loop) { l.observe = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithClock sets the time source used for "next run" log lines.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// New creates a loop.
func New(cfg Config, run RunFunc, opts ...Option) *Loop {
	l := &Loop{
		cfg:   cfg,
		run:   run,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Run loops until ctx is cancelled. Failed runs never stop the loop.
// It returns ctx.Err() once cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("scheduler started",
		"min_interval", l.cfg.MinInterval,
		"max_interval", l.cfg.MaxInterval,
		"jitter", l.cfg.Jitter)

	for {
		l.runOnce(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		d := NextInterval(l.rng, l.cfg)
		l.logger.Info("sleeping",
			"hours", d.Round(time.Second).Hours(),
			"next_run", l.now().Add(d).Format(time.DateTime))

		if err := l.sleep(ctx, d); err != nil {
			l.logger.Info("scheduler stopping")
			return err
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	if l.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.RunTimeout)
		defer cancel()
	}

	res := l.run(ctx)
	if l.observe != nil {
		l.observe(res)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

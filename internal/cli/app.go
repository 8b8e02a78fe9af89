package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/config"
	"github.com/roach88/postbot/internal/corpus"
	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/metrics"
	"github.com/roach88/postbot/internal/publisher"
	"github.com/roach88/postbot/internal/session"
)

// app is the per-invocation wiring shared by every command.
type app struct {
	opts   *RootOptions
	cfg    config.Config
	logger *slog.Logger
	out    *OutputFormatter
	now    func() time.Time
}

// newApp loads configuration and sets up logging. Errors are already
// written to the formatter.
func newApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath, opts.Lookup)
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, opts.Verbose)
	slog.SetDefault(logger)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if opts.ConfigPath != "" {
		out.VerboseLog("Loaded config from %s", opts.ConfigPath)
	}
	return &app{opts: opts, cfg: cfg, logger: logger, out: out, now: now}, nil
}

// newLogger builds the process logger. --verbose forces debug.
func newLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// loadCorpus reads the configured corpus.
func (a *app) loadCorpus() ([]corpus.Record, error) {
	return corpus.Load(a.cfg.Corpus.Path, a.cfg.Corpus.TextField)
}

// openLedger opens the configured ledger backend.
func (a *app) openLedger() (ledger.Ledger, error) {
	l, err := ledger.Open(a.cfg.Ledger.Backend, a.cfg.Ledger.Path)
	if err != nil {
		return nil, a.out.Fail(ExitFailure, ErrCodeLedger, "failed to open ledger", err)
	}
	return l, nil
}

func (a *app) closeLedger(l ledger.Ledger) {
	if err := l.Close(); err != nil {
		a.logger.Error("error closing ledger", "error", err)
	}
}

// newPublisher returns the publisher for this invocation. Dry runs and the
// stdout kind print instead of posting.
func (a *app) newPublisher(ctx context.Context, dryRun bool) (publisher.Publisher, error) {
	if a.opts.Publisher != nil {
		return a.opts.Publisher, nil
	}
	if dryRun || a.cfg.Publisher.Kind == config.PublisherStdout {
		return publisher.NewStdout(a.dryRunWriter()), nil
	}

	p := a.cfg.Publisher
	client, err := publisher.NewXClient(ctx, publisher.XConfig{
		BaseURL:      p.BaseURL,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenFile:    p.TokenFile,
	}, a.logger)
	if err != nil {
		return nil, a.out.Fail(ExitCommandError, ErrCodeConfig, "failed to configure X publisher", err)
	}
	return client, nil
}

// dryRunWriter is where dry-run posts are printed. JSON output keeps stdout
// for the envelope.
func (a *app) dryRunWriter() io.Writer {
	if a.out.Format == "json" {
		return a.out.GetErrWriter()
	}
	return a.out.Writer
}

// newSession wires a session from configuration.
func (a *app) newSession(l ledger.Ledger, p publisher.Publisher) *session.Session {
	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithClock(a.now),
	}
	if a.opts.Shuffler != nil {
		opts = append(opts, session.WithShuffler(a.opts.Shuffler))
	}
	if a.opts.IDs != nil {
		opts = append(opts, session.WithIDGenerator(a.opts.IDs))
	}

	return session.New(session.Config{
		LockPath:       a.cfg.Lock.Path,
		MaxRange:       a.cfg.Corpus.MaxRange,
		PublishTimeout: a.cfg.Publisher.Timeout,
	}, a.loadCorpus, l, p, opts...)
}

// newRecorder returns a metrics recorder, or nil when no textfile is set.
func (a *app) newRecorder() *metrics.Recorder {
	if a.cfg.Metrics.Textfile == "" {
		return nil
	}
	return metrics.New(a.now)
}

// flushMetrics writes the textfile. Failures are logged and never change
// the run's exit code.
func (a *app) flushMetrics(rec *metrics.Recorder) {
	if err := rec.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("writing metrics textfile", "path", a.cfg.Metrics.Textfile, "error", err)
	}
}

// commandContext returns the command's context if available (for testing),
// otherwise a background context.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(commandContext(cmd))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// isCancel reports whether err is a context cancellation or deadline.
func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// usageError reports a bad argument as a command error.
func (a *app) usageError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return a.out.Fail(ExitCommandError, ErrCodeUsage, msg, nil)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/roach88/postbot/internal/corpus"
	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/lock"
	"github.com/roach88/postbot/internal/publisher"
	"github.com/roach88/postbot/internal/selector"
)

// Config holds the per-run settings.
type Config struct {
	// LockPath is the marker file guarding the publish slot.
	LockPath string

	// MaxRange bounds the corpus prefix considered. <= 0 means
	// selector.DefaultMaxRange.
	MaxRange int

	// PublishTimeout bounds the publisher call. <= 0 means no extra bound
	// beyond the caller's context.
	PublishTimeout time.Duration
}

// CorpusLoader returns the records for one run. It is called once per run,
// inside the lock.
type CorpusLoader func() ([]corpus.Record, error)

// Session executes publish runs. A Session is reusable; runs are serialized
// across processes by the lock, not by the Session.
type Session struct {
	cfg       Config
	load      CorpusLoader
	ledger    ledger.Ledger
	publisher publisher.Publisher
	shuffler  selector.Shuffler
	ids       IDGenerator
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes a Session.
type Option func(*Session)

// WithShuffler sets the permutation source. Defaults to math/rand/v2.
func WithShuffler(sh selector.Shuffler) Option {
	return func(s *Session) { s.shuffler = sh }
}

// WithIDGenerator sets the run id source. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) { s.ids = g }
}

// WithClock sets the time source for ledger timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates a Session.
func New(cfg Config, load CorpusLoader, l ledger.Ledger, p publisher.Publisher, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		load:      load,
		ledger:    l,
		publisher: p,
		ids:       UUIDv7Generator{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Result describes one finished run.
type Result struct {
	RunID   string
	Outcome Outcome
	Message string
	Err     error

	// Set once a candidate was selected.
	Text        string
	Fingerprint string
	Row         int

	// Set once the publisher confirmed the post.
	PostID          string
	PublishDuration time.Duration

	// LedgerSize is the number of distinct fingerprints after the run, or 0
	// if the ledger was never loaded.
	LedgerSize int

	// Followers is the account's follower count, when the publisher could
	// report it. Nil otherwise.
	Followers *int

	// Trace lists every state entered, in order.
	Trace []State
}

// OK reports whether the run posted and recorded a text.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

func (r *Result) enter(log *slog.Logger, st State) {
	if n := len(r.Trace); n > 0 {
		log.Debug("state transition", "from", r.Trace[n-1], "to", st)
	}
	r.Trace = append(r.Trace, st)
}

func (r *Result) fail(o Outcome, err error) {
	r.Outcome = o
	r.Err = err
	r.Message = err.Error()
}

// Run performs one publish attempt. It never leaves the lock held.
func (s *Session) Run(ctx context.Context) Result {
	res := Result{RunID: s.ids.Generate()}
	log := s.logger.With("run_id", res.RunID)
	res.enter(log, StateIdle)

	h, err := lock.Acquire(s.cfg.LockPath)
	switch {
	case errors.Is(err, lock.ErrBusy):
		res.fail(OutcomeBusy, err)
	case err != nil:
		res.fail(OutcomeIOFailure, err)
	default:
		res.enter(log, StateLocked)
		s.locked(ctx, log, &res, h)
	}

	res.enter(log, StateReleased)
	s.report(log, res)
	return res
}

// locked runs the critical section. The deferred Release covers every
// return, including panics from collaborators.
func (s *Session) locked(ctx context.Context, log *slog.Logger, res *Result, h *lock.Handle) {
	defer h.Release(log)

	res.enter(log, StateSelecting)
	records, err := s.load()
	if err != nil {
		res.fail(OutcomeCorpusUnavailable, err)
		return
	}
	if len(records) == 0 {
		res.fail(OutcomeCorpusUnavailable, ErrEmptyCorpus)
		return
	}

	posted, err := s.ledger.Load(ctx)
	if err != nil {
		res.fail(OutcomeIOFailure, fmt.Errorf("load ledger: %w", err))
		return
	}
	res.LedgerSize = posted.Len()
	log.Debug("loaded", "records", len(records), "posted", posted.Len())

	cand, ok := selector.Select(records, posted, s.shuffler, s.cfg.MaxRange)
	if !ok {
		res.fail(OutcomeNoCandidate, ErrNoCandidate)
		return
	}
	res.Text, res.Fingerprint, res.Row = cand.Text, cand.Fingerprint, cand.Row

	res.enter(log, StatePublishing)
	log.Info("publishing", "row", cand.Row, "fingerprint", cand.Fingerprint, "chars", utf8.RuneCountInString(cand.Text))
	defer s.inspectAccount(ctx, log, res)

	receipt, err := s.publish(ctx, cand.Text, res)
	if err != nil {
		res.fail(OutcomePublishRejected, err)
		return
	}
	res.PostID = receipt.ID

	res.enter(log, StateCommitting)
	entry := ledger.Entry{
		Fingerprint: cand.Fingerprint,
		PostID:      receipt.ID,
		Text:        cand.Text,
		RunID:       res.RunID,
		PostedAt:    s.now().UTC(),
	}
	// The post is live; an interrupt must not abort the commit.
	if err := s.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		res.fail(OutcomeLedgerWriteFailure, fmt.Errorf("record %s after post %s: %w", cand.Fingerprint, receipt.ID, err))
		return
	}
	res.LedgerSize++
	res.Outcome = OutcomeSuccess
	res.Message = fmt.Sprintf("posted %s", receipt.ID)
}

func (s *Session) publish(ctx context.Context, text string, res *Result) (publisher.Receipt, error) {
	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}

	start := s.now()
	receipt, err := s.publisher.Publish(ctx, text)
	res.PublishDuration = s.now().Sub(start)
	if err != nil {
		return publisher.Receipt{}, fmt.Errorf("publish: %w", err)
	}
	return receipt, nil
}

// inspectAccount fetches the follower count when the publisher supports it.
// Failures are logged at debug and never change the outcome.
func (s *Session) inspectAccount(ctx context.Context, log *slog.Logger, res *Result) {
	inspector, ok := s.publisher.(publisher.AccountInspector)
	if !ok {
		return
	}
	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}
	n, err := inspector.FollowerCount(ctx)
	if err != nil {
		log.Debug("follower count unavailable", "error", err)
		return
	}
	res.Followers = &n
}

func (s *Session) report(log *slog.Logger, res Result) {
	attrs := []any{"outcome", res.Outcome}
	if res.Fingerprint != "" {
		attrs = append(attrs, "fingerprint", res.Fingerprint)
	}
	if res.PostID != "" {
		attrs = append(attrs, "post_id", res.PostID)
	}

	switch res.Outcome {
	case OutcomeSuccess:
		log.Info("run finished", attrs...)
	case OutcomeBusy, OutcomeNoCandidate:
		log.Warn("run finished", append(attrs, "reason", res.Message)...)
	case OutcomeLedgerWriteFailure:
		log.Error("post is live but NOT recorded; it may be posted again", append(attrs, "error", res.Err)...)
	default:
		log.Error("run finished", append(attrs, "error", res.Err)...)
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/session"
)

// PostOptions holds flags for the post command.
type PostOptions struct {
	*RootOptions
	DryRun bool
}

// PostResult is the output of one publish run.
type PostResult struct {
	RunID         string   `json:"run_id"`
	Outcome       string   `json:"outcome"`
	DryRun        bool     `json:"dry_run,omitempty"`
	PostID        string   `json:"post_id,omitempty"`
	Fingerprint   string   `json:"fingerprint,omitempty"`
	Row           int      `json:"row,omitempty"`
	Text          string   `json:"text,omitempty"`
	LedgerEntries int      `json:"ledger_entries"`
	Followers     *int     `json:"followers,omitempty"`
	Trace         []string `json:"trace"`
}

func newPostResult(res session.Result, dryRun bool) PostResult {
	trace := make([]string, len(res.Trace))
	for i, st := range res.Trace {
		trace[i] = string(st)
	}
	return PostResult{
		RunID:         res.RunID,
		Outcome:       res.Outcome.String(),
		DryRun:        dryRun,
		PostID:        res.PostID,
		Fingerprint:   res.Fingerprint,
		Row:           res.Row,
		Text:          res.Text,
		LedgerEntries: res.LedgerSize,
		Followers:     res.Followers,
		Trace:         trace,
	}
}

func (r PostResult) String() string {
	if r.Outcome != session.OutcomeSuccess.String() {
		return fmt.Sprintf("run %s ended %s after %s", r.RunID, r.Outcome, strings.Join(r.Trace, " → "))
	}

	var b strings.Builder
	verb := "Posted"
	if r.DryRun {
		verb = "Dry run"
	}
	fmt.Fprintf(&b, "✓ %s %s (row %d, fingerprint %s)\n", verb, r.PostID, r.Row, shortFingerprint(r.Fingerprint))
	fmt.Fprintf(&b, "  Ledger: %d entries", r.LedgerEntries)
	if r.Followers != nil {
		fmt.Fprintf(&b, "\n  Followers: %d", *r.Followers)
	}
	return b.String()
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish one unposted text",
		Long: `Publish one text chosen at random from the corpus and record it in the ledger.

Exit codes:
  0  posted and recorded
  1  lock or ledger IO failure
  2  bad flags or configuration
  3  another run holds the lock
  4  corpus missing, unreadable or empty
  5  no unposted text in range
  6  publisher rejected the post
  7  posted but NOT recorded (check the logs before retrying)

Example:
  postbot post --config postbot.yaml
  postbot post --dry-run --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the text instead of posting; the ledger is not written")

	return cmd
}

func runPost(opts *PostOptions, cmd *cobra.Command) error {
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
	res := a.newSession(l, p).Run(ctx)
	if !opts.DryRun {
		rec.Observe(res)
		a.flushMetrics(rec)
	}

	return a.reportRun(res, opts.DryRun)
}

// openRunLedger opens the configured ledger, wrapped in memory for dry runs.
func (a *app) openRunLedger(dryRun bool) (ledger.Ledger, error) {
	l, err := a.openLedger()
	if err != nil {
		return nil, err
	}
	if dryRun {
		return ledger.NewMemory(l), nil
	}
	return l, nil
}

// reportRun prints res and maps its outcome to an exit code.
func (a *app) reportRun(res session.Result, dryRun bool) error {
	view := newPostResult(res, dryRun)
	if res.OK() {
		return a.out.Success(view)
	}

	code := res.Outcome.String()
	_ = a.out.Error(code, res.Message, view)
	return WrapExitError(OutcomeExitCode(res.Outcome), code, res.Err)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

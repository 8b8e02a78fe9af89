package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/corpus"
	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/selector"
	"github.com/roach88/postbot/internal/session"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Count int
	Seed  uint64
}

// PreviewCandidate is one text the selector could pick.
type PreviewCandidate struct {
	Row         int    `json:"row"`
	Fingerprint string `json:"fingerprint"`
	Text        string `json:"text"`
}

// PreviewResult lists candidates in the order the selector would try them.
type PreviewResult struct {
	Considered int                `json:"considered"`
	Candidates []PreviewCandidate `json:"candidates"`
}

func (r PreviewResult) String() string {
	if len(r.Candidates) == 0 {
		return fmt.Sprintf("No eligible text among the first %d records.", r.Considered)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d candidate(s) from %d records considered:\n", len(r.Candidates), r.Considered)
	for _, c := range r.Candidates {
		fmt.Fprintf(&b, "\n[row %d] %s\n%s\n", c.Row, shortFingerprint(c.Fingerprint), c.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show texts the next run could post",
		Long: `Show normalized candidates in the order a run would try them.

Preview takes no lock, never posts and never writes the ledger. With --seed
the order is reproducible.

Example:
  postbot preview --count 5
  postbot preview --seed 42 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 3, "number of candidates to show")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "shuffle seed (0 means random)")

	return cmd
}

func runPreview(opts *PreviewOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Count < 1 {
		return a.usageError("--count must be at least 1, got %d", opts.Count)
	}

	records, err := a.loadCorpus()
	if err != nil {
		return a.corpusError(err)
	}

	posted, err := a.loadPosted(cmd)
	if err != nil {
		return err
	}

	shuffler := a.opts.Shuffler
	if opts.Seed != 0 {
		shuffler = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}

	order := selector.Permutation(records, shuffler, a.cfg.Corpus.MaxRange)
	result := PreviewResult{Considered: len(order), Candidates: []PreviewCandidate{}}
	for _, rec := range order {
		cand, ok := selector.Evaluate(rec, posted)
		if !ok {
			continue
		}
		result.Candidates = append(result.Candidates, PreviewCandidate{
			Row:         cand.Row,
			Fingerprint: cand.Fingerprint,
			Text:        cand.Text,
		})
		if len(result.Candidates) == opts.Count {
			break
		}
	}

	return a.out.Success(result)
}

// loadPosted reads the configured ledger without writing it.
func (a *app) loadPosted(cmd *cobra.Command) (ledger.Set, error) {
	l, err := a.openLedger()
	if err != nil {
		return ledger.Set{}, err
	}
	defer a.closeLedger(l)

	posted, err := l.Load(commandContext(cmd))
	if err != nil {
		return ledger.Set{}, a.out.Fail(ExitFailure, ErrCodeLedger, "failed to read ledger", err)
	}
	return posted, nil
}

// corpusError reports a corpus load failure.
func (a *app) corpusError(err error) error {
	msg := "failed to load corpus"
	if errors.Is(err, corpus.ErrCorpusNotFound) {
		msg = "corpus not found"
	}
	return a.out.Fail(ExitCorpusUnavailable, session.OutcomeCorpusUnavailable.String(), msg, err)
}

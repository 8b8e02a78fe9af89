package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/lock"
	"github.com/roach88/postbot/internal/selector"
)

// StatusResult summarizes corpus, ledger and lock state.
type StatusResult struct {
	Corpus        string     `json:"corpus"`
	Records       int        `json:"records"`
	Considered    int        `json:"considered"`
	Eligible      int        `json:"eligible"`
	Ledger        string     `json:"ledger"`
	LedgerBackend string     `json:"ledger_backend"`
	LedgerEntries int        `json:"ledger_entries"`
	Lock          LockStatus `json:"lock"`
}

// LockStatus describes the lock marker.
type LockStatus struct {
	Path       string  `json:"path"`
	Held       bool    `json:"held"`
	PID        int     `json:"pid,omitempty"`
	AgeSeconds float64 `json:"age_seconds,omitempty"`
}

func (l LockStatus) String() string {
	if !l.Held {
		return "free"
	}
	age := time.Duration(l.AgeSeconds * float64(time.Second)).Round(time.Second)
	if l.PID == 0 {
		return fmt.Sprintf("held for %s", age)
	}
	return fmt.Sprintf("held by pid %d for %s", l.PID, age)
}

func (r StatusResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Corpus:   %s (%d records)\n", r.Corpus, r.Records)
	fmt.Fprintf(&b, "Eligible: %d of the first %d\n", r.Eligible, r.Considered)
	fmt.Fprintf(&b, "Ledger:   %s (%s, %d entries)\n", r.Ledger, r.LedgerBackend, r.LedgerEntries)
	fmt.Fprintf(&b, "Lock:     %s (%s)", r.Lock.Path, r.Lock)
	return b.String()
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show corpus, ledger and lock state",
		Long: `Show how many texts remain eligible, how many are recorded in the
ledger and whether a run currently holds the lock.

Status takes no lock; the numbers may change while it runs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}

	records, err := a.loadCorpus()
	if err != nil {
		return a.corpusError(err)
	}

	l, err := a.openLedger()
	if err != nil {
		return err
	}
	defer a.closeLedger(l)

	ctx := commandContext(cmd)
	posted, err := l.Load(ctx)
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeLedger, "failed to read ledger", err)
	}
	entries := posted.Len()
	if c, ok := l.(ledger.Counter); ok {
		if entries, err = c.Count(ctx); err != nil {
			return a.out.Fail(ExitFailure, ErrCodeLedger, "failed to count ledger entries", err)
		}
	}

	considered := records[:min(len(records), a.cfg.Corpus.MaxRange)]
	eligible := 0
	for _, rec := range considered {
		if _, ok := selector.Evaluate(rec, posted); ok {
			eligible++
		}
	}

	info, err := lock.Inspect(a.cfg.Lock.Path, a.now())
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeIO, "failed to inspect lock", err)
	}

	return a.out.Success(StatusResult{
		Corpus:        a.cfg.Corpus.Path,
		Records:       len(records),
		Considered:    len(considered),
		Eligible:      eligible,
		Ledger:        a.cfg.Ledger.Path,
		LedgerBackend: a.cfg.Ledger.Backend,
		LedgerEntries: entries,
		Lock:          newLockStatus(a.cfg.Lock.Path, info),
	})
}

func newLockStatus(path string, info lock.Info) LockStatus {
	return LockStatus{
		Path:       path,
		Held:       info.Held,
		PID:        info.PID,
		AgeSeconds: info.Age.Seconds(),
	}
}

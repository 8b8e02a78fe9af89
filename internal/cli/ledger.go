package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/postbot/internal/content"
	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/lock"
	"github.com/roach88/postbot/internal/session"
)

// NewLedgerCommand creates the ledger command group.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and maintain the posted-text ledger",
	}

	cmd.AddCommand(newLedgerCheckCommand(rootOpts))
	cmd.AddCommand(newLedgerImportCommand(rootOpts))
	cmd.AddCommand(newLedgerHistoryCommand(rootOpts))

	return cmd
}

// CheckResult reports how a raw text normalizes and whether it was posted.
type CheckResult struct {
	Valid       bool   `json:"valid"`
	Text        string `json:"text,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Posted      bool   `json:"posted"`
}

func (r CheckResult) String() string {
	if !r.Valid {
		return "Rejected: the text is empty or contains a link after normalization"
	}
	state := "not posted"
	if r.Posted {
		state = "posted"
	}
	return fmt.Sprintf("%s\n\nFingerprint: %s\nStatus:      %s", r.Text, r.Fingerprint, state)
}

func newLedgerCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <text>",
		Short: "Normalize a text and look up its fingerprint",
		Long: `Normalize a text the way a run would and report its fingerprint and
whether the ledger already holds it.

Example:
  postbot ledger check "Some quote  with a paragraph break"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerCheck(rootOpts, args[0], cmd)
		},
	}
}

func runLedgerCheck(opts *RootOptions, raw string, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}

	text, ok := content.Normalize(raw)
	if !ok {
		return a.out.Success(CheckResult{})
	}

	posted, err := a.loadPosted(cmd)
	if err != nil {
		return err
	}

	fp := content.Fingerprint(text)
	return a.out.Success(CheckResult{
		Valid:       true,
		Text:        text,
		Fingerprint: fp,
		Posted:      posted.Contains(fp),
	})
}

// ImportResult reports a ledger import.
type ImportResult struct {
	Source  string `json:"source"`
	Read    int    `json:"read"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("✓ Imported %d fingerprint(s) from %s (%d already present)", r.Added, r.Source, r.Skipped)
}

func newLedgerImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Copy a line-per-fingerprint file into the configured ledger",
		Long: `Copy every fingerprint from a plain ledger file (one hex digest per
line) into the configured ledger. Existing fingerprints are skipped, so the
import can be repeated safely.

The publish lock is held for the duration of the import.

Example:
  postbot ledger import posted_hashes.txt --config sqlite.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerImport(rootOpts, args[0], cmd)
		},
	}
}

func runLedgerImport(opts *RootOptions, src string, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if a.cfg.Ledger.Backend == ledger.BackendFile && sameFile(src, a.cfg.Ledger.Path) {
		return a.usageError("source %s is the configured ledger", src)
	}

	set, err := ledger.NewFile(src).Load(ctx)
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeLedger, "failed to read source ledger", err)
	}
	for _, fp := range set.Fingerprints() {
		if !content.ValidFingerprint(fp) {
			return a.usageError("source %s contains %q, which is not a fingerprint", src, fp)
		}
	}

	h, err := lock.Acquire(a.cfg.Lock.Path)
	if errors.Is(err, lock.ErrBusy) {
		return a.out.Fail(ExitBusy, session.OutcomeBusy.String(), "another run holds the lock", err)
	}
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeIO, "failed to acquire lock", err)
	}
	defer h.Release(a.logger)

	dst, err := a.openLedger()
	if err != nil {
		return err
	}
	defer a.closeLedger(dst)

	added, err := ledger.Import(ctx, set, dst, a.now().UTC())
	if err != nil {
		return a.out.Fail(ExitLedgerWrite, ErrCodeLedger, fmt.Sprintf("import stopped after %d fingerprint(s)", added), err)
	}

	a.logger.Info("ledger imported", "source", src, "added", added)
	return a.out.Success(ImportResult{
		Source:  src,
		Read:    set.Len(),
		Added:   added,
		Skipped: set.Len() - added,
	})
}

// HistoryEntry is one publication in the ledger history.
type HistoryEntry struct {
	PostedAt    time.Time `json:"posted_at"`
	PostID      string    `json:"post_id,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RunID       string    `json:"run_id,omitempty"`
	Text        string    `json:"text,omitempty"`
}

// HistoryResult lists recent publications, newest first.
type HistoryResult struct {
	Entries []HistoryEntry `json:"entries"`
}

func (r HistoryResult) String() string {
	if len(r.Entries) == 0 {
		return "No publications recorded."
	}
	var b strings.Builder
	for i, e := range r.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		postID := e.PostID
		if postID == "" {
			postID = "(imported)"
		}
		fmt.Fprintf(&b, "%s  %-20s  %s  %s", e.PostedAt.Format(time.DateTime), postID,
			shortFingerprint(e.Fingerprint), firstLine(e.Text))
	}
	return b.String()
}

func newLedgerHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent publications (sqlite backend)",
		Long: `List the most recent publications with their post ids and texts.

Only the sqlite ledger backend keeps per-post details; the file backend
stores fingerprints alone.

Example:
  postbot ledger history --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerHistory(rootOpts, limit, cmd)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of entries")

	return cmd
}

func runLedgerHistory(opts *RootOptions, limit int, cmd *cobra.Command) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	if limit < 1 {
		return a.usageError("--limit must be at least 1, got %d", limit)
	}

	l, err := a.openLedger()
	if err != nil {
		return err
	}
	defer a.closeLedger(l)

	historian, ok := l.(ledger.Historian)
	if !ok {
		return a.out.Fail(ExitCommandError, ErrCodeBackend,
			fmt.Sprintf("ledger backend %q does not keep history", a.cfg.Ledger.Backend), nil)
	}

	entries, err := historian.History(commandContext(cmd), limit)
	if err != nil {
		return a.out.Fail(ExitFailure, ErrCodeLedger, "failed to read history", err)
	}

	result := HistoryResult{Entries: make([]HistoryEntry, len(entries))}
	for i, e := range entries {
		result.Entries[i] = HistoryEntry{
			PostedAt:    e.PostedAt,
			PostID:      e.PostID,
			Fingerprint: e.Fingerprint,
			RunID:       e.RunID,
			Text:        e.Text,
		}
	}
	return a.out.Success(result)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

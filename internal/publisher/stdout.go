package publisher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Stdout is a dry-run publisher. It prints the text and returns a synthetic
// receipt, so a dry run still exercises the ledger commit.
type Stdout struct {
	w io.Writer
}

// NewStdout writes dry-run posts to w.
func NewStdout(w io.Writer) *Stdout {
	return &Stdout{w: w}
}

// Publish prints text between rules and returns a dry-run id.
func (s *Stdout) Publish(ctx context.Context, text string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	rule := strings.Repeat("-", 40)
	if _, err := fmt.Fprintf(s.w, "%s\n%s\n%s\n", rule, text, rule); err != nil {
		return Receipt{}, fmt.Errorf("dry run: %w", err)
	}
	return Receipt{ID: "dry-run-" + uuid.NewString()}, nil
}

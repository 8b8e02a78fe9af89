package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/postbot/internal/store"
)

// SQLite is a ledger backed by the publication store. Unlike File it keeps
// the post id, text and run id of every entry.
type SQLite struct {
	st *store.Store
}

// OpenSQLite opens (or creates) the ledger database at path.
func OpenSQLite(path string) (*SQLite, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	return &SQLite{st: st}, nil
}

// Load returns every stored fingerprint.
func (l *SQLite) Load(ctx context.Context) (Set, error) {
	fps, err := l.st.Fingerprints(ctx)
	if err != nil {
		return Set{}, err
	}
	return NewSet(fps...), nil
}

// Record inserts the entry in its own transaction. With synchronous=FULL the
// commit is on disk when this returns.
func (l *SQLite) Record(ctx context.Context, e Entry) error {
	return l.st.InsertPublication(ctx, store.Publication{
		Fingerprint: e.Fingerprint,
		PostID:      e.PostID,
		Text:        e.Text,
		RunID:       e.RunID,
		PostedAt:    e.PostedAt,
	})
}

// History returns up to limit entries, newest first.
func (l *SQLite) History(ctx context.Context, limit int) ([]Entry, error) {
	pubs, err := l.st.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(pubs))
	for i, p := range pubs {
		entries[i] = Entry(p)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (l *SQLite) Count(ctx context.Context) (int, error) {
	return l.st.Count(ctx)
}

// Close closes the underlying database.
func (l *SQLite) Close() error {
	return l.st.Close()
}

// Package ledger records which content fingerprints have been published.
//
// A ledger only grows: once a fingerprint is recorded it is never removed.
// Implementations are not safe for concurrent writers; callers must hold the
// publish lock (see package lock) around Record.
package ledger

import (
	"context"
	"time"
)

// Entry is one committed publication.
type Entry struct {
	Fingerprint string
	PostID      string
	Text        string
	RunID       string
	PostedAt    time.Time
}

// Ledger is the durable set of published fingerprints.
type Ledger interface {
	// Load returns every recorded fingerprint. A ledger that has never been
	// written to is empty, not an error.
	Load(ctx context.Context) (Set, error)

	// Record durably adds e.Fingerprint. It returns only after the entry has
	// reached stable storage.
	Record(ctx context.Context, e Entry) error

	// Close releases any held resources.
	Close() error
}

// Set is an in-memory view of a ledger.
type Set struct {
	fps   map[string]struct{}
	lines int
}

// NewSet builds a set from fingerprints. Duplicates are counted by Lines but
// collapse in Len.
func NewSet(fps ...string) Set {
	s := Set{fps: make(map[string]struct{}, len(fps))}
	for _, fp := range fps {
		s.add(fp)
	}
	return s
}

func (s *Set) add(fp string) {
	if s.fps == nil {
		s.fps = make(map[string]struct{})
	}
	s.fps[fp] = struct{}{}
	s.lines++
}

// Contains reports whether fp has been published.
func (s Set) Contains(fp string) bool {
	_, ok := s.fps[fp]
	return ok
}

// Len returns the number of distinct fingerprints.
func (s Set) Len() int {
	return len(s.fps)
}

// Lines returns the number of entries read, including duplicates.
func (s Set) Lines() int {
	return s.lines
}

// Fingerprints returns the distinct fingerprints in no particular order.
func (s Set) Fingerprints() []string {
	out := make([]string, 0, len(s.fps))
	for fp := range s.fps {
		out = append(out, fp)
	}
	return out
}

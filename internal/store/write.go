package store

import (
	"context"
	"fmt"
	"time"
)

// Publication is one committed post.
type Publication struct {
	Fingerprint string
	PostID      string
	Text        string
	RunID       string
	PostedAt    time.Time
}

// InsertPublication records a publication.
// Uses ON CONFLICT(fingerprint) DO NOTHING - re-recording a fingerprint is
// silently ignored and the first row wins.
func (s *Store) InsertPublication(ctx context.Context, p Publication) error {
	if p.Fingerprint == "" {
		return fmt.Errorf("insert publication: empty fingerprint")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publications (fingerprint, post_id, text, run_id, posted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		p.Fingerprint,
		p.PostID,
		p.Text,
		p.RunID,
		p.PostedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}

	return nil
}

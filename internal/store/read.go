package store

import (
	"context"
	"fmt"
	"time"
)

// Fingerprints returns every recorded fingerprint.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) Fingerprints(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint FROM publications
		ORDER BY posted_at ASC, fingerprint COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	fps := []string{}
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		fps = append(fps, fp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprints: %w", err)
	}

	return fps, nil
}

// History returns up to limit publications, newest first.
// A limit of zero or less returns all of them.
func (s *Store) History(ctx context.Context, limit int) ([]Publication, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, post_id, text, run_id, posted_at
		FROM publications
		ORDER BY posted_at DESC, fingerprint COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []Publication{}
	for rows.Next() {
		var p Publication
		var postedAt int64
		if err := rows.Scan(&p.Fingerprint, &p.PostID, &p.Text, &p.RunID, &postedAt); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		p.PostedAt = time.UnixMilli(postedAt).UTC()
		history = append(history, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return history, nil
}

// Count returns the number of recorded publications.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM publications").Scan(&n); err != nil {
		return 0, fmt.Errorf("count publications: %w", err)
	}
	return n, nil
}

package ledger

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Historian is implemented by ledgers that keep per-entry details.
type Historian interface {
	History(ctx context.Context, limit int) ([]Entry, error)
}

// Counter is implemented by ledgers that can count entries without
// loading them.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Open returns the ledger for backend at path.
func Open(backend, path string) (Ledger, error) {
	switch backend {
	case "", BackendFile:
		return NewFile(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}

// Import records every fingerprint of src that dst does not already hold.
// It returns the number of fingerprints added.
func Import(ctx context.Context, src Set, dst Ledger, now time.Time) (int, error) {
	existing, err := dst.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load destination: %w", err)
	}

	added := 0
	for _, fp := range src.Fingerprints() {
		if existing.Contains(fp) {
			continue
		}
		if err := dst.Record(ctx, Entry{Fingerprint: fp, PostedAt: now}); err != nil {
			return added, fmt.Errorf("import %s: %w", fp, err)
		}
		existing.add(fp)
		added++
	}
	return added, nil
}

package ledger

import (
	"context"
	"sync"
)

// Memory keeps recorded entries in process memory on top of a read-only
// base ledger. Dry runs use it so nothing reaches stable storage while
// repeated runs still see their own picks.
type Memory struct {
	base Ledger

	mu      sync.Mutex
	entries []Entry
}

// NewMemory wraps base. A nil base starts empty.
func NewMemory(base Ledger) *Memory {
	return &Memory{base: base}
}

// Load returns the base fingerprints plus everything recorded in memory.
func (m *Memory) Load(ctx context.Context) (Set, error) {
	var set Set
	if m.base != nil {
		var err error
		if set, err = m.base.Load(ctx); err != nil {
			return Set{}, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		set.add(e.Fingerprint)
	}
	return set, nil
}

// Record adds e in memory only.
func (m *Memory) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns the entries recorded in memory.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Close closes the base ledger.
func (m *Memory) Close() error {
	if m.base == nil {
		return nil
	}
	return m.base.Close()
}

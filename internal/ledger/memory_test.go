package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postbot/internal/testutil"
)

func TestMemory_OverlaysBaseWithoutWriting(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posted_hashes.txt")
	base := NewFile(path)
	require.NoError(t, base.Record(ctx, Entry{Fingerprint: "aaa"}))

	m := NewMemory(base)
	require.NoError(t, m.Record(ctx, Entry{Fingerprint: "bbb", PostID: "dry-run-1"}))

	set, err := m.Load(ctx)
	require.NoError(t, err)
	assert.True(t, set.Contains("aaa"))
	assert.True(t, set.Contains("bbb"))
	assert.Equal(t, 2, set.Len())

	assert.Equal(t, []string{"aaa"}, testutil.ReadLines(t, path), "base must stay untouched")
	require.Len(t, m.Entries(), 1)
	assert.Equal(t, "dry-run-1", m.Entries()[0].PostID)
	assert.NoError(t, m.Close())
}

func TestMemory_NilBase(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	set, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	require.NoError(t, m.Record(ctx, Entry{Fingerprint: "aaa"}))
	set, err = m.Load(ctx)
	require.NoError(t, err)
	assert.True(t, set.Contains("aaa"))
	assert.NoError(t, m.Close())
}

package selector

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/postbot/internal/content"
	"github.com/roach88/postbot/internal/corpus"
	"github.com/roach88/postbot/internal/ledger"
)

// identity leaves the order untouched.
type identity struct{}

func (identity) Shuffle(int, func(i, j int)) {}

func makeRecords(texts ...string) []corpus.Record {
	out := make([]corpus.Record, len(texts))
	for i, text := range texts {
		out[i] = corpus.Record{Row: i + 1, Text: text}
	}
	return out
}

func TestSelect_FirstAcceptableWins(t *testing.T) {
	records := makeRecords(
		"",
		"see https://example.com for details",
		"Hello  world",
		"second choice",
	)

	c, ok := Select(records, ledger.NewSet(), identity{}, 0)
	require.True(t, ok)
	assert.Equal(t, "Hello\n\nworld", c.Text)
	assert.Equal(t, content.Fingerprint("Hello\n\nworld"), c.Fingerprint)
	assert.Equal(t, 3, c.Row)
}

func TestSelect_SkipsPosted(t *testing.T) {
	records := makeRecords("one", "two")
	posted := ledger.NewSet(content.Fingerprint("one"))

	c, ok := Select(records, posted, identity{}, 0)
	require.True(t, ok)
	assert.Equal(t, "two", c.Text)
}

func TestSelect_Exhausted(t *testing.T) {
	records := makeRecords("one", "pic.twitter.com/x", "two")
	posted := ledger.NewSet(content.Fingerprint("one"), content.Fingerprint("two"))

	_, ok := Select(records, posted, identity{}, 0)
	assert.False(t, ok)

	_, ok = Select(nil, ledger.NewSet(), identity{}, 0)
	assert.False(t, ok)
}

func TestSelect_BoundedPrefix(t *testing.T) {
	records := makeRecords("one", "two", "three")
	posted := ledger.NewSet(content.Fingerprint("one"), content.Fingerprint("two"))

	_, ok := Select(records, posted, rand.New(rand.NewPCG(1, 2)), 2)
	assert.False(t, ok, "record beyond the prefix must not be considered")
}

func TestSelect_DoesNotReorderInput(t *testing.T) {
	records := makeRecords("a", "b", "c", "d", "e")
	before := append([]corpus.Record(nil), records...)

	Select(records, ledger.NewSet(), rand.New(rand.NewPCG(7, 7)), 0)
	assert.Equal(t, before, records)
}

func TestSelect_NeverReturnsPosted(t *testing.T) {
	var texts []string
	for i := 0; i < 50; i++ {
		texts = append(texts, fmt.Sprintf("text number %d", i))
	}
	records := makeRecords(texts...)
	rng := rand.New(rand.NewPCG(42, 0))

	var fps []string
	for i := 0; i < len(texts); i++ {
		posted := ledger.NewSet(fps...)
		c, ok := Select(records, posted, rng, 0)
		require.True(t, ok, "run %d", i)
		require.False(t, posted.Contains(c.Fingerprint))
		fps = append(fps, c.Fingerprint)
	}

	_, ok := Select(records, ledger.NewSet(fps...), rng, 0)
	assert.False(t, ok)
}

func TestPermutation_SeededIsReproducible(t *testing.T) {
	records := makeRecords("a", "b", "c", "d", "e", "f")

	first := Permutation(records, rand.New(rand.NewPCG(3, 4)), 0)
	second := Permutation(records, rand.New(rand.NewPCG(3, 4)), 0)
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, records, first)
}

func TestPermutation_NilShuffler(t *testing.T) {
	records := makeRecords("a", "b", "c")
	assert.ElementsMatch(t, records, Permutation(records, nil, 2+1))
	assert.Len(t, Permutation(records, nil, 1), 1)
}

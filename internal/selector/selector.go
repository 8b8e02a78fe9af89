// Package selector picks the next unpublished text from the corpus.
package selector

import (
	"math/rand/v2"

	"github.com/roach88/postbot/internal/content"
	"github.com/roach88/postbot/internal/corpus"
	"github.com/roach88/postbot/internal/ledger"
)

// DefaultMaxRange bounds how much of the corpus a single pick considers.
const DefaultMaxRange = 1000

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Candidate is a publishable, not yet published text.
type Candidate struct {
	Text        string
	Fingerprint string
	Row         int
}

// Select returns the first acceptable record of a random permutation of the
// first maxRange records. A record is acceptable when it normalizes and its
// fingerprint is not in posted. The second result is false when no record of
// the prefix is acceptable.
//
// records is not modified. A nil shuffler uses the global math/rand/v2 source.
func Select(records []corpus.Record, posted ledger.Set, shuffler Shuffler, maxRange int) (Candidate, bool) {
	order := Permutation(records, shuffler, maxRange)
	for _, rec := range order {
		if c, ok := Evaluate(rec, posted); ok {
			return c, true
		}
	}
	return Candidate{}, false
}

// Permutation returns a shuffled copy of the first maxRange records.
// maxRange <= 0 means DefaultMaxRange.
func Permutation(records []corpus.Record, shuffler Shuffler, maxRange int) []corpus.Record {
	if maxRange <= 0 {
		maxRange = DefaultMaxRange
	}
	n := min(maxRange, len(records))

	order := make([]corpus.Record, n)
	copy(order, records[:n])

	if shuffler == nil {
		shuffler = globalShuffler{}
	}
	shuffler.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// Evaluate normalizes one record and checks it against posted.
func Evaluate(rec corpus.Record, posted ledger.Set) (Candidate, bool) {
	text, ok := content.Normalize(rec.Text)
	if !ok {
		return Candidate{}, false
	}
	fp := content.Fingerprint(text)
	if posted.Contains(fp) {
		return Candidate{}, false
	}
	return Candidate{Text: text, Fingerprint: fp, Row: rec.Row}, true
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

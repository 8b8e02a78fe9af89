package session

import (
	"errors"
	"fmt"
)

// ErrNoCandidate means every record in the considered prefix is already
// posted or was rejected by normalization.
var ErrNoCandidate = errors.New("no valid new text found (all candidates already posted or rejected)")

// ErrEmptyCorpus means the corpus loaded but held no usable rows.
var ErrEmptyCorpus = errors.New("no texts loaded from corpus")

// State is a step of the publish state machine.
type State string

const (
	StateIdle       State = "idle"
	StateLocked     State = "locked"
	StateSelecting  State = "selecting"
	StatePublishing State = "publishing"
	StateCommitting State = "committing"
	StateReleased   State = "released"
)

// Outcome is the terminal result of a run.
type Outcome int

const (
	// OutcomeSuccess: posted and recorded.
	OutcomeSuccess Outcome = iota + 1
	// OutcomeBusy: another run holds the lock. Nothing was loaded.
	OutcomeBusy
	// OutcomeCorpusUnavailable: the corpus is missing, unreadable or empty.
	OutcomeCorpusUnavailable
	// OutcomeNoCandidate: nothing left to post in the considered prefix.
	OutcomeNoCandidate
	// OutcomePublishRejected: the publisher failed. The text stays eligible.
	OutcomePublishRejected
	// OutcomeLedgerWriteFailure: posted but not recorded. The text may be
	// posted again by a later run.
	OutcomeLedgerWriteFailure
	// OutcomeIOFailure: the lock marker could not be created, or the
	// ledger could not be read.
	OutcomeIOFailure
)

var outcomeNames = map[Outcome]string{
	OutcomeSuccess:            "success",
	OutcomeBusy:               "busy",
	OutcomeCorpusUnavailable:  "corpus_unavailable",
	OutcomeNoCandidate:        "no_candidate",
	OutcomePublishRejected:    "publish_rejected",
	OutcomeLedgerWriteFailure: "ledger_write_failure",
	OutcomeIOFailure:          "io_failure",
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeSuccess,
		OutcomeBusy,
		OutcomeCorpusUnavailable,
		OutcomeNoCandidate,
		OutcomePublishRejected,
		OutcomeLedgerWriteFailure,
		OutcomeIOFailure,
	}
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText renders the outcome name in JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

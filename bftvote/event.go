// Package bftvote implements the vote keeper: per-round, per-vote-type
// weighted tallying of signed votes, emission of threshold-crossing events
// exactly once, and detection of a future round worth skipping to.
package bftvote

import (
	"fmt"

	"github.com/bftengine/core/bftconsensus"
)

// EventKind identifies which threshold a ThresholdEvent reports.
type EventKind uint8

const (
	// PolkaAny reports that some combination of prevotes, for possibly
	// differing values, has reached quorum.
	PolkaAny EventKind = iota
	// PolkaNil reports that prevotes for nil have reached quorum.
	PolkaNil
	// PolkaValue reports that prevotes for one specific value have
	// reached quorum.
	PolkaValue
	// PrecommitAny reports that some combination of precommits has
	// reached quorum.
	PrecommitAny
	// PrecommitValue reports that precommits for one specific value have
	// reached quorum.
	PrecommitValue
	// SkipRound reports that enough distinct validators have moved to a
	// round beyond the current one that an honest validator must be
	// among them.
	SkipRound
)

func (k EventKind) String() string {
	switch k {
	case PolkaAny:
		return "PolkaAny"
	case PolkaNil:
		return "PolkaNil"
	case PolkaValue:
		return "PolkaValue"
	case PrecommitAny:
		return "PrecommitAny"
	case PrecommitValue:
		return "PrecommitValue"
	case SkipRound:
		return "SkipRound"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// ThresholdEvent reports a weighted threshold newly crossed by the votes
// recorded for one round and vote type.
type ThresholdEvent struct {
	Kind    EventKind
	Round   bftconsensus.Round // round the threshold applies to
	ValueID bftconsensus.ValueID
}

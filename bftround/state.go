package bftround

import "github.com/bftengine/core/bftconsensus"

// TimeoutKind identifies which of a round's timeouts an output schedules
// or an input reports the expiry of.
type TimeoutKind uint8

const (
	TimeoutPropose TimeoutKind = iota
	TimeoutPrevote
	TimeoutPrecommit
)

// State is the full state of one round: its step, and the locked/valid
// values carried across rounds within a height.
//
// Locked is the value (and the round at which it was locked) this
// validator has precommitted to and must not abandon without a newer
// polka. Valid is the value (and the round at which a polka for it was
// last observed) this validator may safely re-propose. The invariant
// Valid.Round >= Locked.Round always holds once both are set: a lock can
// never be newer than the most recent polka.
type State struct {
	Height bftconsensus.Height
	Round  bftconsensus.Round
	Step   Step

	Locked *bftconsensus.RoundValue
	Valid  *bftconsensus.RoundValue
}

// NewState returns the unstarted state for the first round of height.
func NewState(height bftconsensus.Height) State {
	return State{
		Height: height,
		Round:  bftconsensus.NewRound(0),
		Step:   Unstarted,
	}
}

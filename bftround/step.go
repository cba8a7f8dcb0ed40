// Package bftround implements the per-round state machine: the Propose,
// Prevote, Precommit, Commit step sequence a single round of consensus
// moves through, driven by proposal and threshold-event inputs and
// producing vote, timeout, and decision outputs. The machine is pure: it
// holds no channels and performs no I/O, so its behavior is exhaustively
// testable and deterministically replayable.
package bftround

import "fmt"

// Step is one stage of a round.
type Step uint8

const (
	Unstarted Step = iota
	Propose
	Prevote
	Precommit
	Commit
)

func (s Step) String() string {
	switch s {
	case Unstarted:
		return "Unstarted"
	case Propose:
		return "Propose"
	case Prevote:
		return "Prevote"
	case Precommit:
		return "Precommit"
	case Commit:
		return "Commit"
	default:
		return fmt.Sprintf("Step(%d)", uint8(s))
	}
}

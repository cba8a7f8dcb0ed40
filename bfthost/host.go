// Package bfthost defines the contracts a host application and its
// surrounding infrastructure must satisfy to drive a height of consensus:
// supplying values to propose, validating proposed values, selecting each
// round's proposer, and supplying the validator set. These are the
// external collaborators the core never implements itself.
package bfthost

import (
	"context"

	"github.com/bftengine/core/bftconsensus"
)

// ValueBuilder supplies and validates the application-level values a
// height of consensus decides between.
type ValueBuilder interface {
	// GetValue asks the host to produce a new value to propose for
	// height/round. Called only when this validator is the round's
	// proposer and has no already-valid value to re-propose.
	GetValue(ctx context.Context, height bftconsensus.Height, round bftconsensus.Round) (bftconsensus.Value, error)

	// ValidateValue asks the host whether value is acceptable to build
	// on top of. The core propagates the verdict through the round state
	// machine but never inspects or overrides it.
	ValidateValue(ctx context.Context, height bftconsensus.Height, round bftconsensus.Round, value bftconsensus.Value) (bool, error)

	// FinalizeValue is called once, after a height decides, with the
	// value decided.
	FinalizeValue(ctx context.Context, height bftconsensus.Height, value bftconsensus.Value) error
}

// ValidatorSetProvider supplies the validator set for a height.
type ValidatorSetProvider interface {
	GetValidatorSet(ctx context.Context, height bftconsensus.Height) (bftconsensus.ValidatorSet, error)
}

// ProposerSelector chooses the proposer for a round, deterministically
// from the validator set so every honest validator agrees.
type ProposerSelector interface {
	ProposerForRound(vs bftconsensus.ValidatorSet, round bftconsensus.Round) bftconsensus.Address
}

// RoundRobinProposerSelector selects proposers by cycling through the
// validator set's deterministic address order, advancing one step per
// round. It ignores voting power, unlike a weighted round robin; it
// exists as a simple, always-available default, not a production
// proposer-selection policy.
type RoundRobinProposerSelector struct{}

func (RoundRobinProposerSelector) ProposerForRound(vs bftconsensus.ValidatorSet, round bftconsensus.Round) bftconsensus.Address {
	n := vs.Len()
	if n == 0 {
		return ""
	}
	idx := 0
	if !round.IsNil() {
		idx = int(round.Num()) % n
	}
	return vs.Validators()[idx].Address
}

package bftconsensus

import "errors"

var (
	// ErrZeroVotingPower is returned when constructing a ValidatorSet with
	// a validator that carries no voting power.
	ErrZeroVotingPower = errors.New("bftconsensus: validator has zero voting power")

	// ErrDuplicateValidator is returned when constructing a ValidatorSet
	// with the same address more than once.
	ErrDuplicateValidator = errors.New("bftconsensus: duplicate validator address")
)

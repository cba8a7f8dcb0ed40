package bftvote

import "errors"

var (
	// ErrHeightMismatch is returned when a vote's height differs from the
	// Keeper's height.
	ErrHeightMismatch = errors.New("bftvote: vote height does not match keeper height")

	// ErrUnknownValidator is returned when a vote's voter address is not
	// in the Keeper's validator set.
	ErrUnknownValidator = errors.New("bftvote: voter is not in the validator set")
)

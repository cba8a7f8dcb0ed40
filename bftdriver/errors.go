package bftdriver

import "errors"

var (
	// ErrHeightMismatch is returned when an input's height does not
	// match the driver's current height.
	ErrHeightMismatch = errors.New("bftdriver: input height does not match driver height")

	// ErrUnknownProposer is returned when a received proposal's claimed
	// proposer is not in the validator set.
	ErrUnknownProposer = errors.New("bftdriver: proposer is not in the validator set")

	// ErrWrongProposer is returned when a received proposal's claimed
	// proposer is not the round's selected proposer.
	ErrWrongProposer = errors.New("bftdriver: proposer is not selected for this round")

	// ErrNonSequentialHeight is returned from MoveToHeight when the
	// target height does not immediately follow the driver's current
	// height.
	ErrNonSequentialHeight = errors.New("bftdriver: target height does not follow the current height")

	// ErrInvalidCertificateHeight is returned when a received commit
	// certificate's height does not match the driver's current height.
	ErrInvalidCertificateHeight = errors.New("bftdriver: certificate height does not match driver height")
)

package bftproposal

import "errors"

var (
	ErrHeightMismatch  = errors.New("bftproposal: proposal height does not match keeper height")
	ErrUnknownProposer = errors.New("bftproposal: proposer is not in the validator set")
)

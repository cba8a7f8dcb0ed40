package bftengine

import "errors"

var (
	// ErrMissingSigner is returned by New when no signer was configured;
	// a participating validator must be able to sign its own votes and
	// proposals.
	ErrMissingSigner = errors.New("bftengine: no signer configured")

	// ErrMissingValueBuilder is returned by New when no ValueBuilder was
	// configured.
	ErrMissingValueBuilder = errors.New("bftengine: no value builder configured")

	// ErrMissingProposerSelector is returned by New when no
	// ProposerSelector was configured.
	ErrMissingProposerSelector = errors.New("bftengine: no proposer selector configured")

	// ErrMissingWAL is returned by New when no WAL was configured.
	ErrMissingWAL = errors.New("bftengine: no write-ahead log configured")

	// ErrMissingSignatureScheme is returned by New when no
	// SignatureScheme was configured.
	ErrMissingSignatureScheme = errors.New("bftengine: no signature scheme configured")

	// ErrMissingHashScheme is returned by New when no HashScheme was
	// configured.
	ErrMissingHashScheme = errors.New("bftengine: no hash scheme configured")

	// ErrHeightNotStarted is returned when Process is called with any
	// input kind other than StartHeightInput before a height has begun.
	ErrHeightNotStarted = errors.New("bftengine: no height in progress, send StartHeightInput first")

	// ErrInvalidSignature is returned when a received vote or proposal's
	// signature does not verify against its claimed signer.
	ErrInvalidSignature = errors.New("bftengine: signature does not verify")

	// ErrUnknownVoter is returned when a received vote's voter is not a
	// member of the current validator set.
	ErrUnknownVoter = errors.New("bftengine: voter is not in the validator set")
)

package bftcert

import "errors"

var (
	// ErrMessageMismatch is returned when a certificate's signature proof
	// signs a different message than the one its fields imply.
	ErrMessageMismatch = errors.New("bftcert: signature proof message does not match certificate fields")

	// ErrQuorumNotMet is returned when a certificate's signed voting
	// power falls short of quorum.
	ErrQuorumNotMet = errors.New("bftcert: signed voting power does not meet quorum")

	// ErrUnknownValidator is returned when building a certificate from a
	// vote cast by an address outside the validator set.
	ErrUnknownValidator = errors.New("bftcert: voter is not in the validator set")

	// ErrRoundMismatch is returned when a piece of evidence attached to a
	// certificate names a round other than the certificate's own.
	ErrRoundMismatch = errors.New("bftcert: evidence round does not match certificate round")

	// ErrInvalidSignature is returned when a vote attached as evidence
	// fails to verify against its claimed voter's public key.
	ErrInvalidSignature = errors.New("bftcert: evidence signature does not verify")

	// ErrHonestFractionNotMet is returned when a skip-round certificate's
	// distinct signed voting power falls short of the honest fraction.
	ErrHonestFractionNotMet = errors.New("bftcert: signed voting power does not meet the honest fraction")
)

package bftcrypto

import "errors"

var (
	// ErrUnknownKey is returned when a signature is offered for a public
	// key outside the proof's candidate set.
	ErrUnknownKey = errors.New("bftcrypto: public key not in candidate set")

	// ErrInvalidSignature is returned when a signature does not verify
	// against the key it is claimed to belong to.
	ErrInvalidSignature = errors.New("bftcrypto: signature does not verify")
)

// Package bftcrypto provides the signing and verification contracts the
// consensus core signs votes and proposals against, along with an ed25519
// implementation and a bitset-backed aggregate signature proof used to
// build commit and polka certificates compactly.
package bftcrypto

// PubKey is a public key capable of verifying signatures produced by its
// matching Signer. Implementations must be comparable with Equal and must
// produce a stable PubKeyBytes encoding, since that encoding is used as a
// registry and verification key.
type PubKey interface {
	// PubKeyBytes returns the canonical encoding of the public key.
	PubKeyBytes() []byte

	// Verify reports whether sig is a valid signature of msg under this
	// public key.
	Verify(msg, sig []byte) bool

	// Equal reports whether o represents the same public key.
	Equal(o PubKey) bool

	// TypeName identifies the key scheme, e.g. "ed25519".
	TypeName() string
}

// Signer produces signatures that verify against a corresponding PubKey.
// Implementations must be safe for concurrent use.
type Signer interface {
	PubKey() PubKey

	// Sign returns a signature of msg.
	Sign(msg []byte) ([]byte, error)
}

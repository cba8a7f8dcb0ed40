package bftcrypto

import (
	"crypto/ed25519"
	"fmt"
)

// Ed25519PubKey adapts an ed25519 public key to the PubKey interface.
type Ed25519PubKey struct {
	Key ed25519.PublicKey
}

func (k Ed25519PubKey) PubKeyBytes() []byte { return []byte(k.Key) }

func (k Ed25519PubKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(k.Key, msg, sig)
}

func (k Ed25519PubKey) Equal(o PubKey) bool {
	ok, isEd := o.(Ed25519PubKey)
	if !isEd {
		return false
	}
	return k.Key.Equal(ok.Key)
}

func (k Ed25519PubKey) TypeName() string { return "ed25519" }

// Ed25519Signer adapts an ed25519 private key to the Signer interface.
type Ed25519Signer struct {
	Key ed25519.PrivateKey
}

// NewEd25519Signer wraps priv as a Signer.
func NewEd25519Signer(priv ed25519.PrivateKey) Ed25519Signer {
	return Ed25519Signer{Key: priv}
}

func (s Ed25519Signer) PubKey() PubKey {
	return Ed25519PubKey{Key: s.Key.Public().(ed25519.PublicKey)}
}

func (s Ed25519Signer) Sign(msg []byte) ([]byte, error) {
	if len(s.Key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("bftcrypto: invalid ed25519 private key size %d", len(s.Key))
	}
	return ed25519.Sign(s.Key, msg), nil
}

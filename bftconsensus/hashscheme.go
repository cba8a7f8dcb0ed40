package bftconsensus

import "golang.org/x/crypto/blake2b"

// SimpleHashScheme hashes public key sets and voting-power sets with
// blake2b-256, matching the corpus's general preference for the blake2b
// family over sha256 for this sort of structural hashing.
type SimpleHashScheme struct{}

func (SimpleHashScheme) PubKeys(pubKeyBytes [][]byte) []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors for an invalid key, and we pass none.
		panic(err)
	}
	for _, b := range pubKeyBytes {
		_, _ = h.Write(b)
	}
	return h.Sum(nil)
}

func (SimpleHashScheme) VotePowers(powers []uint64) []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	buf := make([]byte, 8)
	for _, p := range powers {
		for i := 0; i < 8; i++ {
			buf[i] = byte(p >> (8 * (7 - i)))
		}
		_, _ = h.Write(buf)
	}
	return h.Sum(nil)
}

// PubKeyHash returns a hex-ish string identifying vs's candidate key set,
// suitable as the pubKeyHash argument to bftcrypto.NewSignatureProof.
func PubKeyHash(scheme HashScheme, vs ValidatorSet) string {
	keys := vs.PubKeys()
	bs := make([][]byte, len(keys))
	for i, k := range keys {
		bs[i] = k.PubKeyBytes()
	}
	return string(scheme.PubKeys(bs))
}

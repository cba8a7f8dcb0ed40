package bftcrypto

import (
	"bytes"
	"encoding/binary"
	"maps"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// SignatureProofMergeResult reports what happened when merging signature
// information from another proof or sparse proof into an existing one.
type SignatureProofMergeResult struct {
	// AllValidSignatures is false if any incoming signature failed to
	// verify or referenced a key outside the candidate set.
	AllValidSignatures bool

	// IncreasedSignatures is true if the merge added at least one new
	// signature that the proof did not already have.
	IncreasedSignatures bool
}

// SparseSignature is a single signature in a SparseSignatureProof, keyed by
// a 16-bit big-endian index into the candidate key set.
type SparseSignature struct {
	KeyID []byte
	Sig   []byte
}

// SparseSignatureProof is the minimal, network-transmittable representation
// of a SignatureProof: enough to merge into a fuller proof that already
// knows the candidate key set.
type SparseSignatureProof struct {
	PubKeyHash string
	Signatures []SparseSignature
}

// SignatureProof tracks, for one signed message and one fixed candidate
// validator set, which validators have produced a valid signature. It
// backs certificate aggregation in bftcert: one bit per validator,
// indexed by the validator's position in the candidate set.
type SignatureProof struct {
	msg []byte

	// string(pub key bytes) -> signature bytes
	sigs map[string][]byte

	keys    []PubKey
	keyIdxs map[string]int
	keyHash string

	bits *bitset.BitSet
}

// NewSignatureProof creates an empty proof for msg over the given ordered
// candidate key set, identified by pubKeyHash (typically a hash over the
// validator set, so independently constructed proofs can confirm they
// reference the same validators before merging).
func NewSignatureProof(msg []byte, candidateKeys []PubKey, pubKeyHash string) SignatureProof {
	keyIdxs := make(map[string]int, len(candidateKeys))
	for i, k := range candidateKeys {
		keyIdxs[string(k.PubKeyBytes())] = i
	}

	return SignatureProof{
		msg:     msg,
		sigs:    make(map[string][]byte),
		keys:    candidateKeys,
		keyIdxs: keyIdxs,
		keyHash: pubKeyHash,
		bits:    bitset.New(uint(len(candidateKeys))),
	}
}

func (p *SignatureProof) Message() []byte    { return p.msg }
func (p *SignatureProof) PubKeyHash() string { return p.keyHash }

// AddSignature verifies sig against key and, if valid, records it.
func (p *SignatureProof) AddSignature(sig []byte, key PubKey) error {
	idx, ok := p.keyIdxs[string(key.PubKeyBytes())]
	if !ok {
		return ErrUnknownKey
	}
	if !key.Verify(p.msg, sig) {
		return ErrInvalidSignature
	}

	p.sigs[string(key.PubKeyBytes())] = sig
	p.bits.Set(uint(idx))
	return nil
}

// Matches reports whether p and o reference the same message and candidate
// key set, making them safe to merge.
func (p *SignatureProof) Matches(o *SignatureProof) bool {
	return bytes.Equal(p.msg, o.msg) && p.keyHash == o.keyHash
}

// Merge folds the signatures in o into p, without modifying o. It assumes
// Matches(o) is true.
func (p *SignatureProof) Merge(o *SignatureProof) SignatureProofMergeResult {
	if !p.Matches(o) {
		return SignatureProofMergeResult{}
	}

	res := SignatureProofMergeResult{AllValidSignatures: true}
	for keyBytes, sig := range o.sigs {
		if _, have := p.sigs[keyBytes]; have {
			continue
		}
		idx, ok := p.keyIdxs[keyBytes]
		if !ok {
			res.AllValidSignatures = false
			continue
		}
		key := p.keys[idx]
		if err := p.AddSignature(sig, key); err != nil {
			res.AllValidSignatures = false
			continue
		}
		res.IncreasedSignatures = true
	}
	return res
}

// SignatureBitSet copies the set of signed validator indices into dst.
func (p *SignatureProof) SignatureBitSet(dst *bitset.BitSet) {
	p.bits.CopyFull(dst)
}

// SignedPower sums the voting power of every validator recorded as signed,
// given the candidate set's corresponding powers in the same order the
// proof was constructed with.
func (p *SignatureProof) SignedPower(powers []uint64) uint64 {
	var total uint64
	for i, pw := range powers {
		if p.bits.Test(uint(i)) {
			total += pw
		}
	}
	return total
}

// AsSparse returns a network-transmittable summary of p.
func (p *SignatureProof) AsSparse() SparseSignatureProof {
	out := make([]SparseSignature, 0, len(p.sigs))
	for keyBytes, sig := range p.sigs {
		idx := p.keyIdxs[keyBytes]
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(idx))
		out = append(out, SparseSignature{KeyID: b[:], Sig: sig})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].KeyID, out[j].KeyID) < 0
	})
	return SparseSignatureProof{PubKeyHash: p.keyHash, Signatures: out}
}

// MergeSparse merges a sparse proof received from a peer.
func (p *SignatureProof) MergeSparse(s SparseSignatureProof) SignatureProofMergeResult {
	if p.keyHash != s.PubKeyHash {
		return SignatureProofMergeResult{}
	}

	res := SignatureProofMergeResult{AllValidSignatures: true}
	before := p.bits.Count()
	for _, ss := range s.Signatures {
		if len(ss.KeyID) != 2 {
			res.AllValidSignatures = false
			continue
		}
		idx := int(binary.BigEndian.Uint16(ss.KeyID))
		if idx < 0 || idx >= len(p.keys) {
			res.AllValidSignatures = false
			continue
		}
		if err := p.AddSignature(ss.Sig, p.keys[idx]); err != nil {
			res.AllValidSignatures = false
			continue
		}
	}
	res.IncreasedSignatures = p.bits.Count() > before
	return res
}

// Clone returns an independent copy of p.
func (p *SignatureProof) Clone() *SignatureProof {
	return &SignatureProof{
		msg:     bytes.Clone(p.msg),
		sigs:    maps.Clone(p.sigs),
		keys:    p.keys,
		keyIdxs: p.keyIdxs,
		keyHash: p.keyHash,
		bits:    p.bits.Clone(),
	}
}

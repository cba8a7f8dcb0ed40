// Package bftconsensustest provides deterministic fixtures for exercising
// the consensus core in tests without wiring a real network or a real host
// application: ed25519-backed validator sets, a signing helper, and the
// default signature and hash schemes.
package bftconsensustest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftcrypto"
)

// PrivVal is the "private" view of a validator: the plain consensus
// validator, plus the signer a test harness uses to act as that validator.
type PrivVal struct {
	Val    bftconsensus.Validator
	Signer bftcrypto.Signer
}

// PrivVals is a deterministic, ordered collection of PrivVal.
type PrivVals []PrivVal

// Vals returns the plain validator view of each entry.
func (vs PrivVals) Vals() []bftconsensus.Validator {
	out := make([]bftconsensus.Validator, len(vs))
	for i, v := range vs {
		out[i] = v.Val
	}
	return out
}

// ValidatorSet builds a bftconsensus.ValidatorSet from vs.
func (vs PrivVals) ValidatorSet() (bftconsensus.ValidatorSet, error) {
	return bftconsensus.NewValidatorSet(vs.Vals())
}

// SignerFor returns the signer belonging to addr, for tests that need to
// act as one specific validator.
func (vs PrivVals) SignerFor(addr bftconsensus.Address) (bftcrypto.Signer, bool) {
	for _, v := range vs {
		if v.Val.Address == addr {
			return v.Signer, true
		}
	}
	return nil, false
}

// DeterministicValidatorsEd25519 returns n validators with ed25519 keys
// derived from a fixed seed per index, so repeated test runs produce
// identical keys, addresses, and log output. Voting power descends from
// 100_000 by index. A ValidatorSet built from them orders validators by
// address, so a validator's index here is not its position in the set.
func DeterministicValidatorsEd25519(n int) PrivVals {
	res := make(PrivVals, n)
	for i := range res {
		seed := sha256.Sum256([]byte(fmt.Sprintf("bftconsensustest-validator-%d", i)))
		priv := ed25519.NewKeyFromSeed(seed[:])
		signer := bftcrypto.NewEd25519Signer(priv)
		pubKey := signer.PubKey()

		addr := bftconsensus.Address(fmt.Sprintf("%x", pubKey.PubKeyBytes()[:8]))

		res[i] = PrivVal{
			Val: bftconsensus.Validator{
				Address: addr,
				PubKey:  pubKey,
				Power:   uint64(100_000 - i),
			},
			Signer: signer,
		}
	}
	return res
}

// SignVote signs v with signer and returns the SignedVote, using the given
// scheme and validator set to compute the canonical signing bytes.
func SignVote(scheme bftconsensus.SignatureScheme, vs bftconsensus.ValidatorSet, signer bftcrypto.Signer, v bftconsensus.Vote) (bftconsensus.SignedVote, error) {
	msg := scheme.VoteSigningBytes(vs, v)
	sig, err := signer.Sign(msg)
	if err != nil {
		return bftconsensus.SignedVote{}, fmt.Errorf("bftconsensustest: signing vote: %w", err)
	}
	return bftconsensus.SignedVote{Vote: v, Signature: sig}, nil
}

// SignProposal signs p with signer and returns the SignedProposal.
func SignProposal(scheme bftconsensus.SignatureScheme, vs bftconsensus.ValidatorSet, signer bftcrypto.Signer, p bftconsensus.Proposal) (bftconsensus.SignedProposal, error) {
	msg := scheme.ProposalSigningBytes(vs, p)
	sig, err := signer.Sign(msg)
	if err != nil {
		return bftconsensus.SignedProposal{}, fmt.Errorf("bftconsensustest: signing proposal: %w", err)
	}
	return bftconsensus.SignedProposal{Proposal: p, Signature: sig}, nil
}

// NewValue builds a deterministic test Value from a label: its ID is the
// sha256 of the label, and its Data is the label itself.
func NewValue(label string) bftconsensus.Value {
	sum := sha256.Sum256([]byte(label))
	return bftconsensus.Value{
		ID:   bftconsensus.ValueID(sum[:]),
		Data: []byte(label),
	}
}

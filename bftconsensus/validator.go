package bftconsensus

import (
	"sort"

	"github.com/bftengine/core/bftcrypto"
)

// Validator is one member of a ValidatorSet.
type Validator struct {
	Address Address
	PubKey  bftcrypto.PubKey
	Power   uint64
}

// ValidatorSet is a fixed, deterministically ordered list of validators for
// a height of consensus. Order is by Address, ascending, so every honest
// participant computes the same candidate-key ordering for signature
// proofs and the same proposer-selection input.
type ValidatorSet struct {
	validators []Validator
	byAddress  map[Address]int
	total      uint64
}

// NewValidatorSet builds a ValidatorSet from vs, sorting by Address and
// rejecting duplicate addresses or zero power.
func NewValidatorSet(vs []Validator) (ValidatorSet, error) {
	cp := make([]Validator, len(vs))
	copy(cp, vs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Address < cp[j].Address })

	byAddr := make(map[Address]int, len(cp))
	var total uint64
	for i, v := range cp {
		if v.Power == 0 {
			return ValidatorSet{}, ErrZeroVotingPower
		}
		if _, dup := byAddr[v.Address]; dup {
			return ValidatorSet{}, ErrDuplicateValidator
		}
		byAddr[v.Address] = i
		total += v.Power
	}

	return ValidatorSet{validators: cp, byAddress: byAddr, total: total}, nil
}

// Validators returns the ordered validator list. Callers must not mutate
// the returned slice.
func (vs ValidatorSet) Validators() []Validator { return vs.validators }

// TotalPower returns the sum of every validator's voting power.
func (vs ValidatorSet) TotalPower() uint64 { return vs.total }

// Len returns the number of validators.
func (vs ValidatorSet) Len() int { return len(vs.validators) }

// GetByAddress looks up a validator by address.
func (vs ValidatorSet) GetByAddress(addr Address) (Validator, bool) {
	idx, ok := vs.byAddress[addr]
	if !ok {
		return Validator{}, false
	}
	return vs.validators[idx], true
}

// IndexOf returns the validator's position in the deterministic ordering,
// used as the candidate-key index for signature proofs.
func (vs ValidatorSet) IndexOf(addr Address) (int, bool) {
	idx, ok := vs.byAddress[addr]
	return idx, ok
}

// PubKeys returns the ordered public keys, suitable as a signature proof's
// candidate key set.
func (vs ValidatorSet) PubKeys() []bftcrypto.PubKey {
	out := make([]bftcrypto.PubKey, len(vs.validators))
	for i, v := range vs.validators {
		out[i] = v.PubKey
	}
	return out
}

// Powers returns the ordered voting powers, aligned with PubKeys and
// IndexOf, for use with a bftcrypto.SignatureProof's SignedPower.
func (vs ValidatorSet) Powers() []uint64 {
	out := make([]uint64, len(vs.validators))
	for i, v := range vs.validators {
		out[i] = v.Power
	}
	return out
}

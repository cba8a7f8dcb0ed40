// Package bftconsensus defines the data model shared by the round state
// machine, vote keeper, proposal keepers, driver, and certificates: the
// parametric types described by the core specification, realized here with
// concrete (rather than generic) representations the way tmconsensus
// realizes its own parametric types concretely.
package bftconsensus

import "fmt"

// Height is a totally ordered, incrementable identifier of a consensus
// instance.
type Height uint64

// Increment returns h+1.
func (h Height) Increment() Height {
	return h + 1
}

// DecrementOrDefault returns h-1, or h itself if h is already zero.
func (h Height) DecrementOrDefault() Height {
	if h == 0 {
		return 0
	}
	return h - 1
}

// Address identifies a validator. It is opaque to the core; integrators
// typically derive it from a public key.
type Address string

// ValueID is a collision-resistant identifier for a Value, suitable for
// equality comparison and as a map key.
type ValueID string

// Value is the application payload a height of consensus decides on. The
// core never inspects Data; it only ever compares IDs.
type Value struct {
	ID   ValueID
	Data []byte
}

// IsZero reports whether v is the zero Value.
func (v Value) IsZero() bool {
	return v.ID == "" && v.Data == nil
}

// NilOrVal is the payload of a vote: either an explicit vote for nothing,
// or a vote for a specific value by its ID.
type NilOrVal struct {
	isVal bool
	id    ValueID
}

// NilVote is the "vote for nothing" payload.
func NilVote() NilOrVal { return NilOrVal{} }

// ValVote is the "vote for this value" payload.
func ValVote(id ValueID) NilOrVal { return NilOrVal{isVal: true, id: id} }

// IsNil reports whether v is a vote for nothing.
func (v NilOrVal) IsNil() bool { return !v.isVal }

// ID returns the voted-for value's ID. It panics if v IsNil.
func (v NilOrVal) ID() ValueID {
	if !v.isVal {
		panic("bftconsensus: ID called on a Nil vote payload")
	}
	return v.id
}

func (v NilOrVal) String() string {
	if v.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("val(%x)", string(v.id))
}

// Equal reports whether v and o represent the same vote payload.
func (v NilOrVal) Equal(o NilOrVal) bool {
	return v.isVal == o.isVal && (!v.isVal || v.id == o.id)
}

// VoteType distinguishes the two votes cast per round.
type VoteType uint8

const (
	Prevote VoteType = iota
	Precommit
)

func (t VoteType) String() string {
	switch t {
	case Prevote:
		return "prevote"
	case Precommit:
		return "precommit"
	default:
		return fmt.Sprintf("VoteType(%d)", uint8(t))
	}
}

// Vote is a validator's vote for a round.
type Vote struct {
	Type   VoteType
	Height Height
	Round  Round
	Value  NilOrVal
	Voter  Address

	// Extension carries opaque application bytes attached to a Precommit.
	// Per the core's signing policy, when non-nil this is signed together
	// with the vote, never separately.
	Extension []byte
}

// Proposal is the value a proposer offers for a round, optionally claiming
// a proof-of-lock from an earlier round.
type Proposal struct {
	Height   Height
	Round    Round
	Value    Value
	PolRound Round // Nil if no proof-of-lock is claimed.
	Proposer Address
}

// Signature is an opaque digital signature.
type Signature []byte

// SignedVote pairs a Vote with its signature.
type SignedVote struct {
	Vote      Vote
	Signature Signature
}

// SignedProposal pairs a Proposal with its signature.
type SignedProposal struct {
	Proposal  Proposal
	Signature Signature
}

// RoundValue pairs a value with the round at which it became valid, i.e.
// the round at which a polka for it was observed.
type RoundValue struct {
	ValueID ValueID
	Round   Round
}

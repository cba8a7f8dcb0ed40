// Package bftcert implements the certificate types that summarize a
// completed round or height of consensus into a compact, independently
// verifiable proof: a CommitCertificate (a height decided a value), a
// PolkaCertificate (a round reached a prevote quorum for a value), and a
// RoundCertificate (a round concluded, either by skipping ahead or by
// reaching a precommit quorum).
package bftcert

import (
	"fmt"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftcrypto"
)

// CommitCertificate proves that height decided Value at Round: a
// precommit quorum for Value.ID, aggregated into Proof.
type CommitCertificate struct {
	Height  bftconsensus.Height
	Round   bftconsensus.Round
	Value   bftconsensus.Value
	Proof   *bftcrypto.SignatureProof
}

// Verify checks that Proof's signed power over vs meets quorum and that
// every signature is against the canonical precommit message for this
// certificate's height, round, and value.
func (c CommitCertificate) Verify(vs bftconsensus.ValidatorSet, scheme bftconsensus.SignatureScheme, params bftconsensus.ThresholdParams) error {
	want := scheme.VoteSigningBytes(vs, bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: c.Height, Round: c.Round,
		Value: bftconsensus.ValVote(c.Value.ID),
	})
	if string(c.Proof.Message()) != string(want) {
		return fmt.Errorf("%w: commit certificate signs the wrong message", ErrMessageMismatch)
	}

	signed := c.Proof.SignedPower(vs.Powers())
	if !params.HasQuorum(signed, vs.TotalPower()) {
		return fmt.Errorf("%w: signed power %d of %d", ErrQuorumNotMet, signed, vs.TotalPower())
	}
	return nil
}

// PolkaCertificate proves that round reached a prevote quorum for Value,
// aggregated into Proof.
type PolkaCertificate struct {
	Height bftconsensus.Height
	Round  bftconsensus.Round
	Value  bftconsensus.Value
	Proof  *bftcrypto.SignatureProof
}

// Verify checks Proof against the canonical prevote message and quorum.
func (c PolkaCertificate) Verify(vs bftconsensus.ValidatorSet, scheme bftconsensus.SignatureScheme, params bftconsensus.ThresholdParams) error {
	want := scheme.VoteSigningBytes(vs, bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: c.Height, Round: c.Round,
		Value: bftconsensus.ValVote(c.Value.ID),
	})
	if string(c.Proof.Message()) != string(want) {
		return fmt.Errorf("%w: polka certificate signs the wrong message", ErrMessageMismatch)
	}

	signed := c.Proof.SignedPower(vs.Powers())
	if !params.HasQuorum(signed, vs.TotalPower()) {
		return fmt.Errorf("%w: signed power %d of %d", ErrQuorumNotMet, signed, vs.TotalPower())
	}
	return nil
}

// RoundCertificateKind distinguishes why a round concluded.
type RoundCertificateKind uint8

const (
	// RoundSkipped means enough validators were observed voting at a
	// later round that this validator could skip ahead without a
	// precommit quorum for the skipped round.
	RoundSkipped RoundCertificateKind = iota

	// RoundPrecommitted means the round reached a precommit quorum
	// (possibly for nil), without reaching a decision.
	RoundPrecommitted
)

// RoundCertificate proves that a round concluded without necessarily
// deciding a value: either via a skip-round honest-fraction observation,
// or via a precommit quorum for nil (or for a value that did not end up
// being decided this round, e.g. because the matching proposal never
// arrived).
type RoundCertificate struct {
	Height bftconsensus.Height
	Round  bftconsensus.Round
	Kind   RoundCertificateKind

	// Proof is set when Kind is RoundPrecommitted; it aggregates the
	// precommit signatures that reached quorum.
	Proof *bftcrypto.SignatureProof

	// Value is the value precommitted to, or the zero Value if the
	// quorum was for nil. Only meaningful when Kind is
	// RoundPrecommitted.
	Value bftconsensus.Value

	// Votes is set when Kind is RoundSkipped: the signed votes observed
	// at Round, of any vote type or value and possibly several from one
	// voter; their combined weight, each voter counted once, is the
	// evidence that an honest validator must have moved on to Round.
	Votes []bftconsensus.SignedVote
}

// Verify checks a RoundCertificate. A RoundSkipped certificate is checked
// by verifying every attached vote's signature and round, deduplicating by
// voter, and requiring the distinct signed weight to meet the honest
// fraction (not the quorum fraction — a skip-round certificate only proves
// at least one honest validator moved ahead, not that a majority did). A
// RoundPrecommitted certificate is checked like a CommitCertificate but
// against the precommit-for-nil-or-value message.
func (c RoundCertificate) Verify(vs bftconsensus.ValidatorSet, scheme bftconsensus.SignatureScheme, params bftconsensus.ThresholdParams) error {
	if c.Kind == RoundSkipped {
		return c.verifySkipped(vs, scheme, params)
	}

	value := bftconsensus.NilVote()
	if c.Value.ID != "" {
		value = bftconsensus.ValVote(c.Value.ID)
	}
	want := scheme.VoteSigningBytes(vs, bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: c.Height, Round: c.Round, Value: value,
	})
	if string(c.Proof.Message()) != string(want) {
		return fmt.Errorf("%w: round certificate signs the wrong message", ErrMessageMismatch)
	}

	signed := c.Proof.SignedPower(vs.Powers())
	if !params.HasQuorum(signed, vs.TotalPower()) {
		return fmt.Errorf("%w: signed power %d of %d", ErrQuorumNotMet, signed, vs.TotalPower())
	}
	return nil
}

func (c RoundCertificate) verifySkipped(vs bftconsensus.ValidatorSet, scheme bftconsensus.SignatureScheme, params bftconsensus.ThresholdParams) error {
	seen := make(map[bftconsensus.Address]bool, len(c.Votes))
	var power uint64
	for _, sv := range c.Votes {
		v := sv.Vote
		if v.Height != c.Height {
			return fmt.Errorf("%w: vote height %d, certificate height %d", ErrMessageMismatch, v.Height, c.Height)
		}
		if !v.Round.Equal(c.Round) {
			return fmt.Errorf("%w: vote round %s, certificate round %s", ErrRoundMismatch, v.Round, c.Round)
		}
		val, ok := vs.GetByAddress(v.Voter)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownValidator, v.Voter)
		}
		if seen[v.Voter] {
			continue
		}

		msg := scheme.VoteSigningBytes(vs, v)
		if !val.PubKey.Verify(msg, sv.Signature) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, v.Voter)
		}

		seen[v.Voter] = true
		power += val.Power
	}

	if !params.HasHonest(power, vs.TotalPower()) {
		return fmt.Errorf("%w: signed power %d of %d", ErrHonestFractionNotMet, power, vs.TotalPower())
	}
	return nil
}

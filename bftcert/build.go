package bftcert

import (
	"fmt"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftcrypto"
)

// BuildCommitCertificate aggregates votes (each already verified to have
// come from a validator in vs, e.g. by the vote keeper) into a
// CommitCertificate for height/round/value. It returns an error if any
// vote's signature fails to verify against its claimed voter's key.
func BuildCommitCertificate(
	vs bftconsensus.ValidatorSet,
	scheme bftconsensus.SignatureScheme,
	hashScheme bftconsensus.HashScheme,
	height bftconsensus.Height,
	round bftconsensus.Round,
	value bftconsensus.Value,
	votes []bftconsensus.SignedVote,
) (CommitCertificate, error) {
	proof, err := buildProof(vs, scheme, hashScheme, bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: height, Round: round, Value: bftconsensus.ValVote(value.ID),
	}, votes)
	if err != nil {
		return CommitCertificate{}, err
	}
	return CommitCertificate{Height: height, Round: round, Value: value, Proof: proof}, nil
}

// BuildPolkaCertificate is BuildCommitCertificate's prevote counterpart.
func BuildPolkaCertificate(
	vs bftconsensus.ValidatorSet,
	scheme bftconsensus.SignatureScheme,
	hashScheme bftconsensus.HashScheme,
	height bftconsensus.Height,
	round bftconsensus.Round,
	value bftconsensus.Value,
	votes []bftconsensus.SignedVote,
) (PolkaCertificate, error) {
	proof, err := buildProof(vs, scheme, hashScheme, bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: height, Round: round, Value: bftconsensus.ValVote(value.ID),
	}, votes)
	if err != nil {
		return PolkaCertificate{}, err
	}
	return PolkaCertificate{Height: height, Round: round, Value: value, Proof: proof}, nil
}

// BuildRoundCertificateSkipped builds a RoundCertificate proving that an
// honest validator observed voting at round justifies skipping ahead to it.
// votes should be every signed vote recorded at round, of any type or
// value (bftvote.Keeper.AllSignedVotes supplies exactly this). votes are
// attached as given: duplicate voters and addresses outside vs are not
// filtered here. Verify rejects addresses outside vs and counts each
// voter's weight once, and the recipient re-checks the certificate with
// Verify rather than trusting this validator's construction.
func BuildRoundCertificateSkipped(
	height bftconsensus.Height,
	round bftconsensus.Round,
	votes []bftconsensus.SignedVote,
) RoundCertificate {
	cp := make([]bftconsensus.SignedVote, len(votes))
	copy(cp, votes)
	return RoundCertificate{Height: height, Round: round, Kind: RoundSkipped, Votes: cp}
}

// BuildRoundCertificatePrecommitted is BuildCommitCertificate's counterpart
// for a round that reached a precommit quorum (for value, or for nil when
// value is the zero Value) without that quorum being paired with a known
// proposal in time to decide the height.
func BuildRoundCertificatePrecommitted(
	vs bftconsensus.ValidatorSet,
	scheme bftconsensus.SignatureScheme,
	hashScheme bftconsensus.HashScheme,
	height bftconsensus.Height,
	round bftconsensus.Round,
	value bftconsensus.Value,
	votes []bftconsensus.SignedVote,
) (RoundCertificate, error) {
	target := bftconsensus.NilVote()
	if value.ID != "" {
		target = bftconsensus.ValVote(value.ID)
	}
	proof, err := buildProof(vs, scheme, hashScheme, bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: height, Round: round, Value: target,
	}, votes)
	if err != nil {
		return RoundCertificate{}, err
	}
	return RoundCertificate{Height: height, Round: round, Kind: RoundPrecommitted, Proof: proof, Value: value}, nil
}

func buildProof(
	vs bftconsensus.ValidatorSet,
	scheme bftconsensus.SignatureScheme,
	hashScheme bftconsensus.HashScheme,
	template bftconsensus.Vote,
	votes []bftconsensus.SignedVote,
) (*bftcrypto.SignatureProof, error) {
	msg := scheme.VoteSigningBytes(vs, template)
	pubKeyHash := bftconsensus.PubKeyHash(hashScheme, vs)

	proof := bftcrypto.NewSignatureProof(msg, vs.PubKeys(), pubKeyHash)

	for _, sv := range votes {
		if !sv.Vote.Value.Equal(template.Value) || sv.Vote.Type != template.Type ||
			sv.Vote.Height != template.Height || !sv.Vote.Round.Equal(template.Round) {
			continue
		}
		val, ok := vs.GetByAddress(sv.Vote.Voter)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownValidator, sv.Vote.Voter)
		}
		if err := proof.AddSignature(sv.Signature, val.PubKey); err != nil {
			return nil, fmt.Errorf("bftcert: adding signature for %s: %w", sv.Vote.Voter, err)
		}
	}

	return &proof, nil
}

package bftdriver_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftconsensus/bftconsensustest"
	"github.com/bftengine/core/bftdriver"
	"github.com/bftengine/core/bfthost"
	"github.com/bftengine/core/bftround"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// findOutput returns the first output of kind k, if any.
func findOutput(outs []bftdriver.Output, k bftdriver.OutputKind) (bftdriver.Output, bool) {
	for _, o := range outs {
		if o.Kind == k {
			return o, true
		}
	}
	return bftdriver.Output{}, false
}

func TestDriver_HappyPathDecidesRoundZero(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	proposerAddr := sel.ProposerForRound(vs, bftconsensus.NewRound(0))
	proposer, ok := privVals.SignerFor(proposerAddr)
	require.True(t, ok)

	d := bftdriver.New(discardLogger(), privVals[0].Val.Address, vs,
		bftconsensus.DefaultThresholdParams(), sel, sigScheme, hashScheme, 1)

	outs, err := d.Start()
	require.NoError(t, err)

	val := bftconsensustest.NewValue("block-1")

	propOut, ok := findOutput(outs, bftdriver.GetValueOutput)
	if proposerAddr == privVals[0].Val.Address {
		require.True(t, ok)
		require.Equal(t, bftround.TimeoutPropose, propOut.Timeout)
	}

	p := bftconsensus.Proposal{
		Height: 1, Round: bftconsensus.NewRound(0), Value: val,
		PolRound: bftconsensus.NilRound, Proposer: proposerAddr,
	}
	sp, err := bftconsensustest.SignProposal(sigScheme, vs, proposer, p)
	require.NoError(t, err)

	outs, err = d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: sp})
	require.NoError(t, err)
	require.Empty(t, outs)

	outs, err = d.Process(bftdriver.Input{
		Kind: bftdriver.ValueValidated, Round: bftconsensus.NewRound(0), Value: val, Valid: true,
	})
	require.NoError(t, err)

	voteOut, ok := findOutput(outs, bftdriver.BroadcastVoteOutput)
	require.True(t, ok)
	require.Equal(t, bftconsensus.Prevote, voteOut.Vote.Type)
	require.False(t, voteOut.Vote.Value.IsNil())
	require.Equal(t, val.ID, voteOut.Vote.Value.ID())

	for _, pv := range privVals {
		sv, err := bftconsensustest.SignVote(sigScheme, vs, pv.Signer, bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: 1, Round: bftconsensus.NewRound(0),
			Value: bftconsensus.ValVote(val.ID), Voter: pv.Val.Address,
		})
		require.NoError(t, err)
		_, err = d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: sv})
		require.NoError(t, err)
	}

	for i, pv := range privVals {
		sv, err := bftconsensustest.SignVote(sigScheme, vs, pv.Signer, bftconsensus.Vote{
			Type: bftconsensus.Precommit, Height: 1, Round: bftconsensus.NewRound(0),
			Value: bftconsensus.ValVote(val.ID), Voter: pv.Val.Address,
		})
		require.NoError(t, err)
		outs, err := d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: sv})
		require.NoError(t, err)

		// Three of four validators are the first to cross 2/3 of the
		// voting power, so the decision comes with the third precommit.
		if i == 2 {
			dec, ok := findOutput(outs, bftdriver.DecisionOutput)
			require.True(t, ok, "expected a decision once the precommit quorum is reached")
			require.Equal(t, val.ID, dec.ValueID)
			require.Equal(t, val, dec.Value)
			require.NoError(t, dec.Certificate.Verify(vs, sigScheme, bftconsensus.DefaultThresholdParams()))
		}
	}
}

func TestDriver_MoveToHeightRejectsNonSequential(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	d := bftdriver.New(discardLogger(), privVals[0].Val.Address, vs,
		bftconsensus.DefaultThresholdParams(), bfthost.RoundRobinProposerSelector{},
		bftconsensus.SimpleSignatureScheme{}, bftconsensus.SimpleHashScheme{}, 1)

	err = d.MoveToHeight(3, vs)
	require.ErrorIs(t, err, bftdriver.ErrNonSequentialHeight)

	err = d.MoveToHeight(2, vs)
	require.NoError(t, err)
	require.Equal(t, bftconsensus.Height(2), d.Height())
}

func TestDriver_RejectsWrongProposer(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	d := bftdriver.New(discardLogger(), privVals[0].Val.Address, vs,
		bftconsensus.DefaultThresholdParams(), sel, sigScheme, bftconsensus.SimpleHashScheme{}, 1)
	_, err = d.Start()
	require.NoError(t, err)

	wrongAddr := privVals[0].Val.Address
	actualProposer := sel.ProposerForRound(vs, bftconsensus.NewRound(0))
	if wrongAddr == actualProposer {
		wrongAddr = privVals[1].Val.Address
	}
	signer, ok := privVals.SignerFor(wrongAddr)
	require.True(t, ok)

	val := bftconsensustest.NewValue("imposter-block")
	p := bftconsensus.Proposal{
		Height: 1, Round: bftconsensus.NewRound(0), Value: val,
		PolRound: bftconsensus.NilRound, Proposer: wrongAddr,
	}
	sp, err := bftconsensustest.SignProposal(sigScheme, vs, signer, p)
	require.NoError(t, err)

	_, err = d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: sp})
	require.ErrorIs(t, err, bftdriver.ErrWrongProposer)
}

// TestDriver_CommitCertificateDecidesAcrossRounds exercises the
// liveness-critical path where a certificate obtained from sync, for a
// round well beyond the one this validator is locally stuck on, decides
// the height the moment the matching proposal is also known — without
// this validator ever having locally tallied a precommit quorum at that
// round.
func TestDriver_CommitCertificateDecidesAcrossRounds(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(3)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	d := bftdriver.New(discardLogger(), privVals[0].Val.Address, vs,
		bftconsensus.DefaultThresholdParams(), sel, sigScheme, hashScheme, 1)
	_, err = d.Start()
	require.NoError(t, err)

	const certRound = 5
	round := bftconsensus.NewRound(certRound)
	val := bftconsensustest.NewValue("late-block")
	proposerAddr := sel.ProposerForRound(vs, round)
	proposer, ok := privVals.SignerFor(proposerAddr)
	require.True(t, ok)

	p := bftconsensus.Proposal{
		Height: 1, Round: round, Value: val,
		PolRound: bftconsensus.NilRound, Proposer: proposerAddr,
	}
	sp, err := bftconsensustest.SignProposal(sigScheme, vs, proposer, p)
	require.NoError(t, err)

	var votes []bftconsensus.SignedVote
	for _, pv := range privVals {
		sv, err := bftconsensustest.SignVote(sigScheme, vs, pv.Signer, bftconsensus.Vote{
			Type: bftconsensus.Precommit, Height: 1, Round: round,
			Value: bftconsensus.ValVote(val.ID), Voter: pv.Val.Address,
		})
		require.NoError(t, err)
		votes = append(votes, sv)
	}
	cert, err := bftcert.BuildCommitCertificate(vs, sigScheme, hashScheme, 1, round, val, votes)
	require.NoError(t, err)
	require.NoError(t, cert.Verify(vs, sigScheme, bftconsensus.DefaultThresholdParams()))

	// The certificate arrives first; nothing to derive yet, since the
	// matching proposal is not yet known.
	outs, err := d.Process(bftdriver.Input{Kind: bftdriver.CommitCertificateReceived, Certificate: cert})
	require.NoError(t, err)
	require.Empty(t, outs)

	_, err = d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: sp})
	require.NoError(t, err)

	outs, err = d.Process(bftdriver.Input{
		Kind: bftdriver.ValueValidated, Round: round, Value: val, Valid: true,
	})
	require.NoError(t, err)

	dec, ok := findOutput(outs, bftdriver.DecisionOutput)
	require.True(t, ok, "expected the known proposal plus the received certificate to decide the height")
	require.Equal(t, val.ID, dec.ValueID)
	require.Equal(t, round, dec.Round)

	got, ok := d.GetCertificate(round, val.ID)
	require.True(t, ok)
	require.NoError(t, got.Verify(vs, sigScheme, bftconsensus.DefaultThresholdParams()))
}

// TestDriver_PolkaCertificateAvailableAfterQuorum exercises the prevote-side
// counterpart of TestDriver_HappyPathDecidesRoundZero: once a round's
// prevotes for a value cross quorum and the matching proposal is known, the
// driver must expose a verifiable PolkaCertificate for it, for a syncing
// peer to request instead of the raw vote set.
func TestDriver_PolkaCertificateAvailableAfterQuorum(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	proposerAddr := sel.ProposerForRound(vs, bftconsensus.NewRound(0))
	proposer, ok := privVals.SignerFor(proposerAddr)
	require.True(t, ok)

	d := bftdriver.New(discardLogger(), privVals[0].Val.Address, vs,
		bftconsensus.DefaultThresholdParams(), sel, sigScheme, hashScheme, 1)
	_, err = d.Start()
	require.NoError(t, err)

	val := bftconsensustest.NewValue("block-1")
	round := bftconsensus.NewRound(0)

	p := bftconsensus.Proposal{
		Height: 1, Round: round, Value: val, PolRound: bftconsensus.NilRound, Proposer: proposerAddr,
	}
	sp, err := bftconsensustest.SignProposal(sigScheme, vs, proposer, p)
	require.NoError(t, err)

	_, err = d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: sp})
	require.NoError(t, err)
	_, err = d.Process(bftdriver.Input{Kind: bftdriver.ValueValidated, Round: round, Value: val, Valid: true})
	require.NoError(t, err)

	_, ok = d.GetPolkaCertificate(round, val.ID)
	require.False(t, ok, "no quorum has been reached yet")

	for _, pv := range privVals {
		sv, err := bftconsensustest.SignVote(sigScheme, vs, pv.Signer, bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: 1, Round: round,
			Value: bftconsensus.ValVote(val.ID), Voter: pv.Val.Address,
		})
		require.NoError(t, err)
		_, err = d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: sv})
		require.NoError(t, err)
	}

	cert, ok := d.GetPolkaCertificate(round, val.ID)
	require.True(t, ok)
	require.NoError(t, cert.Verify(vs, sigScheme, bftconsensus.DefaultThresholdParams()))
}

// TestDriver_SkipRoundBuildsRoundCertificate exercises the skip-round
// liveness path: once enough distinct validators are observed voting at a
// round beyond this validator's own, the driver must expose a verifiable
// RoundCertificate proving the skip was justified.
func TestDriver_SkipRoundBuildsRoundCertificate(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	d := bftdriver.New(discardLogger(), privVals[0].Val.Address, vs,
		bftconsensus.DefaultThresholdParams(), sel, sigScheme, hashScheme, 1)
	_, err = d.Start()
	require.NoError(t, err)

	futureRound := bftconsensus.NewRound(5)
	val := bftconsensustest.NewValue("block-1")

	_, ok := d.GetRoundCertificate(futureRound)
	require.False(t, ok)

	for i := 1; i <= 2; i++ {
		sv, err := bftconsensustest.SignVote(sigScheme, vs, privVals[i].Signer, bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: 1, Round: futureRound,
			Value: bftconsensus.ValVote(val.ID), Voter: privVals[i].Val.Address,
		})
		require.NoError(t, err)
		_, err = d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: sv})
		require.NoError(t, err)
	}

	cert, ok := d.GetRoundCertificate(futureRound)
	require.True(t, ok, "two of four validators observed at a future round should justify a skip")
	require.NoError(t, cert.Verify(vs, sigScheme, bftconsensus.DefaultThresholdParams()))
}

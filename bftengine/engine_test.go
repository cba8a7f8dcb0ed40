package bftengine_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftconsensus/bftconsensustest"
	"github.com/bftengine/core/bftengine"
	"github.com/bftengine/core/bfthost"
	"github.com/bftengine/core/bftwal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeValueBuilder struct {
	value     bftconsensus.Value
	finalized *bftconsensus.Value
}

func (f fakeValueBuilder) GetValue(context.Context, bftconsensus.Height, bftconsensus.Round) (bftconsensus.Value, error) {
	return f.value, nil
}

func (f fakeValueBuilder) ValidateValue(context.Context, bftconsensus.Height, bftconsensus.Round, bftconsensus.Value) (bool, error) {
	return true, nil
}

func (f fakeValueBuilder) FinalizeValue(_ context.Context, _ bftconsensus.Height, v bftconsensus.Value) error {
	if f.finalized != nil {
		*f.finalized = v
	}
	return nil
}

func findEffect(effs []bftengine.Effect, k bftengine.EffectKind) (bftengine.Effect, bool) {
	for _, e := range effs {
		if e.Kind == k {
			return e, true
		}
	}
	return bftengine.Effect{}, false
}

// TestEngine_HappyPathDecidesRoundZero drives a full height to decision
// through the engine, from this validator's own proposal through every
// other validator's votes arriving over the (simulated) network, checking
// that the proposal and this validator's prevote are published, that the
// height decides with a certificate that verifies, and that the host is
// asked to finalize the decided value.
func TestEngine_HappyPathDecidesRoundZero(t *testing.T) {
	ctx := context.Background()

	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	round0 := bftconsensus.NewRound(0)
	proposerAddr := sel.ProposerForRound(vs, round0)

	var self int
	for i, pv := range privVals {
		if pv.Val.Address == proposerAddr {
			self = i
		}
	}

	val := bftconsensustest.NewValue("block-1")
	var finalized bftconsensus.Value
	wal := bftwal.NewMemWAL()

	e, err := bftengine.New(discardLogger(), proposerAddr,
		bftengine.WithSigner(privVals[self].Signer),
		bftengine.WithSignatureScheme(sigScheme),
		bftengine.WithHashScheme(hashScheme),
		bftengine.WithProposerSelector(sel),
		bftengine.WithValueBuilder(fakeValueBuilder{value: val, finalized: &finalized}),
		bftengine.WithWAL(wal),
	)
	require.NoError(t, err)

	effs, err := e.Process(ctx, bftengine.Input{
		Kind: bftengine.StartHeightInput, Height: 1, ValidatorSet: vs,
	})
	require.NoError(t, err)
	_, ok := findEffect(effs, bftengine.GetValueEffect)
	require.True(t, ok, "the round's proposer must be asked for a value")

	effs, err = e.Process(ctx, bftengine.Input{
		Kind: bftengine.ProposedValueInput, Round: round0, Value: val, Origin: bftengine.OriginConsensus,
	})
	require.NoError(t, err)

	propEff, ok := findEffect(effs, bftengine.PublishProposalEffect)
	require.True(t, ok)
	require.Equal(t, val.ID, propEff.Proposal.Proposal.Value.ID)

	voteEff, ok := findEffect(effs, bftengine.PublishVoteEffect)
	require.True(t, ok)
	require.Equal(t, bftconsensus.Prevote, voteEff.Vote.Vote.Type)

	for i, pv := range privVals {
		if i == self {
			continue
		}
		sv, err := bftconsensustest.SignVote(sigScheme, vs, pv.Signer, bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: 1, Round: round0,
			Value: bftconsensus.ValVote(val.ID), Voter: pv.Val.Address,
		})
		require.NoError(t, err)
		_, err = e.Process(ctx, bftengine.Input{Kind: bftengine.VoteInput, Vote: sv})
		require.NoError(t, err)
	}

	var decided bool
	for i, pv := range privVals {
		if i == self {
			continue
		}
		sv, err := bftconsensustest.SignVote(sigScheme, vs, pv.Signer, bftconsensus.Vote{
			Type: bftconsensus.Precommit, Height: 1, Round: round0,
			Value: bftconsensus.ValVote(val.ID), Voter: pv.Val.Address,
		})
		require.NoError(t, err)
		effs, err := e.Process(ctx, bftengine.Input{Kind: bftengine.VoteInput, Vote: sv})
		require.NoError(t, err)
		if dec, ok := findEffect(effs, bftengine.DecideEffect); ok {
			decided = true
			require.Equal(t, val, dec.Value)
			require.NoError(t, dec.Certificate.Verify(vs, sigScheme, bftconsensus.DefaultThresholdParams()))
		}
	}

	require.True(t, decided, "expected the height to decide once a precommit quorum is reached")
	require.Equal(t, val.ID, finalized.ID, "expected FinalizeValue to be called with the decided value")
}

// TestEngine_ReplayDoesNotRepublish simulates a process restart midway
// through a round: a second engine, backed by the same WAL, replays the
// first engine's logged proposal and vote and must not re-emit any
// publish effect for them.
func TestEngine_ReplayDoesNotRepublish(t *testing.T) {
	ctx := context.Background()

	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	round0 := bftconsensus.NewRound(0)
	proposerAddr := sel.ProposerForRound(vs, round0)
	var self int
	for i, pv := range privVals {
		if pv.Val.Address == proposerAddr {
			self = i
		}
	}

	val := bftconsensustest.NewValue("block-1")
	wal := bftwal.NewMemWAL()

	newEngine := func() *bftengine.Engine {
		e, err := bftengine.New(discardLogger(), proposerAddr,
			bftengine.WithSigner(privVals[self].Signer),
			bftengine.WithSignatureScheme(sigScheme),
			bftengine.WithHashScheme(hashScheme),
			bftengine.WithProposerSelector(sel),
			bftengine.WithValueBuilder(fakeValueBuilder{value: val}),
			bftengine.WithWAL(wal),
		)
		require.NoError(t, err)
		return e
	}

	e1 := newEngine()
	_, err = e1.Process(ctx, bftengine.Input{Kind: bftengine.StartHeightInput, Height: 1, ValidatorSet: vs})
	require.NoError(t, err)
	_, err = e1.Process(ctx, bftengine.Input{
		Kind: bftengine.ProposedValueInput, Round: round0, Value: val, Origin: bftengine.OriginConsensus,
	})
	require.NoError(t, err)

	// A fresh process, same WAL: starting the same height replays the
	// proposal and vote e1 already logged.
	e2 := newEngine()
	effs, err := e2.Process(ctx, bftengine.Input{Kind: bftengine.StartHeightInput, Height: 1, ValidatorSet: vs})
	require.NoError(t, err)
	require.Empty(t, effs, "replaying previously logged actions must not re-publish them")
	require.Equal(t, bftengine.Live, e2.Phase())
}

package bftvote_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftconsensus/bftconsensustest"
	"github.com/bftengine/core/bftvote"
)

func TestKeeper_PolkaValue(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	k := bftvote.NewKeeper(1, vs, bftconsensus.DefaultThresholdParams())

	val := bftconsensustest.NewValue("block-1")
	r0 := bftconsensus.NewRound(0)

	var gotEvents []bftvote.ThresholdEvent
	for i := 0; i < 3; i++ {
		sv := bftconsensus.SignedVote{Vote: bftconsensus.Vote{
			Type:   bftconsensus.Prevote,
			Height: 1,
			Round:  r0,
			Value:  bftconsensus.ValVote(val.ID),
			Voter:  privVals[i].Val.Address,
		}}
		events, equiv, err := k.AddVote(sv, r0)
		require.NoError(t, err)
		require.Nil(t, equiv)
		gotEvents = append(gotEvents, events...)
	}

	require.Len(t, gotEvents, 1)
	require.Equal(t, bftvote.PolkaValue, gotEvents[0].Kind)
	require.Equal(t, val.ID, gotEvents[0].ValueID)
}

func TestKeeper_PolkaNilThenNoDuplicate(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	k := bftvote.NewKeeper(1, vs, bftconsensus.DefaultThresholdParams())
	r0 := bftconsensus.NewRound(0)

	var all []bftvote.ThresholdEvent
	for i := 0; i < 3; i++ {
		sv := bftconsensus.SignedVote{Vote: bftconsensus.Vote{
			Type:   bftconsensus.Prevote,
			Height: 1,
			Round:  r0,
			Value:  bftconsensus.NilVote(),
			Voter:  privVals[i].Val.Address,
		}}
		events, _, err := k.AddVote(sv, r0)
		require.NoError(t, err)
		all = append(all, events...)
	}
	require.Len(t, all, 1)
	require.Equal(t, bftvote.PolkaNil, all[0].Kind)

	// A fourth prevote for nil must not re-emit PolkaNil.
	sv := bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type:   bftconsensus.Prevote,
		Height: 1,
		Round:  r0,
		Value:  bftconsensus.NilVote(),
		Voter:  privVals[3].Val.Address,
	}}
	events, _, err := k.AddVote(sv, r0)
	require.NoError(t, err)
	require.Empty(t, events)
}

// TestKeeper_PolkaValueThenFourthVoterBlocksSpuriousPolkaAny exercises an
// ordinary honest-majority sequence: three of four validators prevote the
// same value and cross quorum on the third vote (emitting PolkaValue), then
// the fourth prevotes nil. The fourth vote must not emit PolkaAny, since Any
// is a lower threshold than the Value threshold already reported for this
// round and vote type.
func TestKeeper_PolkaValueThenFourthVoterBlocksSpuriousPolkaAny(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	k := bftvote.NewKeeper(1, vs, bftconsensus.DefaultThresholdParams())
	r0 := bftconsensus.NewRound(0)
	val := bftconsensustest.NewValue("block-1")

	var all []bftvote.ThresholdEvent
	for i := 0; i < 3; i++ {
		sv := bftconsensus.SignedVote{Vote: bftconsensus.Vote{
			Type:   bftconsensus.Prevote,
			Height: 1,
			Round:  r0,
			Value:  bftconsensus.ValVote(val.ID),
			Voter:  privVals[i].Val.Address,
		}}
		events, _, err := k.AddVote(sv, r0)
		require.NoError(t, err)
		all = append(all, events...)
	}
	require.Len(t, all, 1)
	require.Equal(t, bftvote.PolkaValue, all[0].Kind)

	sv := bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type:   bftconsensus.Prevote,
		Height: 1,
		Round:  r0,
		Value:  bftconsensus.NilVote(),
		Voter:  privVals[3].Val.Address,
	}}
	events, _, err := k.AddVote(sv, r0)
	require.NoError(t, err)
	require.Empty(t, events, "PolkaAny must not fire after PolkaValue was already reported for this round")
}

func TestKeeper_Equivocation(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	k := bftvote.NewKeeper(1, vs, bftconsensus.DefaultThresholdParams())
	r0 := bftconsensus.NewRound(0)
	v1 := bftconsensustest.NewValue("a")
	v2 := bftconsensustest.NewValue("b")

	addr := privVals[0].Val.Address
	_, equiv, err := k.AddVote(bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: 1, Round: r0, Value: bftconsensus.ValVote(v1.ID), Voter: addr,
	}}, r0)
	require.NoError(t, err)
	require.Nil(t, equiv)

	_, equiv, err = k.AddVote(bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: 1, Round: r0, Value: bftconsensus.ValVote(v2.ID), Voter: addr,
	}}, r0)
	require.NoError(t, err)
	require.NotNil(t, equiv)
	require.Equal(t, addr, equiv.Address)
	require.Len(t, k.Evidence(), 1)
}

func TestKeeper_SkipRound(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(4)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	k := bftvote.NewKeeper(1, vs, bftconsensus.DefaultThresholdParams())
	r0 := bftconsensus.NewRound(0)
	r5 := bftconsensus.NewRound(5)

	// Two of four validators at a future round is more than 1/3 of the
	// voting power; the second vote crosses it.
	_, _, err = k.AddVote(bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: 1, Round: r5, Value: bftconsensus.NilVote(), Voter: privVals[1].Val.Address,
	}}, r0)
	require.NoError(t, err)

	sv := bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: 1, Round: r5, Value: bftconsensus.NilVote(), Voter: privVals[0].Val.Address,
	}}
	events, _, err := k.AddVote(sv, r0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, bftvote.SkipRound, events[0].Kind)
	require.True(t, events[0].Round.Equal(r5))
}

func TestKeeper_UnknownValidatorRejected(t *testing.T) {
	privVals := bftconsensustest.DeterministicValidatorsEd25519(2)
	vs, err := privVals.ValidatorSet()
	require.NoError(t, err)

	k := bftvote.NewKeeper(1, vs, bftconsensus.DefaultThresholdParams())
	r0 := bftconsensus.NewRound(0)

	_, _, err = k.AddVote(bftconsensus.SignedVote{Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: 1, Round: r0, Value: bftconsensus.NilVote(), Voter: "ghost",
	}}, r0)
	require.ErrorIs(t, err, bftvote.ErrUnknownValidator)
}

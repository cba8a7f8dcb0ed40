package bftfullproposal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftconsensus/bftconsensustest"
	"github.com/bftengine/core/bftfullproposal"
)

func TestKeeper_MonotonicTransitions(t *testing.T) {
	k := bftfullproposal.NewKeeper(1)
	r0 := bftconsensus.NewRound(0)
	val := bftconsensustest.NewValue("block-1")

	sp := bftconsensus.SignedProposal{Proposal: bftconsensus.Proposal{
		Height: 1, Round: r0, Value: val, PolRound: bftconsensus.NilRound, Proposer: "p1",
	}}

	e := k.AddProposal(sp)
	require.False(t, e.IsFull())
	require.NotNil(t, e.Proposal)
	require.Nil(t, e.Value)

	e = k.AddValue(r0, val, true)
	require.True(t, e.IsFull())

	gotSP, gotVal, ok := k.GetFull(r0, val.ID)
	require.True(t, ok)
	require.Equal(t, sp, gotSP)
	require.Equal(t, val, gotVal)
}

func TestKeeper_ValueBeforeProposal(t *testing.T) {
	k := bftfullproposal.NewKeeper(1)
	r0 := bftconsensus.NewRound(0)
	val := bftconsensustest.NewValue("block-1")

	e := k.AddValue(r0, val, true)
	require.False(t, e.IsFull())

	sp := bftconsensus.SignedProposal{Proposal: bftconsensus.Proposal{
		Height: 1, Round: r0, Value: val, PolRound: bftconsensus.NilRound, Proposer: "p1",
	}}
	e = k.AddProposal(sp)
	require.True(t, e.IsFull())
}

func TestKeeper_NotFullWithoutBothHalves(t *testing.T) {
	k := bftfullproposal.NewKeeper(1)
	r0 := bftconsensus.NewRound(0)
	val := bftconsensustest.NewValue("block-1")

	_, _, ok := k.GetFull(r0, val.ID)
	require.False(t, ok)
}

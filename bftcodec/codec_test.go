package bftcodec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bftengine/core/bftcodec"
	"github.com/bftengine/core/bftconsensus"
)

func TestVoteRoundTrip(t *testing.T) {
	v := bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: 42, Round: bftconsensus.NewRound(3),
		Value: bftconsensus.ValVote("abc"), Voter: "val-1", Extension: []byte("ext"),
	}
	buf := bftcodec.EncodeVote(v)
	got, n, err := bftcodec.DecodeVote(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, v, got)
}

func TestVoteRoundTrip_NilValueAndRound(t *testing.T) {
	v := bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: 1, Round: bftconsensus.NilRound,
		Value: bftconsensus.NilVote(), Voter: "val-2",
	}
	buf := bftcodec.EncodeVote(v)
	got, _, err := bftcodec.DecodeVote(buf)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestProposalRoundTrip(t *testing.T) {
	p := bftconsensus.Proposal{
		Height: 7, Round: bftconsensus.NewRound(1),
		Value:    bftconsensus.Value{ID: "id-1", Data: []byte("payload")},
		PolRound: bftconsensus.NewRound(0),
		Proposer: "val-3",
	}
	buf := bftcodec.EncodeProposal(p)
	got, n, err := bftcodec.DecodeProposal(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, p, got)
}

func TestSignedVoteRoundTrip(t *testing.T) {
	sv := bftconsensus.SignedVote{
		Vote: bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: 1, Round: bftconsensus.NewRound(0),
			Value: bftconsensus.ValVote("x"), Voter: "v",
		},
		Signature: []byte{1, 2, 3, 4},
	}
	buf := bftcodec.EncodeSignedVote(sv)
	got, n, err := bftcodec.DecodeSignedVote(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, sv, got)
}

func TestDecodeVote_ShortBuffer(t *testing.T) {
	_, _, err := bftcodec.DecodeVote([]byte{0, 1, 2})
	require.ErrorIs(t, err, bftcodec.ErrShortBuffer)
}

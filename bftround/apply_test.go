package bftround_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftround"
)

func TestApply_ProposerWithNoValidValue(t *testing.T) {
	s := bftround.NewState(1)
	out := s.Apply(bftround.Input{Kind: bftround.NewRoundInput, IsProposer: true})
	require.Equal(t, bftround.GetValueAndScheduleTimeoutOutput, out.Kind)
	require.Equal(t, bftround.Propose, s.Step)
}

func TestApply_NonProposerSchedulesTimeout(t *testing.T) {
	s := bftround.NewState(1)
	out := s.Apply(bftround.Input{Kind: bftround.NewRoundInput, IsProposer: false})
	require.Equal(t, bftround.ScheduleTimeoutOutput, out.Kind)
	require.Equal(t, bftround.TimeoutPropose, out.Timeout)
	require.Equal(t, bftround.Propose, s.Step)
}

func TestApply_ValidProposalPrevotesForValue(t *testing.T) {
	s := bftround.NewState(1)
	s.Apply(bftround.Input{Kind: bftround.NewRoundInput, IsProposer: false})

	val := bftconsensus.Value{ID: "v1"}
	out := s.Apply(bftround.Input{
		Kind:     bftround.ProposalInput,
		Proposal: bftconsensus.Proposal{Height: 1, Round: s.Round, Value: val, PolRound: bftconsensus.NilRound},
		Valid:    true,
	})
	require.Equal(t, bftround.VoteOutput, out.Kind)
	require.Equal(t, bftconsensus.Prevote, out.Vote.Type)
	require.False(t, out.Vote.Value.IsNil())
	require.Equal(t, val.ID, out.Vote.Value.ID())
	require.Equal(t, bftround.Prevote, s.Step)
}

func TestApply_InvalidProposalPrevotesNil(t *testing.T) {
	s := bftround.NewState(1)
	s.Apply(bftround.Input{Kind: bftround.NewRoundInput, IsProposer: false})

	val := bftconsensus.Value{ID: "v1"}
	out := s.Apply(bftround.Input{
		Kind:     bftround.ProposalInput,
		Proposal: bftconsensus.Proposal{Height: 1, Round: s.Round, Value: val, PolRound: bftconsensus.NilRound},
		Valid:    false,
	})
	require.Equal(t, bftround.VoteOutput, out.Kind)
	require.True(t, out.Vote.Value.IsNil())
}

func TestApply_LockedOnDifferentValueVotesNil(t *testing.T) {
	s := bftround.NewState(1)
	s.Locked = &bftconsensus.RoundValue{ValueID: "locked-value", Round: bftconsensus.NewRound(0)}
	s.Apply(bftround.Input{Kind: bftround.NewRoundInput, IsProposer: false})

	val := bftconsensus.Value{ID: "different-value"}
	out := s.Apply(bftround.Input{
		Kind:     bftround.ProposalInput,
		Proposal: bftconsensus.Proposal{Height: 1, Round: s.Round, Value: val, PolRound: bftconsensus.NilRound},
		Valid:    true,
	})
	require.True(t, out.Vote.Value.IsNil())
}

func TestApply_FullHappyPathToDecision(t *testing.T) {
	s := bftround.NewState(1)
	s.Apply(bftround.Input{Kind: bftround.NewRoundInput, IsProposer: false})

	val := bftconsensus.Value{ID: "v1"}
	p := bftconsensus.Proposal{Height: 1, Round: s.Round, Value: val, PolRound: bftconsensus.NilRound}
	s.Apply(bftround.Input{Kind: bftround.ProposalInput, Proposal: p, Valid: true})
	require.Equal(t, bftround.Prevote, s.Step)

	out := s.Apply(bftround.Input{Kind: bftround.ProposalAndPolkaCurrentInput, Proposal: p, Valid: true})
	require.Equal(t, bftround.VoteOutput, out.Kind)
	require.Equal(t, bftconsensus.Precommit, out.Vote.Type)
	require.Equal(t, bftround.Precommit, s.Step)
	require.NotNil(t, s.Locked)
	require.Equal(t, val.ID, s.Locked.ValueID)

	out = s.Apply(bftround.Input{Kind: bftround.ProposalAndPrecommitValueInput, Proposal: p})
	require.Equal(t, bftround.DecisionOutput, out.Kind)
	require.Equal(t, val.ID, out.ValueID)
	require.Equal(t, bftround.Commit, s.Step)
}

func TestApply_PrecommitTimeoutAdvancesRound(t *testing.T) {
	s := bftround.NewState(1)
	s.Step = bftround.Precommit
	out := s.Apply(bftround.Input{Kind: bftround.TimeoutPrecommitInput})
	require.Equal(t, bftround.NewRoundOutput, out.Kind)
	require.True(t, out.RoundTo.Equal(bftconsensus.NewRound(1)))
	require.Equal(t, bftround.Unstarted, s.Step)
}

func TestApply_SkipRoundOnlyForwards(t *testing.T) {
	s := bftround.NewState(1)
	out := s.Apply(bftround.Input{Kind: bftround.SkipRoundInput, SkipToRound: bftconsensus.NewRound(0)})
	require.Equal(t, bftround.NoOutput, out.Kind)

	out = s.Apply(bftround.Input{Kind: bftround.SkipRoundInput, SkipToRound: bftconsensus.NewRound(5)})
	require.Equal(t, bftround.NewRoundOutput, out.Kind)
	require.True(t, out.RoundTo.Equal(bftconsensus.NewRound(5)))
	require.Equal(t, bftround.Unstarted, s.Step)
}

func TestApply_CommitDropsFurtherInputs(t *testing.T) {
	s := bftround.NewState(1)
	s.Step = bftround.Commit
	out := s.Apply(bftround.Input{Kind: bftround.TimeoutPrevoteInput})
	require.Equal(t, bftround.NoOutput, out.Kind)
	require.Equal(t, bftround.Commit, s.Step)
}

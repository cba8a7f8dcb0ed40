package bftround

import "github.com/bftengine/core/bftconsensus"

// Apply advances the round per the input, mutating s in place, and
// returns the output the caller must act on. Inputs that do not match the
// current step, or that arrive after the round has already reached
// Commit, are dropped (Apply returns NoOutput and leaves s unchanged).
//
// Rule numbers in comments correspond to the transition table this
// machine implements: 18 rules covering every (step, input) combination
// that can legally occur.
func (s *State) Apply(in Input) Output {
	if s.Step == Commit && in.Kind != NewRoundInput {
		return Output{Kind: NoOutput}
	}

	switch in.Kind {
	case NewRoundInput:
		return s.applyNewRound(in)
	case ProposalInput:
		return s.applyProposal(in)
	case ProposalAndPolkaPreviousInput:
		return s.applyProposalAndPolkaPrevious(in)
	case ProposalAndPolkaCurrentInput:
		return s.applyProposalAndPolkaCurrent(in)
	case ProposalAndPrecommitValueInput:
		return s.applyProposalAndPrecommitValue(in)
	case PolkaAnyInput:
		return s.applyPolkaAny()
	case PolkaNilInput:
		return s.applyPolkaNil()
	case PrecommitAnyInput:
		return s.applyPrecommitAny()
	case TimeoutProposeInput:
		return s.applyTimeoutPropose()
	case TimeoutPrevoteInput:
		return s.applyTimeoutPrevote()
	case TimeoutPrecommitInput:
		return s.applyTimeoutPrecommit()
	case SkipRoundInput:
		return s.applySkipRound(in)
	default:
		return Output{Kind: NoOutput}
	}
}

// Rules 1-3: starting a fresh round.
func (s *State) applyNewRound(in Input) Output {
	if s.Step != Unstarted {
		return Output{Kind: NoOutput}
	}

	if !in.IsProposer {
		// Rule 3.
		s.Step = Propose
		return Output{Kind: ScheduleTimeoutOutput, Timeout: TimeoutPropose}
	}

	if s.Valid != nil {
		// Rule 2: re-propose the valid value.
		s.Step = Propose
		return Output{Kind: ProposeOutput, ValueID: s.Valid.ValueID, PolRound: s.Valid.Round}
	}

	// Rule 1.
	s.Step = Propose
	return Output{Kind: GetValueAndScheduleTimeoutOutput, Timeout: TimeoutPropose}
}

// Rules 4-5: a fresh proposal claiming no proof-of-lock.
func (s *State) applyProposal(in Input) Output {
	if s.Step != Propose {
		return Output{Kind: NoOutput}
	}
	if !in.Proposal.PolRound.IsNil() {
		return Output{Kind: NoOutput}
	}

	p := in.Proposal
	if in.Valid && (s.Locked == nil || s.Locked.ValueID == p.Value.ID) {
		// Rule 4.
		s.Step = Prevote
		return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: s.Height, Round: s.Round,
			Value: bftconsensus.ValVote(p.Value.ID),
		}}
	}

	// Rule 5.
	s.Step = Prevote
	return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: s.Height, Round: s.Round,
		Value: bftconsensus.NilVote(),
	}}
}

// Rules 6-7: a proposal claiming a proof-of-lock from an earlier round,
// for which that earlier round's polka is now confirmed.
func (s *State) applyProposalAndPolkaPrevious(in Input) Output {
	if s.Step != Propose {
		return Output{Kind: NoOutput}
	}
	p := in.Proposal
	vr := p.PolRound
	if vr.IsNil() || !vr.Less(s.Round) {
		return Output{Kind: NoOutput}
	}

	if in.Valid && (s.Locked == nil || !vr.Less(s.Locked.Round) || s.Locked.ValueID == p.Value.ID) {
		// Rule 6.
		s.Step = Prevote
		return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
			Type: bftconsensus.Prevote, Height: s.Height, Round: s.Round,
			Value: bftconsensus.ValVote(p.Value.ID),
		}}
	}

	// Rule 7.
	s.Step = Prevote
	return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: s.Height, Round: s.Round,
		Value: bftconsensus.NilVote(),
	}}
}

// Rule 8: the Propose-step timeout expires before a proposal is seen.
func (s *State) applyTimeoutPropose() Output {
	if s.Step != Propose {
		return Output{Kind: NoOutput}
	}
	s.Step = Prevote
	return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
		Type: bftconsensus.Prevote, Height: s.Height, Round: s.Round,
		Value: bftconsensus.NilVote(),
	}}
}

// Rule 9: a prevote quorum split across values (or first reached at all),
// observed while still in Prevote.
func (s *State) applyPolkaAny() Output {
	if s.Step != Prevote {
		return Output{Kind: NoOutput}
	}
	return Output{Kind: ScheduleTimeoutOutput, Timeout: TimeoutPrevote}
}

// Rules 10-11: a proposal matching a prevote quorum reached at the
// proposal's own round, observed while still in Prevote.
func (s *State) applyProposalAndPolkaCurrent(in Input) Output {
	p := in.Proposal

	if s.Step == Prevote {
		if in.Valid {
			// Rule 10.
			s.Locked = &bftconsensus.RoundValue{ValueID: p.Value.ID, Round: s.Round}
			s.Valid = &bftconsensus.RoundValue{ValueID: p.Value.ID, Round: s.Round}
			s.Step = Precommit
			return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
				Type: bftconsensus.Precommit, Height: s.Height, Round: s.Round,
				Value: bftconsensus.ValVote(p.Value.ID),
			}}
		}

		// Rule 11: Locked and Valid are not updated.
		s.Step = Precommit
		return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
			Type: bftconsensus.Precommit, Height: s.Height, Round: s.Round,
			Value: bftconsensus.NilVote(),
		}}
	}

	if s.Step == Precommit && in.Valid {
		// Rule 14: a late-arriving proposal confirms the value this
		// validator already precommitted on behalf of; record it as
		// valid so it can be safely re-proposed in a future round.
		s.Valid = &bftconsensus.RoundValue{ValueID: p.Value.ID, Round: s.Round}
		return Output{Kind: NoOutput}
	}

	return Output{Kind: NoOutput}
}

// Rule 12: a prevote quorum for nil.
func (s *State) applyPolkaNil() Output {
	if s.Step != Prevote {
		return Output{Kind: NoOutput}
	}
	s.Step = Precommit
	return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: s.Height, Round: s.Round,
		Value: bftconsensus.NilVote(),
	}}
}

// Rule 13: the Prevote-step timeout expires without a decisive polka.
func (s *State) applyTimeoutPrevote() Output {
	if s.Step != Prevote {
		return Output{Kind: NoOutput}
	}
	s.Step = Precommit
	return Output{Kind: VoteOutput, Vote: bftconsensus.Vote{
		Type: bftconsensus.Precommit, Height: s.Height, Round: s.Round,
		Value: bftconsensus.NilVote(),
	}}
}

// Rule 15: a precommit quorum split across values, observed at any step.
func (s *State) applyPrecommitAny() Output {
	if s.Step == Commit {
		return Output{Kind: NoOutput}
	}
	return Output{Kind: ScheduleTimeoutOutput, Timeout: TimeoutPrecommit}
}

// Rule 16: a proposal matching a confirmed precommit quorum: the round,
// and the height, decide. When in.Round is set, the state's Round is set
// to it before committing, whatever round the state was in; this is how a
// certificate received from sync, proving a decision at a round this
// validator never locally tallied, commits at that round.
func (s *State) applyProposalAndPrecommitValue(in Input) Output {
	if s.Step == Commit {
		return Output{Kind: NoOutput}
	}
	if !in.Round.IsNil() {
		s.Round = in.Round
	}
	s.Step = Commit
	return Output{Kind: DecisionOutput, ValueID: in.Proposal.Value.ID, RoundTo: s.Round}
}

// Rule 17: the Precommit-step timeout expires without a decision; move to
// the next round.
func (s *State) applyTimeoutPrecommit() Output {
	if s.Step == Commit {
		return Output{Kind: NoOutput}
	}
	s.Step = Unstarted
	return Output{Kind: NewRoundOutput, RoundTo: s.Round.Increment()}
}

// Rule 18: enough validators were observed at a future round to justify
// skipping ahead without waiting out a timeout.
func (s *State) applySkipRound(in Input) Output {
	if !s.Round.Less(in.SkipToRound) {
		return Output{Kind: NoOutput}
	}
	s.Step = Unstarted
	return Output{Kind: NewRoundOutput, RoundTo: in.SkipToRound}
}

package bftround

import "github.com/bftengine/core/bftconsensus"

// InputKind identifies which transition-table row an Input may match.
type InputKind uint8

const (
	// NewRoundInput starts a fresh round: the machine must already be
	// Unstarted for this round.
	NewRoundInput InputKind = iota

	// ProposalInput carries a freshly received proposal with pol_round
	// Nil (no proof-of-lock claimed).
	ProposalInput

	// ProposalAndPolkaPreviousInput carries a proposal whose pol_round
	// names an earlier round, together with the fact that a polka for
	// the proposed value was reached at that earlier round.
	ProposalAndPolkaPreviousInput

	// ProposalAndPolkaCurrentInput carries a proposal together with the
	// fact that a polka for the proposed value was reached at the
	// proposal's own round.
	ProposalAndPolkaCurrentInput

	// ProposalAndPrecommitValueInput carries a proposal together with
	// the fact that a precommit quorum for the proposed value was
	// reached.
	ProposalAndPrecommitValueInput

	// PolkaNilInput reports a prevote quorum for nil.
	PolkaNilInput

	// PolkaAnyInput reports a prevote quorum split across values, absent
	// a single-value polka.
	PolkaAnyInput

	// PrecommitAnyInput reports a precommit quorum split across values
	// (including nil), absent a single-value precommit quorum.
	PrecommitAnyInput

	// TimeoutProposeInput reports the Propose-step timeout expiring.
	TimeoutProposeInput

	// TimeoutPrevoteInput reports the Prevote-step timeout expiring.
	TimeoutPrevoteInput

	// TimeoutPrecommitInput reports the Precommit-step timeout expiring.
	TimeoutPrecommitInput

	// SkipRoundInput reports that enough validators have moved beyond
	// the current round that an honest validator must be among them.
	SkipRoundInput
)

// Input is one event delivered to a round's State.Apply.
type Input struct {
	Kind InputKind

	// Proposal is set for every *Proposal* input kind.
	Proposal bftconsensus.Proposal

	// Valid reports the host application's validation verdict for
	// Proposal, carried alongside proposal-bearing inputs. The state
	// machine only ever propagates this flag; it never evaluates
	// application-level validity itself.
	Valid bool

	// SkipToRound is set for SkipRoundInput: the round to jump to.
	SkipToRound bftconsensus.Round

	// IsProposer reports whether this validator is the proposer for the
	// round the input pertains to. Only consulted by NewRoundInput.
	IsProposer bool

	// Round overrides the round ProposalAndPrecommitValueInput decides
	// at, for the cross-round "commit on certificate" path: a commit
	// certificate received from sync can prove a decision at a round
	// this validator's own state is nowhere near. Leave it NilRound to
	// decide at the state's current round, as an ordinary same-round
	// precommit quorum does.
	Round bftconsensus.Round
}

package bftengine

import (
	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftround"
)

// InputKind identifies what kind of event Engine.Process is being told
// about.
type InputKind uint8

const (
	// StartHeightInput tells the engine to begin (or resume) height Height
	// over validator set ValidatorSet. It must be the first input for
	// every height, including height 1.
	StartHeightInput InputKind = iota

	// VoteInput carries a signed vote received from the network.
	VoteInput

	// ProposalInput carries a signed proposal received from the network.
	ProposalInput

	// ProposedValueInput carries a value this validator must judge: either
	// this validator's own GetValue effect resolving (Origin is
	// OriginConsensus), or a value learned out of band that a proposal
	// references (Origin is OriginSync). Either way the engine runs it
	// through ValidateValue before handing the verdict to the driver.
	ProposedValueInput

	// CommitCertificateInput carries a commit certificate obtained from
	// sync, proving some round of the current height already decided.
	CommitCertificateInput

	// TimeoutElapsedInput reports a previously scheduled timeout firing.
	TimeoutElapsedInput

	// VoteSetRequestInput asks the engine to answer a peer's request for
	// the votes it has recorded at (Height, Round).
	VoteSetRequestInput

	// VoteSetResponseInput carries votes a peer sent in response to this
	// validator's own outstanding vote-set request; each is fed through
	// the engine exactly like a freshly received VoteInput.
	VoteSetResponseInput
)

// ValueOrigin distinguishes where a ProposedValueInput's value came from.
type ValueOrigin uint8

const (
	// OriginConsensus marks a value this validator's own GetValue effect
	// produced, to be proposed.
	OriginConsensus ValueOrigin = iota

	// OriginSync marks a value learned out of band (e.g. alongside a
	// proposal or certificate received from a peer), never proposed by
	// this validator.
	OriginSync
)

// Input is one event delivered to Engine.Process.
type Input struct {
	Kind InputKind

	// StartHeightInput.
	Height       bftconsensus.Height
	ValidatorSet bftconsensus.ValidatorSet

	// VoteInput.
	Vote bftconsensus.SignedVote

	// ProposalInput.
	Proposal bftconsensus.SignedProposal

	// ProposedValueInput.
	Round  bftconsensus.Round
	Value  bftconsensus.Value
	Origin ValueOrigin

	// CommitCertificateInput.
	Certificate bftcert.CommitCertificate

	// TimeoutElapsedInput.
	Timeout bftround.TimeoutKind

	// VoteSetRequestInput / VoteSetResponseInput.
	RequestID string
	Votes     []bftconsensus.SignedVote
}

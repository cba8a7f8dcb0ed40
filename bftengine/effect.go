package bftengine

import (
	"time"

	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftround"
)

// EffectKind identifies what the caller must do in response to an
// Engine.Process call. Signing, verification, and durability are not
// represented as effects: the engine performs them itself against the
// Signer, SignatureScheme, and WAL it was constructed with, since those
// are injected synchronous dependencies rather than asynchronous
// collaborators the way value-building and networking are.
type EffectKind uint8

const (
	// PublishVoteEffect asks the caller to broadcast a signed vote this
	// validator just cast. The engine has already appended it to the WAL
	// (unless Phase is Recovering, in which case no new votes are cast).
	PublishVoteEffect EffectKind = iota

	// PublishProposalEffect asks the caller to broadcast a signed proposal
	// this validator just issued.
	PublishProposalEffect

	// ScheduleTimeoutEffect asks the caller to invoke Engine.Process with
	// a TimeoutElapsedInput for Round/Timeout after Duration elapses,
	// unless the round moves on first.
	ScheduleTimeoutEffect

	// CancelTimeoutsEffect asks the caller to cancel every timeout
	// previously scheduled for a round the engine has since left.
	CancelTimeoutsEffect

	// GetValueEffect asks the host application to produce a value to
	// propose for Round, asynchronously: the caller replies with a
	// ProposedValueInput carrying Origin OriginConsensus once ready. The
	// effect carries no deadline; the Propose timeout scheduled for the
	// same round bounds how long the round waits.
	GetValueEffect

	// GetValidatorSetEffect asks the host application for the validator
	// set effective at Height, for the engine to hand to the next
	// StartHeightInput.
	GetValidatorSetEffect

	// DecideEffect reports that Height decided Value, proven by
	// Certificate. The host application should persist the decision and
	// start the next height.
	DecideEffect

	// GetVoteSetEffect carries in Votes every signed vote this validator
	// has recorded at Round of the current height, and asks the caller to
	// send them to the peer that asked, identified by RequestID. Height is
	// not set.
	GetVoteSetEffect
)

// Effect is one action Engine.Process asks its caller to take.
type Effect struct {
	Kind EffectKind

	Round    bftconsensus.Round
	Timeout  bftround.TimeoutKind
	Duration time.Duration

	Vote     bftconsensus.SignedVote
	Proposal bftconsensus.SignedProposal

	Height bftconsensus.Height
	Value  bftconsensus.Value

	Certificate bftcert.CommitCertificate

	RequestID string
	Votes     []bftconsensus.SignedVote
}

func (k EffectKind) String() string {
	switch k {
	case PublishVoteEffect:
		return "PublishVote"
	case PublishProposalEffect:
		return "PublishProposal"
	case ScheduleTimeoutEffect:
		return "ScheduleTimeout"
	case CancelTimeoutsEffect:
		return "CancelTimeouts"
	case GetValueEffect:
		return "GetValue"
	case GetValidatorSetEffect:
		return "GetValidatorSet"
	case DecideEffect:
		return "Decide"
	case GetVoteSetEffect:
		return "GetVoteSet"
	default:
		return "Unknown"
	}
}

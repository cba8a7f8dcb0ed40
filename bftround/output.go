package bftround

import "github.com/bftengine/core/bftconsensus"

// OutputKind identifies what State.Apply is asking its caller to do.
type OutputKind uint8

const (
	// NoOutput means there is nothing for the caller to do. Usually the
	// input did not match any transition rule and the state is unchanged
	// (the input is dropped); rule 14 also returns NoOutput after
	// recording a new Valid value.
	NoOutput OutputKind = iota

	// GetValueAndScheduleTimeoutOutput asks the caller to request a
	// value to propose from the host application, and to schedule the
	// Propose-step timeout.
	GetValueAndScheduleTimeoutOutput

	// ScheduleTimeoutOutput asks the caller to schedule the timeout
	// named by Timeout.
	ScheduleTimeoutOutput

	// ProposeOutput asks the caller to broadcast a proposal re-offering
	// ValueID (a value this validator was already locked or valid on),
	// claiming PolRound as its proof-of-lock round. The caller looks up
	// the full value by ID, since the round state machine only ever
	// tracks value identity, never value content.
	ProposeOutput

	// VoteOutput asks the caller to sign and broadcast Vote.
	VoteOutput

	// DecisionOutput reports that this round decided the value named by
	// ValueID at round RoundTo: consensus for the height is complete.
	DecisionOutput

	// NewRoundOutput asks the caller to move to RoundTo, either because
	// the precommit timeout expired or because enough validators were
	// observed at a future round to justify skipping ahead.
	NewRoundOutput
)

// Output is the result of State.Apply: what changed, and what the caller
// must do about it.
type Output struct {
	Kind OutputKind

	Timeout TimeoutKind

	ValueID  bftconsensus.ValueID
	PolRound bftconsensus.Round

	Vote bftconsensus.Vote

	RoundTo bftconsensus.Round
}

package bftdriver

import (
	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftround"
)

// OutputKind identifies what the caller must do in response to a
// Driver.Process call.
type OutputKind uint8

const (
	// GetValueOutput asks the caller to request a value to propose from
	// the host application for Round, and to schedule the Propose-step
	// timeout.
	GetValueOutput OutputKind = iota

	// ScheduleTimeoutOutput asks the caller to schedule the named
	// timeout for Round.
	ScheduleTimeoutOutput

	// ProposeOutput asks the caller to build, sign, and broadcast a
	// proposal for Round, re-offering the value named by ValueID at
	// PolRound.
	ProposeOutput

	// BroadcastVoteOutput asks the caller to sign and broadcast Vote.
	BroadcastVoteOutput

	// DecisionOutput reports that the height has decided: Certificate
	// proves it, and Value is the decided value.
	DecisionOutput
)

// Output is one action Driver.Process asks its caller to take.
type Output struct {
	Kind OutputKind

	Round   bftconsensus.Round
	Timeout bftround.TimeoutKind

	ValueID  bftconsensus.ValueID
	PolRound bftconsensus.Round

	Vote bftconsensus.Vote

	Value       bftconsensus.Value
	Certificate bftcert.CommitCertificate
}

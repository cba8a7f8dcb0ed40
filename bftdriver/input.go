// Package bftdriver composes the vote keeper, proposal keeper,
// full-proposal keeper, and round state machine into the driver for a
// single height of consensus: it accepts external inputs (received
// proposals, votes, host-validated values, timeouts), derives the
// composite inputs the round state machine actually consumes, drains them
// to quiescence, and reports the resulting outputs, including built
// certificates once a height decides.
package bftdriver

import (
	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
)

// InputKind identifies what kind of external event Process is being told
// about.
type InputKind uint8

const (
	// ProposalReceived carries a signed proposal from the network.
	ProposalReceived InputKind = iota

	// VoteReceived carries a signed vote from the network.
	VoteReceived

	// ValueValidated carries the host's ValidateValue verdict for a
	// value proposed at Round.
	ValueValidated

	// TimeoutPropose reports the Propose-step timeout firing for Round.
	TimeoutPropose

	// TimeoutPrevote reports the Prevote-step timeout firing for Round.
	TimeoutPrevote

	// TimeoutPrecommit reports the Precommit-step timeout firing for
	// Round.
	TimeoutPrecommit

	// CommitCertificateReceived carries a commit certificate obtained
	// out of band (typically from sync), proving that some round of
	// this height already decided a value. This is the liveness-critical
	// path that lets a validator lagging behind the rest of the set
	// catch up without replaying every intermediate round's votes.
	CommitCertificateReceived
)

// Input is one event delivered to Driver.Process.
type Input struct {
	Kind InputKind

	Proposal    bftconsensus.SignedProposal
	Vote        bftconsensus.SignedVote
	Certificate bftcert.CommitCertificate

	Round bftconsensus.Round
	Value bftconsensus.Value
	Valid bool
}

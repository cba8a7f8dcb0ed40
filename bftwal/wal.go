// Package bftwal defines the write-ahead-log contract the engine layer
// appends this validator's own actions to before publishing them, so they
// can be replayed after a crash, and an in-memory
// implementation suitable for tests and the demo application.
package bftwal

import (
	"context"

	"github.com/bftengine/core/bftconsensus"
)

// EntryKind identifies what an Entry records.
type EntryKind uint8

const (
	// ProposalEntry records a proposal this validator signed.
	ProposalEntry EntryKind = iota

	// VoteEntry records a vote (prevote or precommit) this validator
	// signed.
	VoteEntry
)

// Entry is one action recorded to the log, in the order it was taken.
type Entry struct {
	Kind EntryKind

	Proposal bftconsensus.SignedProposal
	Vote     bftconsensus.SignedVote
}

// WAL is the durability contract the engine writes this validator's own
// signed actions to before broadcasting them. An engine recovering from a
// crash replays the entries StartHeight returns for a height, in Append
// order, before resuming live operation.
type WAL interface {
	// StartHeight begins (or resumes) logging for height, returning any
	// entries already recorded for it so the caller can replay them.
	StartHeight(ctx context.Context, height bftconsensus.Height) ([]Entry, error)

	// Append records entry for height/round. Implementations must
	// persist entry before Append returns, so the engine can rely on
	// WAL-before-publish ordering: an action is only ever broadcast
	// after its Append call has returned successfully.
	Append(ctx context.Context, height bftconsensus.Height, round bftconsensus.Round, entry Entry) error

	// Flush forces any buffered entries to durable storage.
	Flush(ctx context.Context) error
}

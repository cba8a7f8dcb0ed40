// Package bftfullproposal pairs a signed Proposal with the application's
// validated Value for that proposal, once both halves are available. The
// round state machine only ever acts on a full proposal, never a signed
// proposal alone, since only the host can confirm a value is valid.
package bftfullproposal

import "github.com/bftengine/core/bftconsensus"

// Entry is the state of one (round, value ID) pair as it accumulates a
// proposal half and a value half. Once both are present the pair becomes
// Full and stays Full: fields are only ever set, never cleared.
type Entry struct {
	Proposal *bftconsensus.SignedProposal
	Value    *bftconsensus.Value

	// Valid is the host's ValidateValue verdict for Value. Only
	// meaningful once Value is non-nil.
	Valid bool
}

// IsFull reports whether both halves of the entry are present.
func (e Entry) IsFull() bool {
	return e.Proposal != nil && e.Value != nil
}

type entryKey struct {
	round bftconsensus.Round
	id    bftconsensus.ValueID
}

// Keeper accumulates proposal/value pairs for a single height. It is not
// safe for concurrent use.
type Keeper struct {
	height  bftconsensus.Height
	entries map[entryKey]*Entry
}

// NewKeeper creates a Keeper for height.
func NewKeeper(height bftconsensus.Height) *Keeper {
	return &Keeper{height: height, entries: make(map[entryKey]*Entry)}
}

func (k *Keeper) entryFor(round bftconsensus.Round, id bftconsensus.ValueID) *Entry {
	key := entryKey{round: round, id: id}
	e, ok := k.entries[key]
	if !ok {
		e = &Entry{}
		k.entries[key] = e
	}
	return e
}

// AddProposal records sp's proposal half and returns the resulting entry.
// If the matching value half is already present, the entry becomes Full.
func (k *Keeper) AddProposal(sp bftconsensus.SignedProposal) Entry {
	e := k.entryFor(sp.Proposal.Round, sp.Proposal.Value.ID)
	if e.Proposal == nil {
		cp := sp
		e.Proposal = &cp
	}
	return *e
}

// AddValue records a value the host has finished validating, together
// with its ValidateValue verdict, for (round, value). If the matching
// proposal half is already present, the entry becomes Full.
func (k *Keeper) AddValue(round bftconsensus.Round, value bftconsensus.Value, valid bool) Entry {
	e := k.entryFor(round, value.ID)
	if e.Value == nil {
		cp := value
		e.Value = &cp
		e.Valid = valid
	}
	return *e
}

// GetFull returns the full proposal for (round, id), if both halves have
// been recorded.
func (k *Keeper) GetFull(round bftconsensus.Round, id bftconsensus.ValueID) (bftconsensus.SignedProposal, bftconsensus.Value, bool) {
	e, ok := k.entries[entryKey{round: round, id: id}]
	if !ok || !e.IsFull() {
		return bftconsensus.SignedProposal{}, bftconsensus.Value{}, false
	}
	return *e.Proposal, *e.Value, true
}

// GetEntry returns the raw entry for (round, id), for callers that need to
// inspect partial state or the Valid flag directly.
func (k *Keeper) GetEntry(round bftconsensus.Round, id bftconsensus.ValueID) (Entry, bool) {
	e, ok := k.entries[entryKey{round: round, id: id}]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Package bftproposal implements the proposal keeper: it stores the
// proposal(s) received from each validator for each round, at most once
// per distinct value, and records equivocation evidence when a proposer
// offers two distinct values for the same round without overwriting
// either.
package bftproposal

import (
	"fmt"

	"github.com/bftengine/core/bftconsensus"
)

// Evidence records that a proposer offered two distinct values for one
// round.
type Evidence struct {
	Height  bftconsensus.Height
	Round   bftconsensus.Round
	Address bftconsensus.Address
	First   bftconsensus.SignedProposal
	Second  bftconsensus.SignedProposal
}

// Keeper stores proposals for a single height, indexed by round, proposer
// address, and value ID. It is not safe for concurrent use.
type Keeper struct {
	height   bftconsensus.Height
	vs       bftconsensus.ValidatorSet
	byRound  map[bftconsensus.Round]map[bftconsensus.Address]map[bftconsensus.ValueID]bftconsensus.SignedProposal
	evidence []Evidence
}

// NewKeeper creates a Keeper for height over validator set vs.
func NewKeeper(height bftconsensus.Height, vs bftconsensus.ValidatorSet) *Keeper {
	return &Keeper{
		height:  height,
		vs:      vs,
		byRound: make(map[bftconsensus.Round]map[bftconsensus.Address]map[bftconsensus.ValueID]bftconsensus.SignedProposal),
	}
}

// Store records sp. It returns whether the proposal was newly recorded
// (false if it was already present, an idempotent no-op) and evidence if
// sp's proposer had already offered a distinct value for this round.
func (k *Keeper) Store(sp bftconsensus.SignedProposal) (stored bool, ev *Evidence, err error) {
	p := sp.Proposal
	if p.Height != k.height {
		return false, nil, fmt.Errorf("%w: proposal height %d, keeper height %d", ErrHeightMismatch, p.Height, k.height)
	}
	if _, ok := k.vs.GetByAddress(p.Proposer); !ok {
		return false, nil, fmt.Errorf("%w: %s", ErrUnknownProposer, p.Proposer)
	}

	byAddr, ok := k.byRound[p.Round]
	if !ok {
		byAddr = make(map[bftconsensus.Address]map[bftconsensus.ValueID]bftconsensus.SignedProposal)
		k.byRound[p.Round] = byAddr
	}
	byValue, ok := byAddr[p.Proposer]
	if !ok {
		byValue = make(map[bftconsensus.ValueID]bftconsensus.SignedProposal)
		byAddr[p.Proposer] = byValue
	}

	if existing, already := byValue[p.Value.ID]; already {
		_ = existing
		return false, nil, nil
	}

	if len(byValue) > 0 {
		// The proposer already has a stored proposal for this round,
		// for a different value: this is equivocation. Retain both.
		for _, first := range byValue {
			e := Evidence{
				Height: k.height, Round: p.Round, Address: p.Proposer,
				First: first, Second: sp,
			}
			k.evidence = append(k.evidence, e)
			ev = &e
			break
		}
	}

	byValue[p.Value.ID] = sp
	return true, ev, nil
}

// GetByValueID returns the proposal stored for round matching id, from
// any proposer, if one exists.
func (k *Keeper) GetByValueID(round bftconsensus.Round, id bftconsensus.ValueID) (bftconsensus.SignedProposal, bool) {
	byAddr, ok := k.byRound[round]
	if !ok {
		return bftconsensus.SignedProposal{}, false
	}
	for _, byValue := range byAddr {
		if sp, ok := byValue[id]; ok {
			return sp, true
		}
	}
	return bftconsensus.SignedProposal{}, false
}

// GetByProposer returns every proposal the given address has offered for
// round (normally at most one, except under equivocation).
func (k *Keeper) GetByProposer(round bftconsensus.Round, addr bftconsensus.Address) []bftconsensus.SignedProposal {
	byAddr, ok := k.byRound[round]
	if !ok {
		return nil
	}
	byValue, ok := byAddr[addr]
	if !ok {
		return nil
	}
	out := make([]bftconsensus.SignedProposal, 0, len(byValue))
	for _, sp := range byValue {
		out = append(out, sp)
	}
	return out
}

// Evidence returns every equivocation recorded so far.
func (k *Keeper) Evidence() []Evidence {
	return k.evidence
}

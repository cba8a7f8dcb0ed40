package bftvote

import (
	"fmt"

	"github.com/bftengine/core/bftconsensus"
)

// EquivocationEvidence records that an address cast two differing votes for
// the same height, round, and vote type.
type EquivocationEvidence struct {
	Height  bftconsensus.Height
	Round   bftconsensus.Round
	Type    bftconsensus.VoteType
	Address bftconsensus.Address
	First   bftconsensus.SignedVote
	Second  bftconsensus.SignedVote
}

// thresholdLevel ranks the Any/Nil/Value thresholds for a single (round,
// type) tally so that once a higher one has been emitted, a lower one can
// never fire afterward, per the Unreached < Any < Nil < Value(_) order.
type thresholdLevel uint8

const (
	levelUnreached thresholdLevel = iota
	levelAny
	levelNil
	levelValue
)

type roundTally struct {
	weights map[bftconsensus.NilOrVal]uint64
	votedBy map[bftconsensus.Address]bftconsensus.NilOrVal
	signed  map[bftconsensus.Address]bftconsensus.SignedVote
	total   uint64

	// highWater is the highest threshold level emitted so far for this
	// tally. Any and Nil are each reported at most once and only while
	// strictly higher than highWater; Value is keyed separately below since
	// a distinct value threshold is reported once per distinct value even
	// after Any, Nil, or a different value has already been reported.
	highWater    thresholdLevel
	valueEmitted map[bftconsensus.ValueID]bool
}

func newRoundTally() *roundTally {
	return &roundTally{
		weights:      make(map[bftconsensus.NilOrVal]uint64),
		votedBy:      make(map[bftconsensus.Address]bftconsensus.NilOrVal),
		signed:       make(map[bftconsensus.Address]bftconsensus.SignedVote),
		valueEmitted: make(map[bftconsensus.ValueID]bool),
	}
}

type roundKey struct {
	round bftconsensus.Round
	typ   bftconsensus.VoteType
}

// Keeper tallies votes for a single height of consensus, across every
// round, and reports threshold-crossing events and skip-round candidates.
// A Keeper is not safe for concurrent use; callers serialize access the
// way the rest of the core's pure components are serialized.
type Keeper struct {
	vs       bftconsensus.ValidatorSet
	params   bftconsensus.ThresholdParams
	height   bftconsensus.Height

	byRound map[roundKey]*roundTally

	// skipRound tracks, per future round, the distinct addresses that
	// have voted (of either type) at that round, regardless of value.
	skipRound map[bftconsensus.Round]map[bftconsensus.Address]bool
	skipTotal map[bftconsensus.Round]uint64
	skipped   map[bftconsensus.Round]bool

	evidence []EquivocationEvidence
}

// NewKeeper creates a Keeper for height, over validator set vs, using the
// given threshold parameters.
func NewKeeper(height bftconsensus.Height, vs bftconsensus.ValidatorSet, params bftconsensus.ThresholdParams) *Keeper {
	return &Keeper{
		vs:        vs,
		params:    params,
		height:    height,
		byRound:   make(map[roundKey]*roundTally),
		skipRound: make(map[bftconsensus.Round]map[bftconsensus.Address]bool),
		skipTotal: make(map[bftconsensus.Round]uint64),
		skipped:   make(map[bftconsensus.Round]bool),
	}
}

func (k *Keeper) tallyFor(round bftconsensus.Round, typ bftconsensus.VoteType) *roundTally {
	key := roundKey{round: round, typ: typ}
	rt, ok := k.byRound[key]
	if !ok {
		rt = newRoundTally()
		k.byRound[key] = rt
	}
	return rt
}

// AddVote records sv's vote, validating it belongs to this height and to a
// known validator. It returns the threshold events newly crossed as a
// result (zero, one, or two: a value/nil/any event and, independently, a
// SkipRound event if sv's round is beyond currentRound), plus any
// equivocation evidence recorded.
//
// Each (round, vote type, threshold) triple is reported at most once over
// the Keeper's lifetime, and a distinct PolkaValue/PrecommitValue is
// reported once per distinct value even after a different value or the Any
// threshold for that round has already been reported.
func (k *Keeper) AddVote(sv bftconsensus.SignedVote, currentRound bftconsensus.Round) ([]ThresholdEvent, *EquivocationEvidence, error) {
	v := sv.Vote
	if v.Height != k.height {
		return nil, nil, fmt.Errorf("%w: vote height %d, keeper height %d", ErrHeightMismatch, v.Height, k.height)
	}
	val, ok := k.vs.GetByAddress(v.Voter)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownValidator, v.Voter)
	}

	var events []ThresholdEvent

	rt := k.tallyFor(v.Round, v.Type)
	prev, voted := rt.votedBy[v.Voter]
	var ev *EquivocationEvidence
	if voted {
		if !prev.Equal(v.Value) {
			ev = &EquivocationEvidence{
				Height: k.height, Round: v.Round, Type: v.Type, Address: v.Voter,
				First: rt.signed[v.Voter], Second: sv,
			}
			k.evidence = append(k.evidence, *ev)
		}
		// Weight was already counted for this address; do not add again.
	} else {
		rt.votedBy[v.Voter] = v.Value
		rt.signed[v.Voter] = sv
		rt.weights[v.Value] += val.Power
		rt.total += val.Power

		if vev := k.checkThresholds(rt, v.Type, v.Round, v.Value); vev != nil {
			events = append(events, *vev)
		}
	}

	if se := k.checkSkipRound(v.Voter, v.Round, currentRound, val.Power); se != nil {
		events = append(events, *se)
	}

	return events, ev, nil
}

func (k *Keeper) checkThresholds(rt *roundTally, typ bftconsensus.VoteType, round bftconsensus.Round, value bftconsensus.NilOrVal) *ThresholdEvent {
	total := k.vs.TotalPower()

	if value.IsNil() {
		// Precommit has no distinguished "nil" threshold; nil weight
		// only ever contributes toward the Any threshold.
		if typ == bftconsensus.Prevote && rt.highWater < levelNil && k.params.HasQuorum(rt.weights[value], total) {
			rt.highWater = levelNil
			return &ThresholdEvent{Kind: PolkaNil, Round: round}
		}
	} else {
		id := value.ID()
		if !rt.valueEmitted[id] && k.params.HasQuorum(rt.weights[value], total) {
			rt.valueEmitted[id] = true
			if rt.highWater < levelValue {
				rt.highWater = levelValue
			}
			kind := PolkaValue
			if typ == bftconsensus.Precommit {
				kind = PrecommitValue
			}
			return &ThresholdEvent{Kind: kind, Round: round, ValueID: id}
		}
	}

	if rt.highWater < levelAny && k.params.HasQuorum(rt.total, total) {
		rt.highWater = levelAny
		kind := PolkaAny
		if typ == bftconsensus.Precommit {
			kind = PrecommitAny
		}
		return &ThresholdEvent{Kind: kind, Round: round}
	}

	return nil
}

func (k *Keeper) checkSkipRound(addr bftconsensus.Address, voteRound, currentRound bftconsensus.Round, power uint64) *ThresholdEvent {
	if !currentRound.Less(voteRound) {
		// voteRound is not strictly ahead of currentRound; nothing to skip to.
		return nil
	}
	if k.skipped[voteRound] {
		return nil
	}

	set, ok := k.skipRound[voteRound]
	if !ok {
		set = make(map[bftconsensus.Address]bool)
		k.skipRound[voteRound] = set
	}
	if !set[addr] {
		set[addr] = true
		k.skipTotal[voteRound] += power
	}

	if k.params.HasHonest(k.skipTotal[voteRound], k.vs.TotalPower()) {
		k.skipped[voteRound] = true
		return &ThresholdEvent{Kind: SkipRound, Round: voteRound}
	}
	return nil
}

// Evidence returns every equivocation recorded so far.
func (k *Keeper) Evidence() []EquivocationEvidence {
	return k.evidence
}

// WeightFor returns the weight of votes recorded for (round, type, value).
func (k *Keeper) WeightFor(round bftconsensus.Round, typ bftconsensus.VoteType, value bftconsensus.NilOrVal) uint64 {
	rt, ok := k.byRound[roundKey{round: round, typ: typ}]
	if !ok {
		return 0
	}
	return rt.weights[value]
}

// VotersFor returns the set of addresses recorded as having voted for
// value at (round, type), for certificate construction.
func (k *Keeper) VotersFor(round bftconsensus.Round, typ bftconsensus.VoteType, value bftconsensus.NilOrVal) []bftconsensus.Address {
	rt, ok := k.byRound[roundKey{round: round, typ: typ}]
	if !ok {
		return nil
	}
	var out []bftconsensus.Address
	for addr, v := range rt.votedBy {
		if v.Equal(value) {
			out = append(out, addr)
		}
	}
	return out
}

// AllSignedVotes returns every signed vote recorded at round, of either
// vote type and for any value (including nil), in no particular order.
// Callers use this to answer a peer's vote-set sync request, where the
// peer wants everything this validator knows about the round rather than
// the votes for one specific value.
func (k *Keeper) AllSignedVotes(round bftconsensus.Round) []bftconsensus.SignedVote {
	var out []bftconsensus.SignedVote
	for _, typ := range []bftconsensus.VoteType{bftconsensus.Prevote, bftconsensus.Precommit} {
		rt, ok := k.byRound[roundKey{round: round, typ: typ}]
		if !ok {
			continue
		}
		for _, sv := range rt.signed {
			out = append(out, sv)
		}
	}
	return out
}

// SignedVotesForValue returns the stored SignedVote of every validator
// recorded as having voted for value at (round, type), suitable as input
// to bftcert's certificate builders.
func (k *Keeper) SignedVotesForValue(round bftconsensus.Round, typ bftconsensus.VoteType, value bftconsensus.NilOrVal) []bftconsensus.SignedVote {
	rt, ok := k.byRound[roundKey{round: round, typ: typ}]
	if !ok {
		return nil
	}
	out := make([]bftconsensus.SignedVote, 0, len(rt.signed))
	for addr, v := range rt.votedBy {
		if v.Equal(value) {
			out = append(out, rt.signed[addr])
		}
	}
	return out
}

package bftdriver

import (
	"fmt"
	"log/slog"

	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftfullproposal"
	"github.com/bftengine/core/bfthost"
	"github.com/bftengine/core/bftproposal"
	"github.com/bftengine/core/bftround"
	"github.com/bftengine/core/bftvote"
)

// setKey is a (round, value) pair used as a key in Driver's dedup sets.
type setKey struct {
	round bftconsensus.Round
	id    bftconsensus.ValueID
}

// Driver composes the vote keeper, proposal keeper, and full-proposal
// keeper with the round state machine to run a single height of
// consensus to its decision. A Driver is not safe for concurrent use;
// the engine layer (bftengine) calls it only from Engine.Process, whose
// callers serialize their calls.
type Driver struct {
	log *slog.Logger

	self        bftconsensus.Address
	vs          bftconsensus.ValidatorSet
	params      bftconsensus.ThresholdParams
	proposerSel bfthost.ProposerSelector
	sigScheme   bftconsensus.SignatureScheme
	hashScheme  bftconsensus.HashScheme

	height bftconsensus.Height
	votes  *bftvote.Keeper
	props  *bftproposal.Keeper
	full   *bftfullproposal.Keeper
	round  bftround.State

	certs      map[setKey]bftcert.CommitCertificate
	polkaCerts map[setKey]bftcert.PolkaCertificate
	roundCerts map[bftconsensus.Round]bftcert.RoundCertificate

	pending []bftround.Input

	polkaValue     map[setKey]bool
	precommitValue map[setKey]bool

	proposalFired                  map[setKey]bool
	proposalAndPolkaPreviousFired  map[setKey]bool
	proposalAndPolkaCurrentFired   map[setKey]bool
	proposalAndPrecommitValueFired map[setKey]bool
}

// New creates a Driver for the first round of height, over validator set
// vs, owned by the validator at address self.
func New(
	log *slog.Logger,
	self bftconsensus.Address,
	vs bftconsensus.ValidatorSet,
	params bftconsensus.ThresholdParams,
	proposerSel bfthost.ProposerSelector,
	sigScheme bftconsensus.SignatureScheme,
	hashScheme bftconsensus.HashScheme,
	height bftconsensus.Height,
) *Driver {
	d := &Driver{
		log: log,

		self:        self,
		vs:          vs,
		params:      params,
		proposerSel: proposerSel,
		sigScheme:   sigScheme,
		hashScheme:  hashScheme,
	}
	d.resetForHeight(height, vs)
	return d
}

func (d *Driver) resetForHeight(height bftconsensus.Height, vs bftconsensus.ValidatorSet) {
	d.height = height
	d.vs = vs
	d.votes = bftvote.NewKeeper(height, vs, d.params)
	d.props = bftproposal.NewKeeper(height, vs)
	d.full = bftfullproposal.NewKeeper(height)
	d.round = bftround.NewState(height)
	d.certs = make(map[setKey]bftcert.CommitCertificate)
	d.polkaCerts = make(map[setKey]bftcert.PolkaCertificate)
	d.roundCerts = make(map[bftconsensus.Round]bftcert.RoundCertificate)
	d.pending = nil

	d.polkaValue = make(map[setKey]bool)
	d.precommitValue = make(map[setKey]bool)
	d.proposalFired = make(map[setKey]bool)
	d.proposalAndPolkaPreviousFired = make(map[setKey]bool)
	d.proposalAndPolkaCurrentFired = make(map[setKey]bool)
	d.proposalAndPrecommitValueFired = make(map[setKey]bool)
}

// MoveToHeight resets the driver's entire lifecycle to start height fresh,
// with vs as that height's validator set. height must be exactly one more
// than the driver's current height.
func (d *Driver) MoveToHeight(height bftconsensus.Height, vs bftconsensus.ValidatorSet) error {
	if height != d.height.Increment() {
		return fmt.Errorf("%w: have %d, want %d", ErrNonSequentialHeight, d.height, d.height.Increment())
	}
	d.resetForHeight(height, vs)
	return nil
}

// Height returns the driver's current height.
func (d *Driver) Height() bftconsensus.Height { return d.height }

// RoundState returns a copy of the round state machine's current state.
func (d *Driver) RoundState() bftround.State { return d.round }

// Votes returns the vote keeper backing this driver, for callers (such as
// the engine layer) that need to inspect tallies or evidence directly.
func (d *Driver) Votes() *bftvote.Keeper { return d.votes }

// Proposals returns the proposal keeper backing this driver.
func (d *Driver) Proposals() *bftproposal.Keeper { return d.props }

// Full returns the full-proposal keeper backing this driver.
func (d *Driver) Full() *bftfullproposal.Keeper { return d.full }

// ValidatorSet returns the validator set this driver's current height is
// running over, for callers (such as the engine layer) that need it to
// verify signatures or certificates.
func (d *Driver) ValidatorSet() bftconsensus.ValidatorSet { return d.vs }

// GetCertificate returns the commit certificate stored for (round, id), if
// one has been built (from a local decision) or received (from sync) at
// this height.
func (d *Driver) GetCertificate(round bftconsensus.Round, id bftconsensus.ValueID) (bftcert.CommitCertificate, bool) {
	c, ok := d.certs[setKey{round, id}]
	return c, ok
}

// GetPolkaCertificate returns the polka certificate built for (round, id),
// if a prevote quorum for that value has been locally tallied at this
// height. Callers (such as the engine layer answering a vote-set sync
// request) use this to hand a peer compact evidence of a round's prevote
// quorum instead of the full set of individual signed votes.
func (d *Driver) GetPolkaCertificate(round bftconsensus.Round, id bftconsensus.ValueID) (bftcert.PolkaCertificate, bool) {
	c, ok := d.polkaCerts[setKey{round, id}]
	return c, ok
}

// GetRoundCertificate returns the round certificate built for round, if
// this validator has observed enough votes at round to justify skipping
// ahead to it. Used the same way GetPolkaCertificate is: to hand a
// syncing peer compact evidence rather than raw votes.
func (d *Driver) GetRoundCertificate(round bftconsensus.Round) (bftcert.RoundCertificate, bool) {
	c, ok := d.roundCerts[round]
	return c, ok
}

// Start enqueues the first round's NewRoundInput. Callers must invoke this
// once after constructing a Driver, before feeding it any other input.
func (d *Driver) Start() ([]Output, error) {
	isProposer := d.proposerSel.ProposerForRound(d.vs, d.round.Round) == d.self
	d.pending = append(d.pending, bftround.Input{Kind: bftround.NewRoundInput, IsProposer: isProposer})
	return d.drain()
}

// Process handles one external input and returns every output produced by
// draining the resulting cascade of round-state-machine transitions to
// quiescence.
func (d *Driver) Process(in Input) ([]Output, error) {
	switch in.Kind {
	case ProposalReceived:
		if err := d.handleProposal(in.Proposal); err != nil {
			return nil, err
		}
	case VoteReceived:
		if err := d.handleVote(in.Vote); err != nil {
			return nil, err
		}
	case ValueValidated:
		d.full.AddValue(in.Round, in.Value, in.Valid)
		d.tryDerive(in.Round, in.Value.ID)
	case TimeoutPropose:
		d.enqueueTimeout(in.Round, bftround.TimeoutProposeInput)
	case TimeoutPrevote:
		d.enqueueTimeout(in.Round, bftround.TimeoutPrevoteInput)
	case TimeoutPrecommit:
		d.enqueueTimeout(in.Round, bftround.TimeoutPrecommitInput)
	case CommitCertificateReceived:
		if err := d.handleCertificate(in.Certificate); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("bftdriver: unknown input kind %d", in.Kind)
	}

	return d.drain()
}

func (d *Driver) handleProposal(sp bftconsensus.SignedProposal) error {
	p := sp.Proposal
	if p.Height != d.height {
		return fmt.Errorf("%w: proposal height %d, driver height %d", ErrHeightMismatch, p.Height, d.height)
	}
	if _, ok := d.vs.GetByAddress(p.Proposer); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProposer, p.Proposer)
	}
	if want := d.proposerSel.ProposerForRound(d.vs, p.Round); want != p.Proposer {
		return fmt.Errorf("%w: round %s got %s want %s", ErrWrongProposer, p.Round, p.Proposer, want)
	}

	if _, _, err := d.props.Store(sp); err != nil {
		return err
	}
	d.full.AddProposal(sp)
	d.tryDerive(p.Round, p.Value.ID)
	return nil
}

func (d *Driver) handleVote(sv bftconsensus.SignedVote) error {
	events, _, err := d.votes.AddVote(sv, d.round.Round)
	if err != nil {
		return err
	}
	for _, ev := range events {
		d.handleThresholdEvent(ev)
	}
	return nil
}

// handleCertificate records a commit certificate obtained from sync and,
// if the matching proposal is already known, synthesizes the decision
// path unconditionally — this is the cross-round "commit on certificate"
// liveness path, independent of whether this validator's own vote keeper
// ever reached a precommit quorum for (round, id) itself.
func (d *Driver) handleCertificate(cert bftcert.CommitCertificate) error {
	if cert.Height != d.height {
		return fmt.Errorf("%w: certificate height %d, driver height %d", ErrInvalidCertificateHeight, cert.Height, d.height)
	}

	key := setKey{cert.Round, cert.Value.ID}
	d.certs[key] = cert
	d.precommitValue[key] = true
	d.tryDerive(cert.Round, cert.Value.ID)
	return nil
}

func (d *Driver) handleThresholdEvent(ev bftvote.ThresholdEvent) {
	switch ev.Kind {
	case bftvote.PolkaAny:
		if ev.Round.Equal(d.round.Round) {
			d.pending = append(d.pending, bftround.Input{Kind: bftround.PolkaAnyInput})
		}
	case bftvote.PolkaNil:
		if ev.Round.Equal(d.round.Round) {
			d.pending = append(d.pending, bftround.Input{Kind: bftround.PolkaNilInput})
		}
	case bftvote.PrecommitAny:
		if ev.Round.Equal(d.round.Round) {
			d.pending = append(d.pending, bftround.Input{Kind: bftround.PrecommitAnyInput})
		}
	case bftvote.PolkaValue:
		d.polkaValue[setKey{ev.Round, ev.ValueID}] = true
		d.buildPolkaCertificate(ev.Round, ev.ValueID)
		d.tryDerive(ev.Round, ev.ValueID)
	case bftvote.PrecommitValue:
		d.precommitValue[setKey{ev.Round, ev.ValueID}] = true
		d.tryDerive(ev.Round, ev.ValueID)
	case bftvote.SkipRound:
		d.buildRoundCertificateSkipped(ev.Round)
		d.pending = append(d.pending, bftround.Input{Kind: bftround.SkipRoundInput, SkipToRound: ev.Round})
	}
}

func (d *Driver) enqueueTimeout(round bftconsensus.Round, kind bftround.InputKind) {
	if !round.Equal(d.round.Round) {
		// Stale timeout for a round this validator has already left.
		return
	}
	d.pending = append(d.pending, bftround.Input{Kind: kind})
}

// tryDerive checks whether the full proposal at (round, id) now
// satisfies any composite round-input condition that has not already
// fired, and enqueues it if so.
func (d *Driver) tryDerive(round bftconsensus.Round, id bftconsensus.ValueID) {
	sp, _, full := d.full.GetFull(round, id)
	if !full {
		return
	}
	entry, _ := d.full.GetEntry(round, id)

	if d.polkaValue[setKey{round, id}] {
		if _, ok := d.polkaCerts[setKey{round, id}]; !ok {
			d.buildPolkaCertificate(round, id)
		}
	}

	// A precommit quorum for this value, at any round, decides the
	// height immediately once the matching proposal is known.
	if d.precommitValue[setKey{round, id}] && !d.proposalAndPrecommitValueFired[setKey{round, id}] {
		d.proposalAndPrecommitValueFired[setKey{round, id}] = true
		d.pending = append(d.pending, bftround.Input{
			Kind: bftround.ProposalAndPrecommitValueInput, Proposal: sp.Proposal, Valid: entry.Valid,
			Round: round,
		})
		return
	}

	if !round.Equal(d.round.Round) {
		return
	}

	polRound := sp.Proposal.PolRound
	if polRound.IsNil() {
		if !d.proposalFired[setKey{round, id}] {
			d.proposalFired[setKey{round, id}] = true
			d.pending = append(d.pending, bftround.Input{
				Kind: bftround.ProposalInput, Proposal: sp.Proposal, Valid: entry.Valid,
			})
		}
	} else if polRound.Less(round) {
		if d.polkaValue[setKey{polRound, id}] && !d.proposalAndPolkaPreviousFired[setKey{round, id}] {
			d.proposalAndPolkaPreviousFired[setKey{round, id}] = true
			d.pending = append(d.pending, bftround.Input{
				Kind: bftround.ProposalAndPolkaPreviousInput, Proposal: sp.Proposal, Valid: entry.Valid,
			})
		}
	}

	if d.polkaValue[setKey{round, id}] && !d.proposalAndPolkaCurrentFired[setKey{round, id}] {
		d.proposalAndPolkaCurrentFired[setKey{round, id}] = true
		d.pending = append(d.pending, bftround.Input{
			Kind: bftround.ProposalAndPolkaCurrentInput, Proposal: sp.Proposal, Valid: entry.Valid,
		})
	}
}

func (d *Driver) drain() ([]Output, error) {
	var outputs []Output

	for len(d.pending) > 0 {
		in := d.pending[0]
		d.pending = d.pending[1:]

		out := d.round.Apply(in)

		switch out.Kind {
		case bftround.NoOutput:
			// Nothing to report.

		case bftround.GetValueAndScheduleTimeoutOutput:
			outputs = append(outputs, Output{Kind: GetValueOutput, Round: d.round.Round, Timeout: out.Timeout})

		case bftround.ScheduleTimeoutOutput:
			outputs = append(outputs, Output{Kind: ScheduleTimeoutOutput, Round: d.round.Round, Timeout: out.Timeout})

		case bftround.ProposeOutput:
			outputs = append(outputs, Output{
				Kind: ProposeOutput, Round: d.round.Round, ValueID: out.ValueID, PolRound: out.PolRound,
			})

		case bftround.VoteOutput:
			v := out.Vote
			v.Voter = d.self
			outputs = append(outputs, Output{Kind: BroadcastVoteOutput, Round: d.round.Round, Vote: v})

		case bftround.DecisionOutput:
			// A certificate obtained from sync (handleCertificate) is
			// already a complete, independently verifiable proof of
			// this decision; only build one from our own locally
			// tallied votes if we don't already have one, since our own
			// tally may be empty for a round a certificate alone
			// carried us past.
			cert, ok := d.certs[setKey{out.RoundTo, out.ValueID}]
			_, value, full := d.full.GetFull(out.RoundTo, out.ValueID)
			if !full {
				return outputs, fmt.Errorf("bftdriver: no full proposal for decided value at round %s", out.RoundTo)
			}
			if !ok {
				var err error
				cert, _, err = d.buildDecisionCertificate(out.RoundTo, out.ValueID)
				if err != nil {
					return outputs, fmt.Errorf("bftdriver: building decision certificate: %w", err)
				}
				d.certs[setKey{out.RoundTo, out.ValueID}] = cert
			}
			outputs = append(outputs, Output{
				Kind: DecisionOutput, Round: out.RoundTo, ValueID: out.ValueID,
				Value: value, Certificate: cert,
			})

		case bftround.NewRoundOutput:
			d.round = bftround.State{
				Height: d.height, Round: out.RoundTo, Step: bftround.Unstarted,
				Locked: d.round.Locked, Valid: d.round.Valid,
			}
			isProposer := d.proposerSel.ProposerForRound(d.vs, d.round.Round) == d.self
			d.pending = append(d.pending, bftround.Input{Kind: bftround.NewRoundInput, IsProposer: isProposer})
		}
	}

	return outputs, nil
}

func (d *Driver) buildDecisionCertificate(round bftconsensus.Round, id bftconsensus.ValueID) (bftcert.CommitCertificate, bftconsensus.Value, error) {
	_, value, ok := d.full.GetFull(round, id)
	if !ok {
		return bftcert.CommitCertificate{}, bftconsensus.Value{}, fmt.Errorf("bftdriver: no full proposal for decided value at round %s", round)
	}

	votes := d.votes.SignedVotesForValue(round, bftconsensus.Precommit, bftconsensus.ValVote(id))
	cert, err := bftcert.BuildCommitCertificate(d.vs, d.sigScheme, d.hashScheme, d.height, round, value, votes)
	if err != nil {
		return bftcert.CommitCertificate{}, bftconsensus.Value{}, err
	}
	return cert, value, nil
}

// buildPolkaCertificate aggregates this height's locally tallied prevotes
// for (round, id) into a PolkaCertificate once they cross quorum, so a
// syncing peer can be handed compact evidence of the round's polka
// instead of the raw vote set.
func (d *Driver) buildPolkaCertificate(round bftconsensus.Round, id bftconsensus.ValueID) {
	_, value, ok := d.full.GetFull(round, id)
	if !ok {
		// The matching proposal hasn't arrived yet; nothing to attach a
		// certificate's Value to until it does. GetPolkaCertificate will
		// simply report nothing for (round, id) until that happens.
		return
	}
	votes := d.votes.SignedVotesForValue(round, bftconsensus.Prevote, bftconsensus.ValVote(id))
	cert, err := bftcert.BuildPolkaCertificate(d.vs, d.sigScheme, d.hashScheme, d.height, round, value, votes)
	if err != nil {
		d.log.Warn("failed to build polka certificate", "round", round, "err", err)
		return
	}
	d.polkaCerts[setKey{round, id}] = cert
}

// buildRoundCertificateSkipped aggregates every signed vote this validator
// has recorded at round into a RoundCertificate proving the skip-round
// honest-fraction observation that justified moving ahead to it.
func (d *Driver) buildRoundCertificateSkipped(round bftconsensus.Round) {
	votes := d.votes.AllSignedVotes(round)
	d.roundCerts[round] = bftcert.BuildRoundCertificateSkipped(d.height, round, votes)
}

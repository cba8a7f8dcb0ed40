// Package bftengine is the consensus state and effect engine: it wraps a
// bftdriver.Driver with the signer, signature and hash schemes, write-ahead
// log, and host-application collaborators the pure driver never touches
// itself, translating every driver output into the externally observable
// effect a host environment must carry out (sign-and-broadcast, schedule a
// timeout, fetch a value, decide a height), and verifying every inbound
// vote, proposal, and certificate before it ever reaches the driver.
//
// An Engine is not safe for concurrent use; callers serialize every call to
// Process from a single goroutine, same as tmengine's internal state
// machine goroutine serializes access to tmstate.
package bftengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bftengine/core/bftcert"
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftcrypto"
	"github.com/bftengine/core/bftdriver"
	"github.com/bftengine/core/bfthost"
	"github.com/bftengine/core/bftround"
	"github.com/bftengine/core/bftwal"
)

// Engine runs one validator's participation across consecutive heights of
// consensus, translating bftdriver.Driver outputs into Effects.
type Engine struct {
	log *slog.Logger

	self        bftconsensus.Address
	signer      bftcrypto.Signer
	sigScheme   bftconsensus.SignatureScheme
	hashScheme  bftconsensus.HashScheme
	params      bftconsensus.ThresholdParams
	proposerSel bfthost.ProposerSelector
	valueBuilder bfthost.ValueBuilder
	wal         bftwal.WAL
	timeouts    TimeoutConfig
	metrics     *Metrics

	phase Phase
	d     *bftdriver.Driver
}

// New constructs an Engine for the validator at address self. WithSigner,
// WithSignatureScheme, WithHashScheme, WithProposerSelector,
// WithValueBuilder, and WithWAL are required; the rest have usable
// defaults.
func New(log *slog.Logger, self bftconsensus.Address, opts ...Opt) (*Engine, error) {
	e := &Engine{
		log:      log,
		self:     self,
		params:   bftconsensus.DefaultThresholdParams(),
		timeouts: DefaultTimeoutConfig(),
		phase:    Initializing,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.signer == nil {
		return nil, ErrMissingSigner
	}
	if e.sigScheme == nil {
		return nil, ErrMissingSignatureScheme
	}
	if e.hashScheme == nil {
		return nil, ErrMissingHashScheme
	}
	if e.proposerSel == nil {
		return nil, ErrMissingProposerSelector
	}
	if e.valueBuilder == nil {
		return nil, ErrMissingValueBuilder
	}
	if e.wal == nil {
		return nil, ErrMissingWAL
	}

	return e, nil
}

// Phase returns the engine's current startup phase.
func (e *Engine) Phase() Phase { return e.phase }

// Height returns the height currently in progress. It panics if no height
// has been started yet.
func (e *Engine) Height() bftconsensus.Height {
	if e.d == nil {
		panic("bftengine: Height called before any StartHeightInput")
	}
	return e.d.Height()
}

// GetCertificate returns the commit certificate recorded for (round, id)
// at the current height, if any.
func (e *Engine) GetCertificate(round bftconsensus.Round, id bftconsensus.ValueID) (bftcert.CommitCertificate, bool) {
	if e.d == nil {
		return bftcert.CommitCertificate{}, false
	}
	return e.d.GetCertificate(round, id)
}

// Process handles one Input and returns every Effect the caller must carry
// out as a result. Every input but StartHeightInput requires a height
// already be in progress.
func (e *Engine) Process(ctx context.Context, in Input) ([]Effect, error) {
	if in.Kind == StartHeightInput {
		return e.handleStartHeight(ctx, in)
	}
	if e.d == nil {
		return nil, ErrHeightNotStarted
	}

	switch in.Kind {
	case VoteInput:
		return e.handleVote(ctx, in.Vote)
	case ProposalInput:
		return e.handleProposal(ctx, in.Proposal)
	case ProposedValueInput:
		return e.handleProposedValue(ctx, in)
	case CommitCertificateInput:
		return e.handleCertificate(ctx, in.Certificate)
	case TimeoutElapsedInput:
		return e.handleTimeout(ctx, in)
	case VoteSetRequestInput:
		return e.handleVoteSetRequest(in)
	case VoteSetResponseInput:
		return e.handleVoteSetResponse(ctx, in.Votes)
	default:
		return nil, fmt.Errorf("bftengine: unknown input kind %d", in.Kind)
	}
}

func (e *Engine) handleStartHeight(ctx context.Context, in Input) ([]Effect, error) {
	e.phase = Initializing
	e.d = bftdriver.New(e.log, e.self, in.ValidatorSet, e.params, e.proposerSel, e.sigScheme, e.hashScheme, in.Height)

	entries, err := e.wal.StartHeight(ctx, in.Height)
	if err != nil {
		return nil, fmt.Errorf("bftengine: starting WAL for height %d: %w", in.Height, err)
	}

	if len(entries) == 0 {
		e.phase = Live
		outs, err := e.d.Start()
		if err != nil {
			return nil, err
		}
		return e.translate(ctx, outs)
	}

	// A crash-recovering engine replays its own prior actions for this
	// height through the driver, each logged proposal and vote fed in as
	// if received, discarding every output along the way. This rebuilds
	// the proposal and vote records; no value validation is replayed, so
	// the round step and the locked and valid values are not restored.
	e.phase = Recovering
	if _, err := e.d.Start(); err != nil {
		return nil, fmt.Errorf("bftengine: replaying height %d start: %w", in.Height, err)
	}
	for _, entry := range entries {
		if err := e.replayEntry(entry); err != nil {
			return nil, fmt.Errorf("bftengine: replaying height %d: %w", in.Height, err)
		}
	}
	e.phase = Live
	return nil, nil
}

func (e *Engine) replayEntry(entry bftwal.Entry) error {
	switch entry.Kind {
	case bftwal.ProposalEntry:
		_, err := e.d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: entry.Proposal})
		return err
	case bftwal.VoteEntry:
		_, err := e.d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: entry.Vote})
		return err
	default:
		return fmt.Errorf("unknown WAL entry kind %d", entry.Kind)
	}
}

func (e *Engine) handleVote(ctx context.Context, sv bftconsensus.SignedVote) ([]Effect, error) {
	if err := e.verifyVote(sv); err != nil {
		e.log.Warn("dropping vote with invalid signature",
			"voter", sv.Vote.Voter, "round", sv.Vote.Round, "err", err)
		return nil, nil
	}
	outs, err := e.d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: sv})
	if err != nil {
		return nil, err
	}
	return e.translate(ctx, outs)
}

func (e *Engine) handleProposal(ctx context.Context, sp bftconsensus.SignedProposal) ([]Effect, error) {
	if err := e.verifyProposal(sp); err != nil {
		e.log.Warn("dropping proposal with invalid signature",
			"proposer", sp.Proposal.Proposer, "round", sp.Proposal.Round, "err", err)
		return nil, nil
	}
	outs, err := e.d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: sp})
	if err != nil {
		return nil, err
	}
	effs, err := e.translate(ctx, outs)
	if err != nil {
		return effs, err
	}
	more, err := e.validateAndFeed(ctx, sp.Proposal.Round, sp.Proposal.Value)
	return append(effs, more...), err
}

func (e *Engine) handleProposedValue(ctx context.Context, in Input) ([]Effect, error) {
	if in.Origin == OriginSync {
		return e.validateAndFeed(ctx, in.Round, in.Value)
	}
	return e.proposeValue(ctx, in.Round, in.Value)
}

// validateAndFeed asks the host application whether value is acceptable
// and reports the verdict to the driver.
func (e *Engine) validateAndFeed(ctx context.Context, round bftconsensus.Round, value bftconsensus.Value) ([]Effect, error) {
	valid, err := e.valueBuilder.ValidateValue(ctx, e.d.Height(), round, value)
	if err != nil {
		return nil, fmt.Errorf("bftengine: validating value: %w", err)
	}
	outs, err := e.d.Process(bftdriver.Input{
		Kind: bftdriver.ValueValidated, Round: round, Value: value, Valid: valid,
	})
	if err != nil {
		return nil, err
	}
	return e.translate(ctx, outs)
}

func (e *Engine) proposeValue(ctx context.Context, round bftconsensus.Round, value bftconsensus.Value) ([]Effect, error) {
	return e.buildAndPublishProposal(ctx, round, value, bftconsensus.NilRound)
}

func (e *Engine) buildAndPublishProposal(ctx context.Context, round bftconsensus.Round, value bftconsensus.Value, polRound bftconsensus.Round) ([]Effect, error) {
	p := bftconsensus.Proposal{
		Height: e.d.Height(), Round: round, Value: value,
		PolRound: polRound, Proposer: e.self,
	}
	sp, err := e.signProposal(p)
	if err != nil {
		return nil, err
	}

	if err := e.wal.Append(ctx, e.d.Height(), round, bftwal.Entry{Kind: bftwal.ProposalEntry, Proposal: sp}); err != nil {
		return nil, fmt.Errorf("bftengine: appending proposal to WAL: %w", err)
	}
	effs := []Effect{{Kind: PublishProposalEffect, Round: round, Proposal: sp}}
	e.countEffect(PublishProposalEffect)

	outs, err := e.d.Process(bftdriver.Input{Kind: bftdriver.ProposalReceived, Proposal: sp})
	if err != nil {
		return effs, err
	}
	more, err := e.translate(ctx, outs)
	effs = append(effs, more...)
	if err != nil {
		return effs, err
	}

	more2, err := e.validateAndFeed(ctx, round, value)
	return append(effs, more2...), err
}

func (e *Engine) handleCertificate(ctx context.Context, cert bftcert.CommitCertificate) ([]Effect, error) {
	if err := cert.Verify(e.d.ValidatorSet(), e.sigScheme, e.params); err != nil {
		e.log.Warn("dropping commit certificate that fails verification",
			"round", cert.Round, "err", err)
		return nil, nil
	}
	outs, err := e.d.Process(bftdriver.Input{Kind: bftdriver.CommitCertificateReceived, Certificate: cert})
	if err != nil {
		return nil, err
	}
	return e.translate(ctx, outs)
}

func (e *Engine) handleTimeout(ctx context.Context, in Input) ([]Effect, error) {
	var kind bftdriver.InputKind
	switch in.Timeout {
	case bftround.TimeoutPropose:
		kind = bftdriver.TimeoutPropose
	case bftround.TimeoutPrevote:
		kind = bftdriver.TimeoutPrevote
	case bftround.TimeoutPrecommit:
		kind = bftdriver.TimeoutPrecommit
	default:
		return nil, fmt.Errorf("bftengine: unknown timeout kind %d", in.Timeout)
	}
	outs, err := e.d.Process(bftdriver.Input{Kind: kind, Round: in.Round})
	if err != nil {
		return nil, err
	}
	return e.translate(ctx, outs)
}

func (e *Engine) handleVoteSetRequest(in Input) ([]Effect, error) {
	votes := e.d.Votes().AllSignedVotes(in.Round)
	eff := Effect{Kind: GetVoteSetEffect, Round: in.Round, RequestID: in.RequestID, Votes: votes}
	e.countEffect(GetVoteSetEffect)
	return []Effect{eff}, nil
}

func (e *Engine) handleVoteSetResponse(ctx context.Context, votes []bftconsensus.SignedVote) ([]Effect, error) {
	var all []Effect
	for _, sv := range votes {
		effs, err := e.handleVote(ctx, sv)
		all = append(all, effs...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// translate walks the outputs a Driver.Process call produced, signing and
// publishing this validator's own votes and proposals, appending them to
// the WAL first, and reporting every other output as the matching Effect.
func (e *Engine) translate(ctx context.Context, outs []bftdriver.Output) ([]Effect, error) {
	var effs []Effect

	for _, out := range outs {
		switch out.Kind {
		case bftdriver.GetValueOutput:
			effs = append(effs, e.scheduleTimeoutEffect(out.Round, out.Timeout))
			eff := Effect{Kind: GetValueEffect, Round: out.Round}
			effs = append(effs, eff)
			e.countEffect(GetValueEffect)

		case bftdriver.ScheduleTimeoutOutput:
			effs = append(effs, e.scheduleTimeoutEffect(out.Round, out.Timeout))

		case bftdriver.ProposeOutput:
			_, value, ok := e.d.Full().GetFull(out.PolRound, out.ValueID)
			if !ok {
				return effs, fmt.Errorf("bftengine: re-proposing value %x with no recorded full proposal at round %s", out.ValueID, out.PolRound)
			}
			more, err := e.buildAndPublishProposal(ctx, out.Round, value, out.PolRound)
			effs = append(effs, more...)
			if err != nil {
				return effs, err
			}

		case bftdriver.BroadcastVoteOutput:
			sv, err := e.signVote(out.Vote)
			if err != nil {
				return effs, err
			}
			if err := e.wal.Append(ctx, e.d.Height(), out.Round, bftwal.Entry{Kind: bftwal.VoteEntry, Vote: sv}); err != nil {
				return effs, fmt.Errorf("bftengine: appending vote to WAL: %w", err)
			}
			effs = append(effs, Effect{Kind: PublishVoteEffect, Round: out.Round, Vote: sv})
			e.countEffect(PublishVoteEffect)

			more, err := e.d.Process(bftdriver.Input{Kind: bftdriver.VoteReceived, Vote: sv})
			if err != nil {
				return effs, err
			}
			moreEffs, err := e.translate(ctx, more)
			effs = append(effs, moreEffs...)
			if err != nil {
				return effs, err
			}

		case bftdriver.DecisionOutput:
			if err := e.valueBuilder.FinalizeValue(ctx, e.d.Height(), out.Value); err != nil {
				return effs, fmt.Errorf("bftengine: finalizing decided value: %w", err)
			}
			effs = append(effs, Effect{
				Kind: DecideEffect, Round: out.Round, Height: e.d.Height(),
				Value: out.Value, Certificate: out.Certificate,
			})
			e.countEffect(DecideEffect)
		}
	}

	return effs, nil
}

func (e *Engine) scheduleTimeoutEffect(round bftconsensus.Round, kind bftround.TimeoutKind) Effect {
	e.countEffect(ScheduleTimeoutEffect)
	return Effect{
		Kind: ScheduleTimeoutEffect, Round: round, Timeout: kind,
		Duration: e.timeouts.Duration(kind, round),
	}
}

func (e *Engine) countEffect(kind EffectKind) {
	if e.metrics != nil {
		e.metrics.Effects.WithLabelValues(kind.String()).Inc()
	}
}

func (e *Engine) signVote(v bftconsensus.Vote) (bftconsensus.SignedVote, error) {
	start := time.Now()
	msg := e.sigScheme.VoteSigningBytes(e.d.ValidatorSet(), v)
	sig, err := e.signer.Sign(msg)
	if e.metrics != nil {
		e.metrics.SignSeconds.WithLabelValues("vote").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return bftconsensus.SignedVote{}, fmt.Errorf("bftengine: signing vote: %w", err)
	}
	return bftconsensus.SignedVote{Vote: v, Signature: sig}, nil
}

func (e *Engine) signProposal(p bftconsensus.Proposal) (bftconsensus.SignedProposal, error) {
	start := time.Now()
	msg := e.sigScheme.ProposalSigningBytes(e.d.ValidatorSet(), p)
	sig, err := e.signer.Sign(msg)
	if e.metrics != nil {
		e.metrics.SignSeconds.WithLabelValues("proposal").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return bftconsensus.SignedProposal{}, fmt.Errorf("bftengine: signing proposal: %w", err)
	}
	return bftconsensus.SignedProposal{Proposal: p, Signature: sig}, nil
}

func (e *Engine) verifyVote(sv bftconsensus.SignedVote) error {
	vs := e.d.ValidatorSet()
	val, ok := vs.GetByAddress(sv.Vote.Voter)
	if !ok {
		return ErrUnknownVoter
	}

	start := time.Now()
	msg := e.sigScheme.VoteSigningBytes(vs, sv.Vote)
	ok = val.PubKey.Verify(msg, sv.Signature)
	if e.metrics != nil {
		e.metrics.VerifySeconds.WithLabelValues("vote").Observe(time.Since(start).Seconds())
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

func (e *Engine) verifyProposal(sp bftconsensus.SignedProposal) error {
	vs := e.d.ValidatorSet()
	val, ok := vs.GetByAddress(sp.Proposal.Proposer)
	if !ok {
		return ErrUnknownVoter
	}

	start := time.Now()
	msg := e.sigScheme.ProposalSigningBytes(vs, sp.Proposal)
	ok = val.PubKey.Verify(msg, sp.Signature)
	if e.metrics != nil {
		e.metrics.VerifySeconds.WithLabelValues("proposal").Observe(time.Since(start).Seconds())
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

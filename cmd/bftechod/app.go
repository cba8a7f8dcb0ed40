package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftconsensus/bftconsensustest"
	"github.com/bftengine/core/bftengine"
	"github.com/bftengine/core/bfthost"
	"github.com/bftengine/core/bftwal"
)

// echoValueBuilder always proposes a value naming the height and round it
// was built for and accepts every value it is asked to validate: there is
// no real application state to build or check here.
type echoValueBuilder struct{}

func (echoValueBuilder) GetValue(_ context.Context, height bftconsensus.Height, round bftconsensus.Round) (bftconsensus.Value, error) {
	data := fmt.Sprintf("Height: %d; Round: %d", height, round.Num())
	sum := sha256.Sum256([]byte(data))
	return bftconsensus.Value{ID: bftconsensus.ValueID(sum[:]), Data: []byte(data)}, nil
}

func (echoValueBuilder) ValidateValue(context.Context, bftconsensus.Height, bftconsensus.Round, bftconsensus.Value) (bool, error) {
	return true, nil
}

func (echoValueBuilder) FinalizeValue(context.Context, bftconsensus.Height, bftconsensus.Value) error {
	return nil
}

// pendingInput is one Input still waiting to be delivered to a simulated
// validator's engine.
type pendingInput struct {
	validator int
	input     bftengine.Input
}

// runDemo wires numValidators bftengine.Engine instances together over an
// in-process, instantly-delivering "network": every PublishVoteEffect and
// PublishProposalEffect is handed directly to every other validator's
// engine. There is no latency, no partition, and no adversarial behavior
// to simulate, so ScheduleTimeoutEffect and GetVoteSetEffect are ignored,
// never acted on.
func runDemo(ctx context.Context, log *slog.Logger, numValidators, numHeights int) error {
	if numValidators < 1 {
		return fmt.Errorf("bftechod: need at least one validator")
	}

	privVals := bftconsensustest.DeterministicValidatorsEd25519(numValidators)
	vs, err := privVals.ValidatorSet()
	if err != nil {
		return fmt.Errorf("bftechod: building validator set: %w", err)
	}

	sigScheme := bftconsensus.SimpleSignatureScheme{}
	hashScheme := bftconsensus.SimpleHashScheme{}
	sel := bfthost.RoundRobinProposerSelector{}

	engines := make([]*bftengine.Engine, numValidators)
	for i := range engines {
		e, err := bftengine.New(log.With("validator", i), privVals[i].Val.Address,
			bftengine.WithSigner(privVals[i].Signer),
			bftengine.WithSignatureScheme(sigScheme),
			bftengine.WithHashScheme(hashScheme),
			bftengine.WithProposerSelector(sel),
			bftengine.WithValueBuilder(echoValueBuilder{}),
			bftengine.WithWAL(bftwal.NewMemWAL()),
		)
		if err != nil {
			return fmt.Errorf("bftechod: constructing validator %d: %w", i, err)
		}
		engines[i] = e
	}

	for h := bftconsensus.Height(1); h <= bftconsensus.Height(numHeights); h++ {
		if err := decideHeight(ctx, log, engines, vs, h); err != nil {
			return fmt.Errorf("bftechod: deciding height %d: %w", h, err)
		}
	}
	return nil
}

func decideHeight(ctx context.Context, log *slog.Logger, engines []*bftengine.Engine, vs bftconsensus.ValidatorSet, height bftconsensus.Height) error {
	var queue []pendingInput
	for i := range engines {
		queue = append(queue, pendingInput{validator: i, input: bftengine.Input{
			Kind: bftengine.StartHeightInput, Height: height, ValidatorSet: vs,
		}})
	}

	decided := make([]bool, len(engines))
	numDecided := 0

	for len(queue) > 0 && numDecided < len(engines) {
		msg := queue[0]
		queue = queue[1:]

		effs, err := engines[msg.validator].Process(ctx, msg.input)
		if err != nil {
			return fmt.Errorf("validator %d: %w", msg.validator, err)
		}

		for _, eff := range effs {
			switch eff.Kind {
			case bftengine.GetValueEffect:
				val, err := (echoValueBuilder{}).GetValue(ctx, height, eff.Round)
				if err != nil {
					return err
				}
				queue = append(queue, pendingInput{validator: msg.validator, input: bftengine.Input{
					Kind: bftengine.ProposedValueInput, Round: eff.Round, Value: val, Origin: bftengine.OriginConsensus,
				}})

			case bftengine.PublishProposalEffect:
				for j := range engines {
					if j == msg.validator {
						continue
					}
					queue = append(queue, pendingInput{validator: j, input: bftengine.Input{
						Kind: bftengine.ProposalInput, Proposal: eff.Proposal,
					}})
				}

			case bftengine.PublishVoteEffect:
				for j := range engines {
					if j == msg.validator {
						continue
					}
					queue = append(queue, pendingInput{validator: j, input: bftengine.Input{
						Kind: bftengine.VoteInput, Vote: eff.Vote,
					}})
				}

			case bftengine.DecideEffect:
				if !decided[msg.validator] {
					decided[msg.validator] = true
					numDecided++
					log.Info("decided height",
						"height", height, "round", eff.Round,
						"validator", msg.validator, "value", string(eff.Value.Data))
				}

			case bftengine.ScheduleTimeoutEffect, bftengine.CancelTimeoutsEffect, bftengine.GetVoteSetEffect, bftengine.GetValidatorSetEffect:
				// Nothing to simulate: the demo network never drops or
				// delays a message, so timeouts never fire and sync is
				// never needed.
			}
		}
	}

	if numDecided < len(engines) {
		return fmt.Errorf("only %d of %d validators decided", numDecided, len(engines))
	}
	return nil
}

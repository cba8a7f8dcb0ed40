package bftengine

import (
	"time"

	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftround"
)

// TimeoutConfig holds the base duration and per-round growth for each of
// the three round-step timeouts, the way tendermint-style implementations
// grow a stalled round's patience linearly rather than retrying at a fixed
// interval forever.
type TimeoutConfig struct {
	Propose      time.Duration
	ProposeDelta time.Duration

	Prevote      time.Duration
	PrevoteDelta time.Duration

	Precommit      time.Duration
	PrecommitDelta time.Duration
}

// DefaultTimeoutConfig returns conservative timeouts suitable for a local
// demo or a test network, not tuned for any particular production
// deployment's latency profile.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Propose: 3 * time.Second, ProposeDelta: 500 * time.Millisecond,
		Prevote: 1 * time.Second, PrevoteDelta: 500 * time.Millisecond,
		Precommit: 1 * time.Second, PrecommitDelta: 500 * time.Millisecond,
	}
}

// Duration returns how long to wait for round's kind-of timeout.
func (c TimeoutConfig) Duration(kind bftround.TimeoutKind, round bftconsensus.Round) time.Duration {
	var n time.Duration
	if !round.IsNil() {
		n = time.Duration(round.Num())
	}

	switch kind {
	case bftround.TimeoutPropose:
		return c.Propose + n*c.ProposeDelta
	case bftround.TimeoutPrevote:
		return c.Prevote + n*c.PrevoteDelta
	case bftround.TimeoutPrecommit:
		return c.Precommit + n*c.PrecommitDelta
	default:
		return c.Propose
	}
}

package bftengine

import (
	"github.com/bftengine/core/bftconsensus"
	"github.com/bftengine/core/bftcrypto"
	"github.com/bftengine/core/bfthost"
	"github.com/bftengine/core/bftwal"
)

// Opt is an option for New.
// The underlying function signature for Opt is subject to change at any
// time. Only Opt values returned by With* functions may be considered
// stable values.
type Opt func(*Engine) error

// WithSigner sets the signer the engine uses to sign its own votes and
// proposals. This option is required.
func WithSigner(signer bftcrypto.Signer) Opt {
	return func(e *Engine) error {
		e.signer = signer
		return nil
	}
}

// WithSignatureScheme sets the scheme used to compute canonical sign
// bytes for votes and proposals. This option is required.
func WithSignatureScheme(s bftconsensus.SignatureScheme) Opt {
	return func(e *Engine) error {
		e.sigScheme = s
		return nil
	}
}

// WithHashScheme sets the scheme used to compute validator-set hashes for
// aggregate signature proofs. This option is required.
func WithHashScheme(h bftconsensus.HashScheme) Opt {
	return func(e *Engine) error {
		e.hashScheme = h
		return nil
	}
}

// WithThresholdParams overrides the default 2/3 quorum, 1/3 honest
// fraction thresholds.
func WithThresholdParams(p bftconsensus.ThresholdParams) Opt {
	return func(e *Engine) error {
		e.params = p
		return nil
	}
}

// WithProposerSelector sets the per-round proposer selection policy.
// This option is required.
func WithProposerSelector(sel bfthost.ProposerSelector) Opt {
	return func(e *Engine) error {
		e.proposerSel = sel
		return nil
	}
}

// WithValueBuilder sets the host application's value builder. This option
// is required.
func WithValueBuilder(vb bfthost.ValueBuilder) Opt {
	return func(e *Engine) error {
		e.valueBuilder = vb
		return nil
	}
}

// WithWAL sets the write-ahead log the engine appends its own signed
// actions to before publishing them. This option is required.
func WithWAL(w bftwal.WAL) Opt {
	return func(e *Engine) error {
		e.wal = w
		return nil
	}
}

// WithTimeoutConfig overrides the default round-step timeout schedule.
func WithTimeoutConfig(c TimeoutConfig) Opt {
	return func(e *Engine) error {
		e.timeouts = c
		return nil
	}
}

// WithMetrics registers prometheus collectors the engine reports sign,
// verify, and effect-emission activity to. If omitted, the engine runs
// without metrics.
func WithMetrics(m *Metrics) Opt {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

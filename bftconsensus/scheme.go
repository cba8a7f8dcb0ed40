package bftconsensus

// SignatureScheme produces the canonical, signable byte representations of
// votes and proposals. Separating this from the signer lets the core stay
// agnostic of the signature algorithm while still controlling exactly what
// bytes get signed.
type SignatureScheme interface {
	// VoteSigningBytes returns the canonical bytes to sign or verify for a
	// vote, for the given ValidatorSet (the candidate key set and power
	// distribution are part of the signing context in some schemes, but
	// the default scheme ignores them).
	VoteSigningBytes(vs ValidatorSet, v Vote) []byte

	// ProposalSigningBytes returns the canonical bytes to sign or verify
	// for a proposal.
	ProposalSigningBytes(vs ValidatorSet, p Proposal) []byte
}

// HashScheme computes the deterministic hashes the core and its test
// fixtures rely on: over a validator set's public keys (to produce a
// PubKeyHash for signature proofs) and over a validator set's voting
// powers (to detect two validator sets with the same members but
// different power distributions).
type HashScheme interface {
	PubKeys(pubKeyBytes [][]byte) []byte
	VotePowers(powers []uint64) []byte
}

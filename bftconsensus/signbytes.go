package bftconsensus

import (
	"encoding/binary"
)

// SimpleSignatureScheme is the default SignatureScheme: a flat,
// length-prefixed concatenation of the signed fields (see VoteSignBytes
// and ProposalSignBytes), with no dependency on the validator set. It is deterministic and sufficient for any host whose
// value IDs and addresses are themselves collision resistant.
type SimpleSignatureScheme struct{}

func (SimpleSignatureScheme) VoteSigningBytes(_ ValidatorSet, v Vote) []byte {
	return VoteSignBytes(v)
}

func (SimpleSignatureScheme) ProposalSigningBytes(_ ValidatorSet, p Proposal) []byte {
	return ProposalSignBytes(p)
}

// VoteSignBytes returns the canonical bytes signed for a vote. When the
// vote carries a non-nil Extension, the extension is appended after the
// vote's own fields, so Extension is always signed together with the vote
// rather than under an independent signature.
//
// The Voter is not part of the signed bytes: every validator voting for
// the same (type, height, round, value) signs the same message, which is
// what lets a certificate check all of its signatures against one common
// message. The signer is identified by the public key that verifies it.
func VoteSignBytes(v Vote) []byte {
	buf := make([]byte, 0, 32+len(v.Value.id)+len(v.Extension))

	buf = append(buf, byte(v.Type))
	buf = binary.BigEndian.AppendUint64(buf, uint64(v.Height))
	buf = appendRound(buf, v.Round)
	buf = appendNilOrVal(buf, v.Value)
	buf = appendLenPrefixed(buf, v.Extension)

	return buf
}

// ProposalSignBytes returns the canonical bytes signed for a proposal.
func ProposalSignBytes(p Proposal) []byte {
	buf := make([]byte, 0, 48+len(p.Value.ID)+len(p.Proposer))

	buf = binary.BigEndian.AppendUint64(buf, uint64(p.Height))
	buf = appendRound(buf, p.Round)
	buf = appendLenPrefixed(buf, []byte(p.Value.ID))
	buf = appendLenPrefixed(buf, p.Value.Data)
	buf = appendRound(buf, p.PolRound)
	buf = appendLenPrefixed(buf, []byte(p.Proposer))

	return buf
}

func appendRound(buf []byte, r Round) []byte {
	if r.IsNil() {
		return binary.BigEndian.AppendUint32(buf, 0)
	}
	return binary.BigEndian.AppendUint32(buf, r.Num()+1)
}

func appendNilOrVal(buf []byte, v NilOrVal) []byte {
	if v.IsNil() {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendLenPrefixed(buf, []byte(v.id))
}

func appendLenPrefixed(buf, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

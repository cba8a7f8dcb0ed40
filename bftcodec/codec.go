// Package bftcodec implements a canonical, deterministic binary encoding
// for the wire/storage-facing types votes, proposals, and certificates
// are built from. It is deliberately distinct from bftconsensus's
// sign-bytes functions: sign bytes are a one-way digest input, while
// these encodings round-trip, as the WAL and any transport need.
package bftcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/bftengine/core/bftconsensus"
)

// EncodeVote writes a deterministic encoding of v to a new byte slice.
func EncodeVote(v bftconsensus.Vote) []byte {
	var buf []byte
	buf = append(buf, byte(v.Type))
	buf = appendUint64(buf, uint64(v.Height))
	buf = appendRound(buf, v.Round)
	buf = appendNilOrVal(buf, v.Value)
	buf = appendLenPrefixed(buf, []byte(v.Voter))
	buf = appendLenPrefixed(buf, v.Extension)
	return buf
}

// DecodeVote parses a Vote from b, returning the number of bytes
// consumed.
func DecodeVote(b []byte) (bftconsensus.Vote, int, error) {
	var v bftconsensus.Vote
	if len(b) < 1 {
		return v, 0, fmt.Errorf("%w: empty vote encoding", ErrShortBuffer)
	}
	v.Type = bftconsensus.VoteType(b[0])
	off := 1

	h, n, err := readUint64(b[off:])
	if err != nil {
		return v, 0, err
	}
	v.Height = bftconsensus.Height(h)
	off += n

	r, n, err := readRound(b[off:])
	if err != nil {
		return v, 0, err
	}
	v.Round = r
	off += n

	nv, n, err := readNilOrVal(b[off:])
	if err != nil {
		return v, 0, err
	}
	v.Value = nv
	off += n

	voter, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return v, 0, err
	}
	v.Voter = bftconsensus.Address(voter)
	off += n

	ext, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return v, 0, err
	}
	v.Extension = ext
	off += n

	return v, off, nil
}

// EncodeProposal writes a deterministic encoding of p to a new byte
// slice.
func EncodeProposal(p bftconsensus.Proposal) []byte {
	var buf []byte
	buf = appendUint64(buf, uint64(p.Height))
	buf = appendRound(buf, p.Round)
	buf = appendLenPrefixed(buf, []byte(p.Value.ID))
	buf = appendLenPrefixed(buf, p.Value.Data)
	buf = appendRound(buf, p.PolRound)
	buf = appendLenPrefixed(buf, []byte(p.Proposer))
	return buf
}

// DecodeProposal parses a Proposal from b, returning the number of bytes
// consumed.
func DecodeProposal(b []byte) (bftconsensus.Proposal, int, error) {
	var p bftconsensus.Proposal
	off := 0

	h, n, err := readUint64(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.Height = bftconsensus.Height(h)
	off += n

	r, n, err := readRound(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.Round = r
	off += n

	id, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return p, 0, err
	}
	off += n

	data, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return p, 0, err
	}
	off += n
	p.Value = bftconsensus.Value{ID: bftconsensus.ValueID(id), Data: data}

	polRound, n, err := readRound(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.PolRound = polRound
	off += n

	proposer, n, err := readLenPrefixed(b[off:])
	if err != nil {
		return p, 0, err
	}
	p.Proposer = bftconsensus.Address(proposer)
	off += n

	return p, off, nil
}

// EncodeSignedVote writes a deterministic encoding of sv.
func EncodeSignedVote(sv bftconsensus.SignedVote) []byte {
	buf := EncodeVote(sv.Vote)
	return appendLenPrefixed(buf, sv.Signature)
}

// DecodeSignedVote parses a SignedVote from b.
func DecodeSignedVote(b []byte) (bftconsensus.SignedVote, int, error) {
	v, n, err := DecodeVote(b)
	if err != nil {
		return bftconsensus.SignedVote{}, 0, err
	}
	sig, n2, err := readLenPrefixed(b[n:])
	if err != nil {
		return bftconsensus.SignedVote{}, 0, err
	}
	return bftconsensus.SignedVote{Vote: v, Signature: sig}, n + n2, nil
}

// EncodeSignedProposal writes a deterministic encoding of sp.
func EncodeSignedProposal(sp bftconsensus.SignedProposal) []byte {
	buf := EncodeProposal(sp.Proposal)
	return appendLenPrefixed(buf, sp.Signature)
}

// DecodeSignedProposal parses a SignedProposal from b.
func DecodeSignedProposal(b []byte) (bftconsensus.SignedProposal, int, error) {
	p, n, err := DecodeProposal(b)
	if err != nil {
		return bftconsensus.SignedProposal{}, 0, err
	}
	sig, n2, err := readLenPrefixed(b[n:])
	if err != nil {
		return bftconsensus.SignedProposal{}, 0, err
	}
	return bftconsensus.SignedProposal{Proposal: p, Signature: sig}, n + n2, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendRound(buf []byte, r bftconsensus.Round) []byte {
	if r.IsNil() {
		return appendUint64(buf, 0)
	}
	return appendUint64(buf, uint64(r.Num())+1)
}

func appendNilOrVal(buf []byte, v bftconsensus.NilOrVal) []byte {
	if v.IsNil() {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return appendLenPrefixed(buf, []byte(v.ID()))
}

func appendLenPrefixed(buf, data []byte) []byte {
	buf = appendUint64(buf, uint64(len(data)))
	return append(buf, data...)
}

func readUint64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, fmt.Errorf("%w: want 8 bytes, have %d", ErrShortBuffer, len(b))
	}
	return binary.BigEndian.Uint64(b[:8]), 8, nil
}

func readRound(b []byte) (bftconsensus.Round, int, error) {
	n, off, err := readUint64(b)
	if err != nil {
		return bftconsensus.Round{}, 0, err
	}
	if n == 0 {
		return bftconsensus.NilRound, off, nil
	}
	return bftconsensus.NewRound(uint32(n - 1)), off, nil
}

func readNilOrVal(b []byte) (bftconsensus.NilOrVal, int, error) {
	if len(b) < 1 {
		return bftconsensus.NilOrVal{}, 0, fmt.Errorf("%w: empty NilOrVal tag", ErrShortBuffer)
	}
	if b[0] == 0 {
		return bftconsensus.NilVote(), 1, nil
	}
	id, n, err := readLenPrefixed(b[1:])
	if err != nil {
		return bftconsensus.NilOrVal{}, 0, err
	}
	return bftconsensus.ValVote(bftconsensus.ValueID(id)), 1 + n, nil
}

func readLenPrefixed(b []byte) ([]byte, int, error) {
	n, off, err := readUint64(b)
	if err != nil {
		return nil, 0, err
	}
	if uint64(len(b[off:])) < n {
		return nil, 0, fmt.Errorf("%w: want %d bytes, have %d", ErrShortBuffer, n, len(b[off:]))
	}
	if n == 0 {
		return nil, off, nil
	}
	data := make([]byte, n)
	copy(data, b[off:off+int(n)])
	return data, off + int(n), nil
}

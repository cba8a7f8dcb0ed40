package bftconsensus

// ThresholdParams configures the fractional thresholds used throughout the
// core: the quorum fraction (usually 2/3) needed for a polka or a commit,
// and the honest fraction (usually 1/3) needed to trust that at least one
// honest validator has moved to a future round.
type ThresholdParams struct {
	QuorumNum, QuorumDenom uint64
	HonestNum, HonestDenom uint64
}

// DefaultThresholdParams returns the standard BFT thresholds: a 2/3 quorum
// and a 1/3 honest fraction.
func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{
		QuorumNum: 2, QuorumDenom: 3,
		HonestNum: 1, HonestDenom: 3,
	}
}

// HasQuorum reports whether signed out of total voting power meets the
// quorum fraction, computed with integer arithmetic to avoid rounding
// error: signed*QuorumDenom > QuorumNum*total.
func (tp ThresholdParams) HasQuorum(signed, total uint64) bool {
	if total == 0 {
		return false
	}
	return signed*tp.QuorumDenom > tp.QuorumNum*total
}

// HasHonest reports whether signed out of total voting power meets the
// honest fraction: at least one honest validator must be among the
// signers. Computed the same way as HasQuorum.
func (tp ThresholdParams) HasHonest(signed, total uint64) bool {
	if total == 0 {
		return false
	}
	return signed*tp.HonestDenom > tp.HonestNum*total
}

package bftcodec

import "errors"

// ErrShortBuffer is returned when a Decode* function runs out of input
// before finishing a value.
var ErrShortBuffer = errors.New("bftcodec: buffer too short")

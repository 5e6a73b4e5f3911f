// Package bitfield decodes SSZ aggregation bitlists as they arrive over the
// beacon REST API: hex-encoded, little-endian within each byte, delimited by
// a single sentinel bit after the last real data bit.
//
// This is hand-rolled rather than delegated to a bitfield library: decoding
// these bitfields correctly — including the byte-endianness flip needed to
// line bits up with committee member order — is the one piece of this
// service that earns its keep.
package bitfield

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedBitfield is returned by StripSentinel when the input contains
// no set bit at all, so no sentinel can be found.
var ErrMalformedBitfield = errors.New("bitfield: no sentinel bit found")

// ErrLengthMismatch is returned by OrFold and ApplyMask when their inputs
// don't share a common length.
var ErrLengthMismatch = errors.New("bitfield: length mismatch")

// DecodeAggregationBits parses a 0x-prefixed hex string into a slice of
// booleans, one per bit, MSB-to-LSB within each byte.
//
// The wire format packs bits little-endian within a byte (bit 0 is the LSB
// of byte 0), but committee member order is big-endian within a byte. Each
// source byte is expanded least-significant-bit-first and then reversed, so
// the output aligns directly with committee member position.
func DecodeAggregationBits(hexStr string) ([]bool, error) {
	trimmed := strings.TrimPrefix(hexStr, "0x")
	if len(trimmed)%2 != 0 {
		trimmed = "0" + trimmed
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("bitfield: decode hex %q: %w", hexStr, err)
	}

	bits := make([]bool, 0, len(raw)*8)
	for _, b := range raw {
		chunk := make([]bool, 8)
		for i := 0; i < 8; i++ {
			chunk[i] = (b>>uint(i))&1 == 1
		}
		// Reverse the little-endian chunk so bit 7 comes first.
		for i, j := 0, len(chunk)-1; i < j; i, j = i+1, j-1 {
			chunk[i], chunk[j] = chunk[j], chunk[i]
		}
		bits = append(bits, chunk...)
	}
	return bits, nil
}

// StripSentinel finds the last true bit in bits (the SSZ bitlist length
// delimiter) and returns everything before it. It fails if bits contains no
// true value at all — a well-formed bitlist always carries the sentinel,
// even an empty one.
func StripSentinel(bits []bool) ([]bool, error) {
	for i := len(bits) - 1; i >= 0; i-- {
		if bits[i] {
			return bits[:i], nil
		}
	}
	return nil, ErrMalformedBitfield
}

// OrFold computes the pointwise OR across a set of equal-length boolean
// sequences. An empty input returns an empty, not nil, sequence.
func OrFold(sequences [][]bool) ([]bool, error) {
	if len(sequences) == 0 {
		return []bool{}, nil
	}
	n := len(sequences[0])
	for _, seq := range sequences[1:] {
		if len(seq) != n {
			return nil, ErrLengthMismatch
		}
	}
	result := make([]bool, n)
	for _, seq := range sequences {
		for i, bit := range seq {
			if bit {
				result[i] = true
			}
		}
	}
	return result, nil
}

// ApplyMask selects the elements of xs for which the corresponding element
// of mask is true. xs and mask must share the same length.
func ApplyMask[T any](xs []T, mask []bool) ([]T, error) {
	if len(xs) != len(mask) {
		return nil, ErrLengthMismatch
	}
	out := make([]T, 0, len(xs))
	for i, keep := range mask {
		if keep {
			out = append(out, xs[i])
		}
	}
	return out, nil
}

// Package broadword provides word-level bit search primitives.
package broadword

import "math/bits"

const (
	onesStep8 = 0x0101010101010101
	msbsStep8 = 0x8080808080808080
)

// Select64 returns the position of the k-th (0-indexed) set bit in x.
// It locates the covering byte with branch-free prefix sums, then finishes
// inside the byte by clearing low set bits.
//
// The caller must guarantee k < bits.OnesCount64(x); the result is
// meaningless (>= 64) otherwise.
func Select64(x uint64, k int) int {
	// Byte-wise popcounts, then inclusive prefix sums in each byte.
	s := x - ((x >> 1) & 0x5555555555555555)
	s = (s & 0x3333333333333333) + ((s >> 2) & 0x3333333333333333)
	s = (s + (s >> 4)) & 0x0f0f0f0f0f0f0f0f
	prefix := s * onesStep8

	// Count bytes whose inclusive prefix sum is <= k. Both operands are
	// at most 64, so the per-byte comparison never borrows across bytes.
	leq := ((uint64(k)*onesStep8 | msbsStep8) - prefix) & msbsStep8
	byteIdx := int(((leq >> 7) * onesStep8) >> 56)

	onesBefore := int((prefix << 8) >> (uint(byteIdx) * 8) & 0xff)
	b := uint8(x >> (uint(byteIdx) * 8))
	for r := k - onesBefore; r > 0; r-- {
		b &= b - 1
	}
	return byteIdx*8 + bits.TrailingZeros8(b)
}

// SelectZero64 returns the position of the k-th (0-indexed) zero bit in x.
// The caller must guarantee k < 64-bits.OnesCount64(x).
func SelectZero64(x uint64, k int) int {
	return Select64(^x, k)
}

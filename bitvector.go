package succinct

import (
	"math/bits"

	serrors "github.com/tamirms/succinct/errors"
)

// BitVector is a fixed-width-word-backed bit container. Bit i lives in word
// i/64 at in-word offset i%64. Bits beyond the logical length in the last
// word are always zero; every mutator preserves that invariant.
//
// A BitVector is mutable while a structure is under construction and must be
// treated as immutable once it is shared. Read methods never mutate state and
// are safe for concurrent use on an immutable vector.
type BitVector struct {
	words []uint64
	nbits uint64
}

// wordsFor returns the number of 64-bit words needed to hold nbits bits.
func wordsFor(nbits uint64) uint64 {
	return (nbits + 63) >> 6
}

// NewBitVector returns a zeroed bit vector of the given length in bits.
func NewBitVector(nbits uint64) *BitVector {
	return &BitVector{
		words: make([]uint64, wordsFor(nbits)),
		nbits: nbits,
	}
}

// BitVectorFromWords wraps an existing word slice without copying. The slice
// must hold exactly wordsFor(nbits) words and the bits beyond nbits in the
// last word must be zero; otherwise ErrCorruptedFormat is returned.
//
// The caller must not modify words while the vector is in use. This is the
// entry point for vectors backed by memory-mapped regions.
func BitVectorFromWords(words []uint64, nbits uint64) (*BitVector, error) {
	if uint64(len(words)) != wordsFor(nbits) {
		return nil, serrors.ErrCorruptedFormat
	}
	if tail := nbits & 63; tail != 0 {
		if words[len(words)-1]>>tail != 0 {
			return nil, serrors.ErrCorruptedFormat
		}
	}
	return &BitVector{words: words, nbits: nbits}, nil
}

// Len returns the length of the vector in bits.
func (bv *BitVector) Len() uint64 {
	return bv.nbits
}

// Words exposes the backing word slice. The slice must not be modified;
// it is shared with rank/select structures built over the vector.
func (bv *BitVector) Words() []uint64 {
	return bv.words
}

// Bit reports whether the bit at pos is set.
// Returns ErrIndexOutOfBounds if pos >= Len().
func (bv *BitVector) Bit(pos uint64) (bool, error) {
	if pos >= bv.nbits {
		return false, serrors.ErrIndexOutOfBounds
	}
	return bv.bit(pos), nil
}

func (bv *BitVector) bit(pos uint64) bool {
	return bv.words[pos>>6]>>(pos&63)&1 != 0
}

// Set sets the bit at pos to one.
// Returns ErrIndexOutOfBounds if pos >= Len().
func (bv *BitVector) Set(pos uint64) error {
	if pos >= bv.nbits {
		return serrors.ErrIndexOutOfBounds
	}
	bv.set(pos)
	return nil
}

func (bv *BitVector) set(pos uint64) {
	bv.words[pos>>6] |= 1 << (pos & 63)
}

// Unset clears the bit at pos.
// Returns ErrIndexOutOfBounds if pos >= Len().
func (bv *BitVector) Unset(pos uint64) error {
	if pos >= bv.nbits {
		return serrors.ErrIndexOutOfBounds
	}
	bv.words[pos>>6] &^= 1 << (pos & 63)
	return nil
}

// Flip inverts the bit at pos.
// Returns ErrIndexOutOfBounds if pos >= Len().
func (bv *BitVector) Flip(pos uint64) error {
	if pos >= bv.nbits {
		return serrors.ErrIndexOutOfBounds
	}
	bv.words[pos>>6] ^= 1 << (pos & 63)
	return nil
}

// PushBit appends a bit, growing the vector by one. Growth is amortized:
// the backing slice doubles as needed.
func (bv *BitVector) PushBit(bit bool) {
	if bv.nbits&63 == 0 {
		bv.words = append(bv.words, 0)
	}
	if bit {
		bv.words[bv.nbits>>6] |= 1 << (bv.nbits & 63)
	}
	bv.nbits++
}

// CountOnes returns the total number of set bits.
func (bv *BitVector) CountOnes() uint64 {
	var total uint64
	for _, w := range bv.words {
		total += uint64(bits.OnesCount64(w))
	}
	return total
}

// orBits ORs nbits bits from src into dst starting at bit offset dstOff.
// src bits are read from offset zero. Used to concatenate independently
// built bit segments; overlapping destination bits must be zero for the
// result to be a plain copy.
func orBits(dst []uint64, dstOff uint64, src []uint64, nbits uint64) {
	if nbits == 0 {
		return
	}
	w := dstOff >> 6
	shift := dstOff & 63
	srcWords := wordsFor(nbits)
	for i := uint64(0); i < srcWords; i++ {
		v := src[i]
		// Mask the final partial source word so stray bits never leak.
		if i == srcWords-1 {
			if tail := nbits & 63; tail != 0 {
				v &= 1<<tail - 1
			}
		}
		dst[w+i] |= v << shift
		if shift != 0 && v>>(64-shift) != 0 {
			dst[w+i+1] |= v >> (64 - shift)
		}
	}
}

package succinct

import (
	"math"
	"math/bits"

	serrors "github.com/tamirms/succinct/errors"
)

// CompactVector packs n entries of a fixed bit width into contiguous words
// with no inter-entry padding. An entry may straddle a word boundary, in
// which case reads and writes splice the two covering words.
//
// The width is fixed for the vector's lifetime. Set is only meant for the
// construction phase; afterwards the vector must be treated as immutable and
// reads are safe for concurrent use. Writes to disjoint entries touch only
// the covering words, so parallel writers may fill disjoint word-aligned
// ranges during construction.
type CompactVector struct {
	words []uint64
	n     uint64
	width int
	mask  uint64
}

// MinBitWidth returns the smallest bit width able to store maxValue.
func MinBitWidth(maxValue uint64) int {
	return bits.Len64(maxValue)
}

func widthMask(width int) uint64 {
	if width == 0 {
		return 0
	}
	return math.MaxUint64 >> (64 - width)
}

// NewCompactVector returns a zeroed vector of n entries of the given width.
// Width zero is valid: the vector stores nothing and every entry reads as
// zero. Returns ErrInvalidBitWidth if width is negative or exceeds 64.
func NewCompactVector(n uint64, width int) (*CompactVector, error) {
	if width < 0 || width > 64 {
		return nil, serrors.ErrInvalidBitWidth
	}
	if width > 0 && n > math.MaxUint64/uint64(width) {
		return nil, serrors.ErrInvalidGeometry
	}
	return &CompactVector{
		words: make([]uint64, wordsFor(n*uint64(width))),
		n:     n,
		width: width,
		mask:  widthMask(width),
	}, nil
}

// CompactVectorFromWords wraps an existing word slice without copying.
// The slice must hold exactly wordsFor(n*width) words with zeroed bits
// beyond n*width in the last word. The caller must not modify words while
// the vector is in use.
func CompactVectorFromWords(words []uint64, n uint64, width int) (*CompactVector, error) {
	if width < 0 || width > 64 {
		return nil, serrors.ErrInvalidBitWidth
	}
	if width > 0 && n > math.MaxUint64/uint64(width) {
		return nil, serrors.ErrInvalidGeometry
	}
	nbits := n * uint64(width)
	if uint64(len(words)) != wordsFor(nbits) {
		return nil, serrors.ErrCorruptedFormat
	}
	if tail := nbits & 63; tail != 0 {
		if words[len(words)-1]>>tail != 0 {
			return nil, serrors.ErrCorruptedFormat
		}
	}
	return &CompactVector{words: words, n: n, width: width, mask: widthMask(width)}, nil
}

// Len returns the number of entries.
func (cv *CompactVector) Len() uint64 {
	return cv.n
}

// BitWidth returns the fixed per-entry width in bits.
func (cv *CompactVector) BitWidth() int {
	return cv.width
}

// Words exposes the backing word slice. The slice must not be modified.
func (cv *CompactVector) Words() []uint64 {
	return cv.words
}

// Get returns the entry at index i.
// Returns ErrIndexOutOfBounds if i >= Len().
func (cv *CompactVector) Get(i uint64) (uint64, error) {
	if i >= cv.n {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return cv.get(i), nil
}

func (cv *CompactVector) get(i uint64) uint64 {
	if cv.width == 0 {
		return 0
	}
	pos := i * uint64(cv.width)
	w := pos >> 6
	o := pos & 63
	if o+uint64(cv.width) <= 64 {
		return cv.words[w] >> o & cv.mask
	}
	return (cv.words[w]>>o | cv.words[w+1]<<(64-o)) & cv.mask
}

// Set stores v at index i. Returns ErrIndexOutOfBounds if i >= Len() and
// ErrValueTooWide if v does not fit in the entry width.
func (cv *CompactVector) Set(i uint64, v uint64) error {
	if i >= cv.n {
		return serrors.ErrIndexOutOfBounds
	}
	if v&^cv.mask != 0 {
		return serrors.ErrValueTooWide
	}
	cv.set(i, v)
	return nil
}

// set stores v at index i. v must already fit in the entry width.
func (cv *CompactVector) set(i uint64, v uint64) {
	if cv.width == 0 {
		return
	}
	pos := i * uint64(cv.width)
	w := pos >> 6
	o := pos & 63
	if o+uint64(cv.width) <= 64 {
		cv.words[w] = cv.words[w]&^(cv.mask<<o) | v<<o
		return
	}
	cv.words[w] = cv.words[w]&(1<<o-1) | v<<o
	cv.words[w+1] = cv.words[w+1]&^(cv.mask>>(64-o)) | v>>(64-o)
}

// Iterator returns a sequential iterator positioned at entry from.
// The iterator keeps a word cursor so sequential decoding avoids the
// per-entry offset arithmetic of Get.
func (cv *CompactVector) Iterator(from uint64) *CompactVectorIterator {
	pos := from * uint64(cv.width)
	return &CompactVectorIterator{cv: cv, i: from, w: pos >> 6, o: pos & 63}
}

// CompactVectorIterator yields entries in index order.
// It must not be used concurrently and must not outlive its vector.
type CompactVectorIterator struct {
	cv *CompactVector
	i  uint64
	w  uint64
	o  uint64
}

// Next returns the next entry, or false when the vector is exhausted.
func (it *CompactVectorIterator) Next() (uint64, bool) {
	cv := it.cv
	if it.i >= cv.n {
		return 0, false
	}
	it.i++
	if cv.width == 0 {
		return 0, true
	}
	v := cv.words[it.w] >> it.o
	if it.o+uint64(cv.width) > 64 {
		v |= cv.words[it.w+1] << (64 - it.o)
	}
	it.o += uint64(cv.width)
	if it.o >= 64 {
		it.w++
		it.o -= 64
	}
	return v & cv.mask, true
}

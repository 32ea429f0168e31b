package succinct

import (
	"math/bits"

	serrors "github.com/tamirms/succinct/errors"
)

// EliasFano is a monotone sequence of n values below a universe bound u,
// stored in close to the information-theoretic minimum. Each value is split
// at a width l chosen from n and u: the low l bits of all values are packed
// in a CompactVector, and the high parts are unary-coded into a bit vector
// of n set bits and u>>l+1 unset bits. Rank and select indexes over the
// high bits give constant-time access and near-constant-time search.
//
// The sequence is immutable once built and safe for concurrent readers.
// Build one with a Builder, the package-level Build function, or load one
// from serialized form with Open or Load.
type EliasFano struct {
	low  *CompactVector
	high *BitVector
	rk   *RankIndex
	sel  *SelectIndex

	n uint64
	u uint64
	l int
}

// lowBitWidth returns the split width floor(log2(u/n)), clamped to zero
// for degenerate shapes. Values at or above the bound keep no low bits.
func lowBitWidth(n, u uint64) int {
	if n == 0 || u <= n {
		return 0
	}
	return bits.Len64(u/n) - 1
}

// highLen returns the bit length of the upper-part vector: one set bit per
// value plus one separator per distinct high value.
func highLen(n, u uint64, l int) uint64 {
	if n == 0 {
		return 0
	}
	return n + u>>l + 1
}

// highLenOverflows reports whether n + u>>l + 1 wraps a uint64. Such shapes
// are far beyond any allocatable size but must not wrap into a small vector.
func highLenOverflows(n, u uint64, l int) bool {
	return n > 0 && u>>l >= ^uint64(0)-n
}

// assembleEliasFano wires pre-built components into a queryable sequence.
func assembleEliasFano(low *CompactVector, high *BitVector, rk *RankIndex, sel *SelectIndex, n, u uint64, l int) *EliasFano {
	return &EliasFano{low: low, high: high, rk: rk, sel: sel, n: n, u: u, l: l}
}

// Len returns the number of values in the sequence.
func (ef *EliasFano) Len() uint64 {
	return ef.n
}

// Universe returns the exclusive upper bound the sequence was built with.
func (ef *EliasFano) Universe() uint64 {
	return ef.u
}

// BitWidth returns the low-bit split width l.
func (ef *EliasFano) BitWidth() int {
	return ef.l
}

// Get returns the value at index i.
// Returns ErrIndexOutOfBounds if i >= Len().
func (ef *EliasFano) Get(i uint64) (uint64, error) {
	if i >= ef.n {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return ef.get(i), nil
}

func (ef *EliasFano) get(i uint64) uint64 {
	return (ef.sel.position(i)-i)<<ef.l | ef.low.get(i)
}

// Min returns the smallest value.
// Returns ErrIndexOutOfBounds if the sequence is empty.
func (ef *EliasFano) Min() (uint64, error) {
	return ef.Get(0)
}

// Max returns the largest value.
// Returns ErrIndexOutOfBounds if the sequence is empty.
func (ef *EliasFano) Max() (uint64, error) {
	if ef.n == 0 {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return ef.get(ef.n - 1), nil
}

// Rank returns the number of values strictly below x. It is defined for
// every x: arguments at or above the universe bound count the whole
// sequence.
//
// The high part of x selects a bucket of values through two SelectZero
// probes; a binary search over that bucket's low bits finishes the query.
func (ef *EliasFano) Rank(x uint64) uint64 {
	if ef.n == 0 {
		return 0
	}
	if x >= ef.u {
		return ef.n
	}
	h := x >> ef.l
	var a uint64
	if h > 0 {
		a = ef.sel.positionZero(h-1) - (h - 1)
	}
	b := ef.sel.positionZero(h) - h
	// Probes over corrupt counters can step past n or cross; keep the
	// search window inside the low bits.
	if b > ef.n {
		b = ef.n
	}
	if a > b {
		a = b
	}

	xl := x & ef.low.mask
	for a < b {
		mid := (a + b) >> 1
		if ef.low.get(mid) < xl {
			a = mid + 1
		} else {
			b = mid
		}
	}
	return a
}

// Contains reports whether v occurs in the sequence.
func (ef *EliasFano) Contains(v uint64) bool {
	_, err := ef.IndexOf(v)
	return err == nil
}

// IndexOf returns the index of the first occurrence of v.
// Returns ErrNotFound if v does not occur.
func (ef *EliasFano) IndexOf(v uint64) (uint64, error) {
	i := ef.Rank(v)
	if i == ef.n || ef.get(i) != v {
		return 0, serrors.ErrNotFound
	}
	return i, nil
}

// Successor returns the index and value of the smallest element >= x.
// Returns ErrNoSuccessor if every element is below x.
func (ef *EliasFano) Successor(x uint64) (uint64, uint64, error) {
	i := ef.Rank(x)
	if i == ef.n {
		return 0, 0, serrors.ErrNoSuccessor
	}
	return i, ef.get(i), nil
}

// Predecessor returns the index and value of the largest element <= x.
// Returns ErrNoPredecessor if every element is above x.
func (ef *EliasFano) Predecessor(x uint64) (uint64, uint64, error) {
	var i uint64
	if x == ^uint64(0) {
		i = ef.n
	} else {
		i = ef.Rank(x + 1)
	}
	if i == 0 {
		return 0, 0, serrors.ErrNoPredecessor
	}
	return i - 1, ef.get(i - 1), nil
}

// SizeBytes returns the heap footprint of the encoded sequence and its
// auxiliary indexes, excluding fixed struct overhead.
func (ef *EliasFano) SizeBytes() uint64 {
	return uint64(len(ef.low.words))<<3 +
		uint64(len(ef.high.words))<<3 +
		uint64(len(ef.rk.super))<<3 +
		uint64(len(ef.rk.blocks))<<1 +
		uint64(len(ef.sel.samples))<<3
}

// Iterator returns an iterator positioned at index from. Passing Len()
// yields an exhausted iterator. Returns ErrIndexOutOfBounds if from
// exceeds Len().
//
// Sequential decoding walks the high-bit words directly instead of issuing
// a Select per element, so a full scan runs in linear time.
func (ef *EliasFano) Iterator(from uint64) (*Iterator, error) {
	if from > ef.n {
		return nil, serrors.ErrIndexOutOfBounds
	}
	it := &Iterator{
		low: ef.low.Iterator(from),
		i:   from,
		n:   ef.n,
		l:   ef.l,
	}
	if from < ef.n {
		pos := ef.sel.position(from)
		it.words = ef.high.words
		it.wi = pos >> 6
		it.window = it.words[it.wi] & (^uint64(0) << (pos & 63))
	}
	return it, nil
}

// Iterator yields the values of an EliasFano sequence in index order.
// It must not be used concurrently and must not outlive its sequence.
type Iterator struct {
	low    *CompactVectorIterator
	words  []uint64
	window uint64
	wi     uint64
	i      uint64
	n      uint64
	l      int
}

// Next returns the next value, or false when the sequence is exhausted.
func (it *Iterator) Next() (uint64, bool) {
	if it.i >= it.n {
		return 0, false
	}
	for it.window == 0 {
		it.wi++
		if it.wi >= uint64(len(it.words)) {
			// Fewer set bits than the count claims; only corrupt high
			// bits can get here. End the iteration.
			it.i = it.n
			return 0, false
		}
		it.window = it.words[it.wi]
	}
	pos := it.wi<<6 + uint64(bits.TrailingZeros64(it.window))
	it.window &= it.window - 1
	lowv, _ := it.low.Next()
	v := (pos-it.i)<<it.l | lowv
	it.i++
	return v, true
}

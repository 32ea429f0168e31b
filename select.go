package succinct

import (
	"math/bits"

	serrors "github.com/tamirms/succinct/errors"
	"github.com/tamirms/succinct/internal/broadword"
)

// SelectIndex answers Select queries over a rank-indexed bit vector. It
// stores the bit position of every q-th set bit; a query starts from the
// nearest sample, narrows to a superblock by binary search on the rank
// counters between two adjacent samples, then scans at most one superblock
// of blocks and one block of words. With sampling disabled the binary
// search covers the whole counter array instead, trading speed for the
// sample table's space.
//
// SelectZero reuses the rank counters: the number of unset bits before a
// boundary is the boundary position minus the counter, so no second
// counter set is stored.
type SelectIndex struct {
	rk         *RankIndex
	samples    []uint64
	quantumLog int
}

// NewSelectIndex builds a select index on top of rk. The sampling rate is
// tunable via WithSelectQuantum; a quantum of 0 disables sampling.
func NewSelectIndex(rk *RankIndex, opts ...Option) (*SelectIndex, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return buildSelectIndex(rk, cfg.quantumLog), nil
}

func buildSelectIndex(rk *RankIndex, quantumLog int) *SelectIndex {
	sel := &SelectIndex{rk: rk, quantumLog: quantumLog}
	if quantumLog == quantumLogDisabled {
		return sel
	}
	q := uint64(1) << quantumLog
	sel.samples = make([]uint64, 0, (rk.ones+q-1)>>quantumLog)

	var count, next uint64
	for i, w := range rk.bv.words {
		c := uint64(bits.OnesCount64(w))
		for next < count+c {
			off := broadword.Select64(w, int(next-count))
			sel.samples = append(sel.samples, uint64(i)<<6|uint64(off))
			next += q
		}
		count += c
	}
	return sel
}

// newSelectFromParts assembles an index from an already materialized sample
// table, as produced by deserialization.
func newSelectFromParts(rk *RankIndex, samples []uint64, quantumLog int) *SelectIndex {
	return &SelectIndex{rk: rk, samples: samples, quantumLog: quantumLog}
}

// Select returns the position of the k-th set bit, counting from zero.
// Returns ErrIndexOutOfBounds if k >= Ones().
func (sel *SelectIndex) Select(k uint64) (uint64, error) {
	if k >= sel.rk.ones {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return sel.position(k), nil
}

// SelectZero returns the position of the k-th unset bit, counting from
// zero. Returns ErrIndexOutOfBounds if k >= Zeros().
func (sel *SelectIndex) SelectZero(k uint64) (uint64, error) {
	if k >= sel.rk.Zeros() {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return sel.positionZero(k), nil
}

// position locates the k-th set bit. k must be < Ones().
func (sel *SelectIndex) position(k uint64) uint64 {
	rk := sel.rk
	lo, hi := uint64(0), uint64(len(rk.super)-1)
	if sel.quantumLog != quantumLogDisabled {
		si := k >> sel.quantumLog
		pos := sel.samples[si]
		if k == si<<sel.quantumLog {
			return pos
		}
		lo = pos >> rk.superBitsLog()
		if si+1 < uint64(len(sel.samples)) {
			hi = sel.samples[si+1] >> rk.superBitsLog()
		}
	}
	for lo < hi {
		mid := (lo + hi + 1) >> 1
		if rk.super[mid] <= k {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	s := lo

	b := s << rk.superLog
	base := rk.super[s]
	last := b + 1<<rk.superLog
	if n := uint64(len(rk.blocks)); last > n {
		last = n
	}
	for b+1 < last && base+uint64(rk.blocks[b+1]) <= k {
		b++
	}

	r := k - base - uint64(rk.blocks[b])
	words := rk.bv.words
	for i := (b << rk.blockLog) >> 6; i < uint64(len(words)); i++ {
		c := uint64(bits.OnesCount64(words[i]))
		if r < c {
			return i<<6 + uint64(broadword.Select64(words[i], int(r)))
		}
		r -= c
	}
	// Reachable only when deserialized counters disagree with the bit data,
	// which structural validation alone cannot rule out. Pin the result to
	// the last bit instead of scanning past the vector.
	return rk.bv.nbits - 1
}

// positionZero locates the k-th unset bit. k must be < Zeros().
//
// Zero counts are derived from the rank counters: the block at index b
// starts at bit b<<blockLog, so the zeros before it are that position minus
// the set bits before it. The final word may carry padding past Len();
// those bits read as zero but are never reached because k is below the
// true zero count.
func (sel *SelectIndex) positionZero(k uint64) uint64 {
	rk := sel.rk
	superBitsLog := rk.superBitsLog()
	lo, hi := uint64(0), uint64(len(rk.super)-1)
	for lo < hi {
		mid := (lo + hi + 1) >> 1
		if mid<<superBitsLog-rk.super[mid] <= k {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	s := lo

	b := s << rk.superLog
	last := b + 1<<rk.superLog
	if n := uint64(len(rk.blocks)); last > n {
		last = n
	}
	zerosBefore := func(b uint64) uint64 {
		return b<<rk.blockLog - rk.super[s] - uint64(rk.blocks[b])
	}
	for b+1 < last && zerosBefore(b+1) <= k {
		b++
	}

	r := k - zerosBefore(b)
	words := rk.bv.words
	for i := (b << rk.blockLog) >> 6; i < uint64(len(words)); i++ {
		c := uint64(bits.OnesCount64(^words[i]))
		if r < c {
			return i<<6 + uint64(broadword.SelectZero64(words[i], int(r)))
		}
		r -= c
	}
	// Counters that disagree with the bit data land here; see position.
	return rk.bv.nbits - 1
}

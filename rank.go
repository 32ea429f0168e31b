package succinct

import (
	"math/bits"

	serrors "github.com/tamirms/succinct/errors"
)

// RankIndex augments a BitVector with two-level cumulative counters so that
// Rank runs in constant time. The primary level stores the absolute number
// of set bits before each superblock; the secondary level stores a 16-bit
// count relative to the enclosing superblock for each block. A query adds
// the two counters and popcounts the partial words of the final block.
//
// Counters are valid only for the vector contents at build time; the vector
// must not change afterwards. The index is immutable and safe for concurrent
// readers.
type RankIndex struct {
	bv     *BitVector
	super  []uint64
	blocks []uint16
	ones   uint64

	blockLog int // log2 bits per block
	superLog int // log2 blocks per superblock
}

// NewRankIndex builds rank counters over bv in one pass.
// The block geometry is tunable via WithRankBlockSize and
// WithRankSuperBlockSize.
func NewRankIndex(bv *BitVector, opts ...Option) (*RankIndex, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return buildRankIndex(bv, cfg.rankBlockLog, cfg.rankSuperLog), nil
}

func buildRankIndex(bv *BitVector, blockLog, superLog int) *RankIndex {
	blockBits := uint64(1) << blockLog
	blocksPerSuper := uint64(1) << superLog
	numBlocks := (bv.nbits + blockBits - 1) >> blockLog
	numSuper := (numBlocks + blocksPerSuper - 1) >> superLog

	rk := &RankIndex{
		bv:       bv,
		super:    make([]uint64, numSuper),
		blocks:   make([]uint16, numBlocks),
		blockLog: blockLog,
		superLog: superLog,
	}

	words := bv.words
	wordsPerBlock := blockBits >> 6
	var ones, superBase uint64
	for b := uint64(0); b < numBlocks; b++ {
		if b&(blocksPerSuper-1) == 0 {
			rk.super[b>>superLog] = ones
			superBase = ones
		}
		rk.blocks[b] = uint16(ones - superBase)
		start := b * wordsPerBlock
		end := start + wordsPerBlock
		if end > uint64(len(words)) {
			end = uint64(len(words))
		}
		for i := start; i < end; i++ {
			ones += uint64(bits.OnesCount64(words[i]))
		}
	}
	rk.ones = ones
	return rk
}

// newRankFromParts assembles an index from already materialized counter
// slices, as produced by deserialization. The slices must describe bv
// exactly; the loader validates their lengths against the geometry.
func newRankFromParts(bv *BitVector, super []uint64, blocks []uint16, ones uint64, blockLog, superLog int) *RankIndex {
	return &RankIndex{
		bv:       bv,
		super:    super,
		blocks:   blocks,
		ones:     ones,
		blockLog: blockLog,
		superLog: superLog,
	}
}

// Vector returns the underlying bit vector.
func (rk *RankIndex) Vector() *BitVector {
	return rk.bv
}

// Ones returns the total number of set bits.
func (rk *RankIndex) Ones() uint64 {
	return rk.ones
}

// Zeros returns the total number of unset bits.
func (rk *RankIndex) Zeros() uint64 {
	return rk.bv.nbits - rk.ones
}

// Rank returns the number of set bits in [0, pos). pos ranges over
// [0, Len()]; Rank(Len()) is the total number of set bits.
// Returns ErrIndexOutOfBounds if pos > Len().
func (rk *RankIndex) Rank(pos uint64) (uint64, error) {
	if pos > rk.bv.nbits {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return rk.rank(pos), nil
}

// RankZero returns the number of unset bits in [0, pos).
// Returns ErrIndexOutOfBounds if pos > Len().
func (rk *RankIndex) RankZero(pos uint64) (uint64, error) {
	if pos > rk.bv.nbits {
		return 0, serrors.ErrIndexOutOfBounds
	}
	return pos - rk.rank(pos), nil
}

// rank computes the set-bit count before pos. pos must be <= Len().
func (rk *RankIndex) rank(pos uint64) uint64 {
	if pos >= rk.bv.nbits {
		return rk.ones
	}
	b := pos >> rk.blockLog
	count := rk.super[b>>rk.superLog] + uint64(rk.blocks[b])

	words := rk.bv.words
	end := pos >> 6
	for i := (b << rk.blockLog) >> 6; i < end; i++ {
		count += uint64(bits.OnesCount64(words[i]))
	}
	if o := pos & 63; o != 0 {
		count += uint64(bits.OnesCount64(words[end] & (1<<o - 1)))
	}
	return count
}

// superBitsLog returns log2 of the superblock span in bits.
func (rk *RankIndex) superBitsLog() int {
	return rk.blockLog + rk.superLog
}

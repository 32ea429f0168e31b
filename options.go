package succinct

import (
	"math/bits"

	serrors "github.com/tamirms/succinct/errors"
)

const (
	defaultRankBlockBits       = 512
	defaultRankSuperBlockUnits = 8
	defaultSelectQuantum       = 256

	// quantumLogDisabled marks a structure built without select sampling.
	quantumLogDisabled = 0xFF

	// maxRelativeBlockCount bounds the ones a block counter must represent:
	// rank block counters are stored relative to their superblock in 16 bits.
	maxRelativeBlockCount = 1<<16 - 1
)

// Option is a functional option for configuring construction and loading.
type Option func(*config)

type config struct {
	rankBlockLog   int  // log2 of bits per rank block
	rankSuperLog   int  // log2 of blocks per rank superblock
	quantumLog     int  // log2 of set bits per select sample; quantumLogDisabled = none
	workers        int  // parallel build workers; <=1 means sequential
	auxTables      bool // embed rank/select tables when serializing
	verifyChecksum bool // verify the blob checksum when opening
}

func defaultConfig() *config {
	return &config{
		rankBlockLog:   log2(defaultRankBlockBits),
		rankSuperLog:   log2(defaultRankSuperBlockUnits),
		quantumLog:     log2(defaultSelectQuantum),
		workers:        0, // Default to single-threaded; use WithParallelism(n) to parallelize
		auxTables:      true,
		verifyChecksum: true,
	}
}

func applyOptions(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// log2 returns the exponent of a power of two, or -1 otherwise.
func log2(v int) int {
	if v <= 0 || v&(v-1) != 0 {
		return -1
	}
	return bits.TrailingZeros(uint(v))
}

func (c *config) validate() error {
	if c.rankBlockLog < 6 || c.rankBlockLog > 15 {
		return serrors.ErrInvalidGeometry
	}
	if c.rankSuperLog < 0 || c.rankSuperLog > 10 {
		return serrors.ErrInvalidGeometry
	}
	// Relative block counters are uint16; the widest span one must cover is
	// a full superblock minus one block.
	if (1<<(c.rankBlockLog+c.rankSuperLog))-(1<<c.rankBlockLog) > maxRelativeBlockCount {
		return serrors.ErrInvalidGeometry
	}
	if c.quantumLog != quantumLogDisabled && (c.quantumLog < 3 || c.quantumLog > 20) {
		return serrors.ErrInvalidGeometry
	}
	return nil
}

// WithRankBlockSize sets the rank block size in bits. Must be a power of two
// in [64, 32768]. Smaller blocks cost more space and make rank scans shorter.
// The default is 512.
func WithRankBlockSize(blockBits int) Option {
	return func(c *config) {
		c.rankBlockLog = log2(blockBits)
	}
}

// WithRankSuperBlockSize sets the number of rank blocks per superblock.
// Must be a power of two in [1, 1024], and the superblock may not span more
// than 65536 bits with the configured block size. The default is 8.
func WithRankSuperBlockSize(blocksPerSuper int) Option {
	return func(c *config) {
		c.rankSuperLog = log2(blocksPerSuper)
	}
}

// WithSelectQuantum sets the select sampling interval: the position of every
// q-th set bit is stored. Must be a power of two in [8, 1048576], or 0 to
// disable sampling entirely, in which case select falls back to binary search
// over the rank counters. The default is 256.
func WithSelectQuantum(q int) Option {
	return func(c *config) {
		if q == 0 {
			c.quantumLog = quantumLogDisabled
			return
		}
		c.quantumLog = log2(q)
	}
}

// WithParallelism sets the number of workers used by Build. Values below 2
// select the sequential path. Parallel builds produce output bit-for-bit
// identical to sequential builds.
func WithParallelism(workers int) Option {
	return func(c *config) {
		c.workers = workers
	}
}

// WithAuxTables controls whether the rank and select tables are embedded in
// the serialized form. When disabled the blob shrinks and the tables are
// rebuilt in one pass over the high bits at load time. The default is to
// embed them.
func WithAuxTables(embed bool) Option {
	return func(c *config) {
		c.auxTables = embed
	}
}

// WithChecksumVerify controls whether Open and Load verify the blob checksum
// before constructing the sequence. The default is to verify; disabling it
// skips one pass over the data for very large blobs.
func WithChecksumVerify(verify bool) Option {
	return func(c *config) {
		c.verifyChecksum = verify
	}
}

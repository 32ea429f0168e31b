package succinct

import (
	"context"

	serrors "github.com/tamirms/succinct/errors"
)

// contextCheckInterval is how often slice builds check for context
// cancellation.
const contextCheckInterval = 10000

// Builder constructs an EliasFano sequence incrementally. The element
// count and universe bound are fixed up front; values arrive through Push
// in non-decreasing order and Build finalizes the sequence once exactly
// that many values have been pushed.
//
// The first failed Push poisons the builder: the same error is returned
// from every later Push and from Build, and no partially encoded sequence
// can escape. A builder is single use and must not be used concurrently.
type Builder struct {
	low  *CompactVector
	high *BitVector
	cfg  *config

	n    uint64
	u    uint64
	l    int
	i    uint64
	last uint64
	err  error
}

// NewBuilder returns a builder for n values below the exclusive bound u.
// Returns ErrZeroUniverse if u is zero while n is not, and ErrShapeTooLarge
// if the encoding for n and u would not fit in a uint64 bit count.
func NewBuilder(n, u uint64, opts ...Option) (*Builder, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if u == 0 && n > 0 {
		return nil, serrors.ErrZeroUniverse
	}
	l := lowBitWidth(n, u)
	if highLenOverflows(n, u, l) {
		return nil, serrors.ErrShapeTooLarge
	}
	low, err := NewCompactVector(n, l)
	if err != nil {
		return nil, err
	}
	return &Builder{
		low:  low,
		high: NewBitVector(highLen(n, u, l)),
		cfg:  cfg,
		n:    n,
		u:    u,
		l:    l,
	}, nil
}

// Push appends the next value. Returns ErrValueOutOfRange if v >= u,
// ErrNonMonotone if v is below the previous value, and ErrCountMismatch
// if n values have already been pushed. Any error poisons the builder.
func (b *Builder) Push(v uint64) error {
	if b.err != nil {
		return b.err
	}
	if b.i == b.n {
		return b.fail(serrors.ErrCountMismatch)
	}
	if v >= b.u {
		return b.fail(serrors.ErrValueOutOfRange)
	}
	if v < b.last {
		return b.fail(serrors.ErrNonMonotone)
	}
	b.low.set(b.i, v&b.low.mask)
	b.high.set(v>>b.l + b.i)
	b.last = v
	b.i++
	return nil
}

// Pushed returns how many values have been accepted so far.
func (b *Builder) Pushed() uint64 {
	return b.i
}

func (b *Builder) fail(err error) error {
	b.err = err
	return err
}

// Build finalizes the sequence and constructs its rank and select indexes.
// Returns ErrCountMismatch if fewer than n values were pushed. The builder
// is spent afterwards; further calls return ErrBuilderFinished.
func (b *Builder) Build() (*EliasFano, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.i != b.n {
		return nil, b.fail(serrors.ErrCountMismatch)
	}
	ef := finishEliasFano(b.low, b.high, b.n, b.u, b.l, b.cfg)
	b.err = serrors.ErrBuilderFinished
	return ef, nil
}

func finishEliasFano(low *CompactVector, high *BitVector, n, u uint64, l int, cfg *config) *EliasFano {
	rk := buildRankIndex(high, cfg.rankBlockLog, cfg.rankSuperLog)
	sel := buildSelectIndex(rk, cfg.quantumLog)
	return assembleEliasFano(low, high, rk, sel, n, u, l)
}

// Build encodes an already sorted slice in one call. The slice must be
// non-decreasing with every value below u. With WithParallelism(2) or more
// the input is split into segments encoded concurrently and merged; the
// result is bit-for-bit identical to a sequential build. The context is
// checked periodically so long builds can be abandoned.
func Build(ctx context.Context, values []uint64, u uint64, opts ...Option) (*EliasFano, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	n := uint64(len(values))
	if u == 0 && n > 0 {
		return nil, serrors.ErrZeroUniverse
	}
	if highLenOverflows(n, u, lowBitWidth(n, u)) {
		return nil, serrors.ErrShapeTooLarge
	}
	if cfg.workers > 1 && n >= 2*minParallelSegment {
		return buildParallel(ctx, values, u, cfg)
	}
	return buildSequential(ctx, values, u, cfg)
}

func buildSequential(ctx context.Context, values []uint64, u uint64, cfg *config) (*EliasFano, error) {
	n := uint64(len(values))
	l := lowBitWidth(n, u)
	low, err := NewCompactVector(n, l)
	if err != nil {
		return nil, err
	}
	high := NewBitVector(highLen(n, u, l))

	var last uint64
	counter := 0
	for j, v := range values {
		counter++
		if counter >= contextCheckInterval {
			counter = 0
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		if v >= u {
			return nil, serrors.ErrValueOutOfRange
		}
		if v < last {
			return nil, serrors.ErrNonMonotone
		}
		low.set(uint64(j), v&low.mask)
		high.set(v>>l + uint64(j))
		last = v
	}
	return finishEliasFano(low, high, n, u, l, cfg), nil
}

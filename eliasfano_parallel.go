package succinct

import (
	"context"

	serrors "github.com/tamirms/succinct/errors"
	"golang.org/x/sync/errgroup"
)

// minParallelSegment is the smallest per-worker share of a parallel build.
// Inputs below twice this size take the sequential path.
const minParallelSegment = 1 << 16

// efSegment is one worker's encoded share: packed low bits for its value
// range and a high-part fragment whose bit 0 corresponds to the global high
// position base.
type efSegment struct {
	lowWords []uint64
	lowBits  uint64
	high     []uint64
	base     uint64
	highBits uint64
}

// buildParallel splits values into contiguous segments, encodes each on its
// own goroutine, then ORs the fragments into the final arrays in segment
// order. Segment boundaries share at most one word on each array, and the
// fragments carry zeros outside their own bits, so the merged result is
// identical to a sequential encode.
func buildParallel(ctx context.Context, values []uint64, u uint64, cfg *config) (*EliasFano, error) {
	n := uint64(len(values))
	l := lowBitWidth(n, u)

	segSize := (n + uint64(cfg.workers) - 1) / uint64(cfg.workers)
	if segSize < minParallelSegment {
		segSize = minParallelSegment
	}
	numSegs := int((n + segSize - 1) / segSize)

	segs := make([]efSegment, numSegs)
	g, gctx := errgroup.WithContext(ctx)
	for si := 0; si < numSegs; si++ {
		start := uint64(si) * segSize
		end := start + segSize
		if end > n {
			end = n
		}
		seg := &segs[si]
		g.Go(func() error {
			return encodeSegment(gctx, seg, values, start, end, u, l)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	low, err := NewCompactVector(n, l)
	if err != nil {
		return nil, err
	}
	high := NewBitVector(highLen(n, u, l))
	var lowOff uint64
	for i := range segs {
		seg := &segs[i]
		orBits(low.words, lowOff, seg.lowWords, seg.lowBits)
		orBits(high.words, seg.base, seg.high, seg.highBits)
		lowOff += seg.lowBits
	}
	return finishEliasFano(low, high, n, u, l, cfg), nil
}

// encodeSegment packs values[start:end) into seg. Each worker validates its
// own range, including monotonicity across the left segment boundary, so
// the workers jointly validate the whole input. The final value also caps
// every interior value: anything above it proves a decrease later in the
// segment, and rejecting it up front keeps the fragment allocation exact.
func encodeSegment(ctx context.Context, seg *efSegment, values []uint64, start, end, u uint64, l int) error {
	first, final := values[start], values[end-1]
	if first >= u || final >= u {
		return serrors.ErrValueOutOfRange
	}
	if final < first || (start > 0 && first < values[start-1]) {
		return serrors.ErrNonMonotone
	}

	seg.base = first>>l + start
	seg.highBits = final>>l + end - 1 - seg.base + 1
	seg.high = make([]uint64, wordsFor(seg.highBits))
	seg.lowBits = (end - start) * uint64(l)
	seg.lowWords = make([]uint64, wordsFor(seg.lowBits))

	mask := widthMask(l)
	prev := first
	var w, o uint64
	counter := 0
	for j := start; j < end; j++ {
		counter++
		if counter >= contextCheckInterval {
			counter = 0
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		v := values[j]
		if v >= u {
			return serrors.ErrValueOutOfRange
		}
		if v < prev || v > final {
			return serrors.ErrNonMonotone
		}
		prev = v

		off := v>>l + j - seg.base
		seg.high[off>>6] |= 1 << (off & 63)

		if l > 0 {
			lw := v & mask
			seg.lowWords[w] |= lw << o
			if o+uint64(l) > 64 {
				seg.lowWords[w+1] |= lw >> (64 - o)
			}
			o += uint64(l)
			if o >= 64 {
				w++
				o -= 64
			}
		}
	}
	return nil
}

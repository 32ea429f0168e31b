package succinct

import (
	"context"
	"errors"
	"testing"

	serrors "github.com/tamirms/succinct/errors"
)

func TestEliasFanoKnownSequence(t *testing.T) {
	// [0, 2, 5, 7, 10] with universe 11: l = floor(log2(11/5)) = 1.
	values := []uint64{0, 2, 5, 7, 10}
	ef := mustBuild(t, values, 11)

	if ef.BitWidth() != 1 {
		t.Errorf("BitWidth: got %d, want 1", ef.BitWidth())
	}
	verifySequence(t, ef, values)

	if got, _ := ef.Get(2); got != 5 {
		t.Errorf("Get(2): got %d, want 5", got)
	}
	if got := ef.Rank(6); got != 3 {
		t.Errorf("Rank(6): got %d, want 3", got)
	}
	if got := ef.Rank(11); got != 5 {
		t.Errorf("Rank(11): got %d, want 5", got)
	}
	idx, v, err := ef.Successor(6)
	if err != nil || idx != 3 || v != 7 {
		t.Errorf("Successor(6): got (%d, %d, %v), want (3, 7, nil)", idx, v, err)
	}
	if _, _, err := ef.Successor(11); !errors.Is(err, serrors.ErrNoSuccessor) {
		t.Errorf("Successor(11): expected ErrNoSuccessor, got %v", err)
	}
}

func TestEliasFanoRandom(t *testing.T) {
	rng := newTestRNG(t)
	shapes := []struct {
		n int
		u uint64
	}{
		{1, 1},
		{1, 1 << 40},
		{100, 1 << 10},
		{1000, 1 << 20},
		{5000, 5000},    // dense: u == n, l == 0
		{5000, 100},     // denser than the universe: heavy duplication
		{3000, 1 << 50}, // very sparse
		{4096, 1 << 12}, // u == n exactly at a power of two
		{1000, 1 << 63}, // near the top of the value range
	}
	for _, shape := range shapes {
		values := sortedValues(rng, shape.n, shape.u)
		ef := mustBuild(t, values, shape.u)
		verifySequence(t, ef, values)

		for i := 0; i < 200; i++ {
			x := rng.Uint64N(shape.u)
			if got, want := ef.Rank(x), naiveRank(values, x); got != want {
				t.Fatalf("n=%d u=%d: Rank(%d) got %d, want %d", shape.n, shape.u, x, got, want)
			}
		}
		if got := ef.Rank(shape.u); got != uint64(shape.n) {
			t.Fatalf("n=%d u=%d: Rank(u) got %d", shape.n, shape.u, got)
		}
	}
}

func TestEliasFanoSuccessorPredecessor(t *testing.T) {
	rng := newTestRNG(t)
	const u = 1 << 24
	values := sortedValues(rng, 2000, u)
	ef := mustBuild(t, values, u)

	for i := 0; i < 2000; i++ {
		x := rng.Uint64N(u + u/8) // probe past the universe too

		// Reference successor.
		var wantIdx uint64
		found := false
		for j, v := range values {
			if v >= x {
				wantIdx, found = uint64(j), true
				break
			}
		}
		idx, v, err := ef.Successor(x)
		if found {
			if err != nil || idx != wantIdx || v != values[wantIdx] {
				t.Fatalf("Successor(%d): got (%d, %d, %v), want (%d, %d, nil)",
					x, idx, v, err, wantIdx, values[wantIdx])
			}
		} else if !errors.Is(err, serrors.ErrNoSuccessor) {
			t.Fatalf("Successor(%d): expected ErrNoSuccessor, got (%d, %d, %v)", x, idx, v, err)
		}

		// Reference predecessor.
		found = false
		for j := len(values) - 1; j >= 0; j-- {
			if values[j] <= x {
				wantIdx, found = uint64(j), true
				break
			}
		}
		idx, v, err = ef.Predecessor(x)
		if found {
			if err != nil || v != values[wantIdx] {
				t.Fatalf("Predecessor(%d): got (%d, %d, %v), want value %d",
					x, idx, v, err, values[wantIdx])
			}
		} else if !errors.Is(err, serrors.ErrNoPredecessor) {
			t.Fatalf("Predecessor(%d): expected ErrNoPredecessor, got (%d, %d, %v)", x, idx, v, err)
		}
	}
}

func TestEliasFanoPredecessorMaxUint(t *testing.T) {
	values := []uint64{10, 20, 30}
	ef := mustBuild(t, values, 100)
	idx, v, err := ef.Predecessor(^uint64(0))
	if err != nil || idx != 2 || v != 30 {
		t.Errorf("Predecessor(MaxUint64): got (%d, %d, %v), want (2, 30, nil)", idx, v, err)
	}
	if _, _, err := ef.Predecessor(9); !errors.Is(err, serrors.ErrNoPredecessor) {
		t.Errorf("Predecessor(9): expected ErrNoPredecessor, got %v", err)
	}
}

func TestEliasFanoContainsIndexOf(t *testing.T) {
	rng := newTestRNG(t)
	const u = 1 << 16
	values := sortedValues(rng, 500, u)
	ef := mustBuild(t, values, u)

	present := make(map[uint64]uint64, len(values)) // value -> first index
	for i, v := range values {
		if _, ok := present[v]; !ok {
			present[v] = uint64(i)
		}
	}
	for v, first := range present {
		if !ef.Contains(v) {
			t.Fatalf("Contains(%d): got false for stored value", v)
		}
		idx, err := ef.IndexOf(v)
		if err != nil || idx != first {
			t.Fatalf("IndexOf(%d): got (%d, %v), want (%d, nil)", v, idx, err, first)
		}
	}
	misses := 0
	for x := uint64(0); x < u && misses < 200; x++ {
		if _, ok := present[x]; ok {
			continue
		}
		misses++
		if ef.Contains(x) {
			t.Fatalf("Contains(%d): got true for absent value", x)
		}
		if _, err := ef.IndexOf(x); !errors.Is(err, serrors.ErrNotFound) {
			t.Fatalf("IndexOf(%d): expected ErrNotFound, got %v", x, err)
		}
	}
}

func TestEliasFanoDuplicates(t *testing.T) {
	values := []uint64{5, 5, 5, 5, 5}
	ef := mustBuild(t, values, 10)
	verifySequence(t, ef, values)

	if idx, err := ef.IndexOf(5); err != nil || idx != 0 {
		t.Errorf("IndexOf(5): got (%d, %v), want (0, nil)", idx, err)
	}
	if got := ef.Rank(5); got != 0 {
		t.Errorf("Rank(5): got %d, want 0", got)
	}
	if got := ef.Rank(6); got != 5 {
		t.Errorf("Rank(6): got %d, want 5", got)
	}
	idx, v, err := ef.Successor(5)
	if err != nil || idx != 0 || v != 5 {
		t.Errorf("Successor(5): got (%d, %d, %v), want (0, 5, nil)", idx, v, err)
	}
	idx, v, err = ef.Predecessor(5)
	if err != nil || idx != 4 || v != 5 {
		t.Errorf("Predecessor(5): got (%d, %d, %v), want (4, 5, nil)", idx, v, err)
	}
}

func TestEliasFanoEmpty(t *testing.T) {
	ef := mustBuild(t, nil, 100)
	if ef.Len() != 0 {
		t.Errorf("Len: got %d, want 0", ef.Len())
	}
	if _, err := ef.Get(0); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Get(0): expected ErrIndexOutOfBounds, got %v", err)
	}
	if _, err := ef.Min(); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Min: expected ErrIndexOutOfBounds, got %v", err)
	}
	if _, err := ef.Max(); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Max: expected ErrIndexOutOfBounds, got %v", err)
	}
	if got := ef.Rank(50); got != 0 {
		t.Errorf("Rank(50): got %d, want 0", got)
	}
	if _, _, err := ef.Successor(0); !errors.Is(err, serrors.ErrNoSuccessor) {
		t.Errorf("Successor(0): expected ErrNoSuccessor, got %v", err)
	}
	it, err := ef.Iterator(0)
	if err != nil {
		t.Fatalf("Iterator(0) error: %v", err)
	}
	if _, ok := it.Next(); ok {
		t.Error("iterator over empty sequence yielded a value")
	}
}

func TestEliasFanoBoundaryValues(t *testing.T) {
	// Values at the very edges of the universe.
	const u = 1 << 30
	values := []uint64{0, 0, 1, u / 2, u - 2, u - 1, u - 1}
	ef := mustBuild(t, values, u)
	verifySequence(t, ef, values)

	if got := ef.Rank(0); got != 0 {
		t.Errorf("Rank(0): got %d, want 0", got)
	}
	if got := ef.Rank(u - 1); got != 5 {
		t.Errorf("Rank(u-1): got %d, want 5", got)
	}
	idx, v, err := ef.Successor(u - 1)
	if err != nil || v != u-1 || idx != 5 {
		t.Errorf("Successor(u-1): got (%d, %d, %v), want (5, %d, nil)", idx, v, err, uint64(u-1))
	}
}

func TestEliasFanoIteratorFrom(t *testing.T) {
	rng := newTestRNG(t)
	const u = 1 << 32
	values := sortedValues(rng, 1500, u)
	ef := mustBuild(t, values, u)

	for _, from := range []uint64{0, 1, 700, 1499, 1500} {
		it, err := ef.Iterator(from)
		if err != nil {
			t.Fatalf("Iterator(%d) error: %v", from, err)
		}
		for i := from; i < uint64(len(values)); i++ {
			got, ok := it.Next()
			if !ok {
				t.Fatalf("Iterator(%d): exhausted at %d", from, i)
			}
			if got != values[i] {
				t.Fatalf("Iterator(%d): at %d got %d, want %d", from, i, got, values[i])
			}
		}
		if _, ok := it.Next(); ok {
			t.Fatalf("Iterator(%d): ran past the end", from)
		}
	}
	if _, err := ef.Iterator(1501); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Iterator(1501): expected ErrIndexOutOfBounds, got %v", err)
	}
}

// TestEliasFanoSpaceBound verifies the defining property of the encoding:
// the low and high sections together take exactly n*l + n + (u>>l) + 1 bits
// (rounded up to words), and the auxiliary tables stay within their
// configured overhead.
func TestEliasFanoSpaceBound(t *testing.T) {
	rng := newTestRNG(t)
	shapes := []struct {
		n int
		u uint64
	}{
		{1000, 1 << 20},
		{10000, 1 << 24},
		{5000, 6000},
	}
	for _, shape := range shapes {
		values := sortedValues(rng, shape.n, shape.u)
		ef := mustBuild(t, values, shape.u)

		n := uint64(shape.n)
		l := uint64(ef.BitWidth())
		wantLowWords := wordsFor(n * l)
		wantHighWords := wordsFor(n + (shape.u >> l) + 1)
		if got := uint64(len(ef.low.words)); got != wantLowWords {
			t.Errorf("n=%d u=%d: low words got %d, want %d", shape.n, shape.u, got, wantLowWords)
		}
		if got := uint64(len(ef.high.words)); got != wantHighWords {
			t.Errorf("n=%d u=%d: high words got %d, want %d", shape.n, shape.u, got, wantHighWords)
		}

		highBits := (wantHighWords) << 6
		auxBits := uint64(len(ef.rk.super))*64 +
			uint64(len(ef.rk.blocks))*16 +
			uint64(len(ef.sel.samples))*64
		// Defaults: one 64-bit counter per 4096 bits, one 16-bit counter per
		// 512 bits, one 64-bit sample per 256 ones. Allow one extra entry per
		// table for partial blocks.
		maxAux := (highBits/4096+1)*64 + (highBits/512+1)*16 + (n/256+1)*64
		if auxBits > maxAux {
			t.Errorf("n=%d u=%d: aux tables use %d bits, bound %d", shape.n, shape.u, auxBits, maxAux)
		}

		wantBytes := wantLowWords<<3 + wantHighWords<<3 +
			uint64(len(ef.rk.super))<<3 + uint64(len(ef.rk.blocks))<<1 +
			uint64(len(ef.sel.samples))<<3
		if got := ef.SizeBytes(); got != wantBytes {
			t.Errorf("n=%d u=%d: SizeBytes got %d, want %d", shape.n, shape.u, got, wantBytes)
		}
	}
}

func TestEliasFanoGeometryOptions(t *testing.T) {
	rng := newTestRNG(t)
	const u = 1 << 22
	values := sortedValues(rng, 3000, u)
	geometries := [][]Option{
		{WithRankBlockSize(64), WithRankSuperBlockSize(1), WithSelectQuantum(8)},
		{WithRankBlockSize(2048), WithRankSuperBlockSize(16)},
		{WithSelectQuantum(0)},
	}
	for gi, opts := range geometries {
		ef := mustBuild(t, values, u, opts...)
		verifySequence(t, ef, values)
		for i := 0; i < 100; i++ {
			x := rng.Uint64N(u)
			if got, want := ef.Rank(x), naiveRank(values, x); got != want {
				t.Fatalf("geometry %d: Rank(%d) got %d, want %d", gi, x, got, want)
			}
		}
	}
}

func TestEliasFanoInvalidGeometry(t *testing.T) {
	cases := []struct {
		name string
		opts []Option
	}{
		{"block too small", []Option{WithRankBlockSize(32)}},
		{"block not power of two", []Option{WithRankBlockSize(768)}},
		{"superblock too wide", []Option{WithRankBlockSize(1024), WithRankSuperBlockSize(1024)}},
		{"quantum too small", []Option{WithSelectQuantum(4)}},
		{"quantum not power of two", []Option{WithSelectQuantum(100)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Build(context.Background(), []uint64{1, 2}, 10, c.opts...); !errors.Is(err, serrors.ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

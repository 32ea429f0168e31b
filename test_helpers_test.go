package succinct

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"testing"

	serrors "github.com/tamirms/succinct/errors"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// sortedValues generates n sorted pseudo-random values in [0, u).
// Duplicates occur naturally whenever n approaches or exceeds u.
func sortedValues(rng *rand.Rand, n int, u uint64) []uint64 {
	values := make([]uint64, n)
	for i := range values {
		values[i] = rng.Uint64N(u)
	}
	slices.Sort(values)
	return values
}

// mustBuild encodes values and fails the test on error.
func mustBuild(t testing.TB, values []uint64, u uint64, opts ...Option) *EliasFano {
	t.Helper()
	ef, err := Build(context.Background(), values, u, opts...)
	if err != nil {
		t.Fatalf("Build(%d values, universe %d) error: %v", len(values), u, err)
	}
	return ef
}

// randomBitVector returns a vector of nbits bits where each bit is set with
// probability num/den, along with the positions of the set bits.
func randomBitVector(rng *rand.Rand, nbits, num, den uint64) (*BitVector, []uint64) {
	bv := NewBitVector(nbits)
	var ones []uint64
	for p := uint64(0); p < nbits; p++ {
		if rng.Uint64N(den) < num {
			bv.set(p)
			ones = append(ones, p)
		}
	}
	return bv, ones
}

// verifySequence checks ef against the reference slice: Len, Get for every
// index, iterator equality, Min/Max, and the out-of-bounds Get error.
func verifySequence(t *testing.T, ef *EliasFano, values []uint64) {
	t.Helper()
	n := uint64(len(values))
	if ef.Len() != n {
		t.Fatalf("Len: got %d, want %d", ef.Len(), n)
	}
	for i, want := range values {
		got, err := ef.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d) error: %v", i, err)
		}
		if got != want {
			t.Fatalf("Get(%d): got %d, want %d", i, got, want)
		}
	}
	if _, err := ef.Get(n); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Get(%d): expected ErrIndexOutOfBounds, got %v", n, err)
	}
	it, err := ef.Iterator(0)
	if err != nil {
		t.Fatalf("Iterator(0) error: %v", err)
	}
	for i, want := range values {
		got, ok := it.Next()
		if !ok {
			t.Fatalf("iterator exhausted at index %d, want %d values", i, n)
		}
		if got != want {
			t.Fatalf("iterator at %d: got %d, want %d", i, got, want)
		}
	}
	if v, ok := it.Next(); ok {
		t.Fatalf("iterator yielded %d past the end", v)
	}
	if n > 0 {
		if mn, err := ef.Min(); err != nil || mn != values[0] {
			t.Errorf("Min: got (%d, %v), want %d", mn, err, values[0])
		}
		if mx, err := ef.Max(); err != nil || mx != values[n-1] {
			t.Errorf("Max: got (%d, %v), want %d", mx, err, values[n-1])
		}
	}
}

// naiveRank counts values strictly below x in a sorted slice.
func naiveRank(values []uint64, x uint64) uint64 {
	var count uint64
	for _, v := range values {
		if v < x {
			count++
		}
	}
	return count
}

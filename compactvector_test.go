package succinct

import (
	"errors"
	"testing"

	serrors "github.com/tamirms/succinct/errors"
)

func TestCompactVectorRoundTrip(t *testing.T) {
	rng := newTestRNG(t)
	widths := []int{1, 2, 3, 7, 8, 13, 16, 31, 32, 33, 48, 63, 64}
	for _, width := range widths {
		const n = 500
		cv, err := NewCompactVector(n, width)
		if err != nil {
			t.Fatalf("width %d: NewCompactVector error: %v", width, err)
		}
		mask := widthMask(width)
		want := make([]uint64, n)
		for i := range want {
			want[i] = rng.Uint64() & mask
			if err := cv.Set(uint64(i), want[i]); err != nil {
				t.Fatalf("width %d: Set(%d, %d) error: %v", width, i, want[i], err)
			}
		}
		for i, w := range want {
			got, err := cv.Get(uint64(i))
			if err != nil {
				t.Fatalf("width %d: Get(%d) error: %v", width, i, err)
			}
			if got != w {
				t.Fatalf("width %d: Get(%d) = %d, want %d", width, i, got, w)
			}
		}
	}
}

func TestCompactVectorOverwrite(t *testing.T) {
	// Overwriting an entry must not disturb its neighbors, including
	// entries sharing a straddled word.
	cv, err := NewCompactVector(10, 13)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 10; i++ {
		cv.set(i, i+1)
	}
	cv.set(4, 0x1FFF)
	cv.set(5, 0)
	for i := uint64(0); i < 10; i++ {
		want := i + 1
		switch i {
		case 4:
			want = 0x1FFF
		case 5:
			want = 0
		}
		if got := cv.get(i); got != want {
			t.Errorf("Get(%d) after overwrite: got %d, want %d", i, got, want)
		}
	}
}

func TestCompactVectorWidthZero(t *testing.T) {
	cv, err := NewCompactVector(100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Words()) != 0 {
		t.Errorf("width 0 allocated %d words", len(cv.Words()))
	}
	if got, err := cv.Get(42); err != nil || got != 0 {
		t.Errorf("Get(42): got (%d, %v), want (0, nil)", got, err)
	}
	if err := cv.Set(0, 0); err != nil {
		t.Errorf("Set(0, 0) error: %v", err)
	}
	if err := cv.Set(0, 1); !errors.Is(err, serrors.ErrValueTooWide) {
		t.Errorf("Set(0, 1): expected ErrValueTooWide, got %v", err)
	}
}

func TestCompactVectorErrors(t *testing.T) {
	cv, err := NewCompactVector(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cv.Get(4); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Get(4): expected ErrIndexOutOfBounds, got %v", err)
	}
	if err := cv.Set(4, 0); !errors.Is(err, serrors.ErrIndexOutOfBounds) {
		t.Errorf("Set(4): expected ErrIndexOutOfBounds, got %v", err)
	}
	if err := cv.Set(0, 8); !errors.Is(err, serrors.ErrValueTooWide) {
		t.Errorf("Set(0, 8): expected ErrValueTooWide, got %v", err)
	}
	if err := cv.Set(0, 7); err != nil {
		t.Errorf("Set(0, 7) error: %v", err)
	}
	if _, err := NewCompactVector(4, 65); !errors.Is(err, serrors.ErrInvalidBitWidth) {
		t.Errorf("width 65: expected ErrInvalidBitWidth, got %v", err)
	}
	if _, err := NewCompactVector(4, -1); !errors.Is(err, serrors.ErrInvalidBitWidth) {
		t.Errorf("width -1: expected ErrInvalidBitWidth, got %v", err)
	}
}

func TestCompactVectorFromWords(t *testing.T) {
	cv, err := NewCompactVector(9, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := uint64(0); i < 9; i++ {
		cv.set(i, i*13&0x7F)
	}
	view, err := CompactVectorFromWords(cv.Words(), 9, 7)
	if err != nil {
		t.Fatalf("CompactVectorFromWords error: %v", err)
	}
	for i := uint64(0); i < 9; i++ {
		if got := view.get(i); got != cv.get(i) {
			t.Errorf("view Get(%d): got %d, want %d", i, got, cv.get(i))
		}
	}

	if _, err := CompactVectorFromWords(cv.Words(), 20, 7); !errors.Is(err, serrors.ErrCorruptedFormat) {
		t.Errorf("word count mismatch: expected ErrCorruptedFormat, got %v", err)
	}
	dirty := append([]uint64(nil), cv.Words()...)
	dirty[0] = ^uint64(0)
	// 9*7=63 bits: the last bit of word 0 is past the data and must be zero.
	if _, err := CompactVectorFromWords(dirty, 9, 7); !errors.Is(err, serrors.ErrCorruptedFormat) {
		t.Errorf("dirty tail: expected ErrCorruptedFormat, got %v", err)
	}
}

func TestCompactVectorIterator(t *testing.T) {
	rng := newTestRNG(t)
	for _, width := range []int{0, 5, 13, 64} {
		const n = 300
		cv, err := NewCompactVector(n, width)
		if err != nil {
			t.Fatal(err)
		}
		mask := widthMask(width)
		want := make([]uint64, n)
		for i := range want {
			want[i] = rng.Uint64() & mask
			cv.set(uint64(i), want[i])
		}
		for _, from := range []uint64{0, 1, n / 2, n - 1, n} {
			it := cv.Iterator(from)
			for i := from; i < n; i++ {
				got, ok := it.Next()
				if !ok {
					t.Fatalf("width %d from %d: iterator exhausted at %d", width, from, i)
				}
				if got != want[i] {
					t.Fatalf("width %d from %d: entry %d got %d, want %d", width, from, i, got, want[i])
				}
			}
			if _, ok := it.Next(); ok {
				t.Fatalf("width %d from %d: iterator ran past the end", width, from)
			}
		}
	}
}

func TestMinBitWidth(t *testing.T) {
	cases := []struct {
		max  uint64
		want int
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {255, 8}, {256, 9}, {^uint64(0), 64},
	}
	for _, c := range cases {
		if got := MinBitWidth(c.max); got != c.want {
			t.Errorf("MinBitWidth(%d): got %d, want %d", c.max, got, c.want)
		}
	}
}

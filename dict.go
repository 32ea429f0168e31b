package succinct

// Accessor provides random access to a fixed-length sequence of unsigned
// integers.
type Accessor interface {
	// Get returns the value at index i, or ErrIndexOutOfBounds.
	Get(i uint64) (uint64, error)
	// Len returns the number of values.
	Len() uint64
	// BitWidth returns the per-value storage width in bits.
	BitWidth() int
}

// Dictionary is an Accessor whose values can also be looked up by content.
type Dictionary interface {
	Accessor
	// Contains reports whether v occurs in the sequence.
	Contains(v uint64) bool
	// IndexOf returns the index of the first occurrence of v, or
	// ErrNotFound.
	IndexOf(v uint64) (uint64, error)
}

// SortedDictionary is a Dictionary over a monotone sequence, adding order
// queries.
type SortedDictionary interface {
	Dictionary
	// Rank returns the number of values strictly below x.
	Rank(x uint64) uint64
	// Successor returns the index and value of the smallest element >= x,
	// or ErrNoSuccessor.
	Successor(x uint64) (uint64, uint64, error)
	// Predecessor returns the index and value of the largest element <= x,
	// or ErrNoPredecessor.
	Predecessor(x uint64) (uint64, uint64, error)
}

var (
	_ Accessor         = (*CompactVector)(nil)
	_ SortedDictionary = (*EliasFano)(nil)
	_ SortedDictionary = (*Mapped)(nil)
)

// Package errors defines all exported error sentinels for the succinct library.
//
// This is the single source of truth for error values. Both the top-level
// succinct package and internal packages import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Construction errors
var (
	ErrNonMonotone     = errors.New("succinct: value pushed out of non-decreasing order")
	ErrValueOutOfRange = errors.New("succinct: value is not below the declared universe")
	ErrValueTooWide    = errors.New("succinct: value does not fit in the entry bit width")
	ErrCountMismatch   = errors.New("succinct: pushed value count does not match declared count")
	ErrBuilderFinished = errors.New("succinct: builder is already finished")
	ErrZeroUniverse    = errors.New("succinct: universe is zero but count is nonzero")
	ErrShapeTooLarge   = errors.New("succinct: count and universe exceed the encodable range")
	ErrInvalidBitWidth = errors.New("succinct: bit width exceeds 64")
	ErrInvalidGeometry = errors.New("succinct: invalid rank/select geometry parameters")
)

// Query errors
var (
	ErrIndexOutOfBounds = errors.New("succinct: index out of bounds")
	ErrNotFound         = errors.New("succinct: value not found")
	ErrNoSuccessor      = errors.New("succinct: no stored value at or above threshold")
	ErrNoPredecessor    = errors.New("succinct: no stored value at or below threshold")
	ErrClosed           = errors.New("succinct: sequence is closed")
)

// Format errors
var (
	ErrInvalidMagic     = errors.New("succinct: invalid magic number")
	ErrInvalidVersion   = errors.New("succinct: unsupported version")
	ErrTruncated        = errors.New("succinct: serialized data is truncated")
	ErrCorruptedFormat  = errors.New("succinct: serialized data is internally inconsistent")
	ErrChecksumMismatch = errors.New("succinct: checksum verification failed")
	ErrMisaligned       = errors.New("succinct: byte region is not 8-byte aligned")
)

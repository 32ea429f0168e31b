package succinct

import (
	"math"

	"github.com/zeebo/xxh3"
)

// PreHash64 applies xxHash3-64 to a key, returning a value that always
// fits below a universe bound of math.MaxUint64. The all-ones hash is
// mapped down by one; that perturbs at most one key in 2^64.
//
// Use this function to build a compressed signature set over arbitrary
// keys (strings, URLs, binary blobs): hash every key, sort the signatures,
// and encode them. IndexOf on the result answers membership with a false
// positive rate of about n/2^64 from hash collisions, in roughly
// 66-log2(n) bits per key.
//
// # Usage
//
//	sigs := make([]uint64, len(keys))
//	for i, key := range keys {
//	    sigs[i] = succinct.PreHash64(key)
//	}
//	slices.Sort(sigs)
//	set, err := succinct.Build(ctx, sigs, math.MaxUint64)
//
// Querying must hash the same way:
//
//	if set.Contains(succinct.PreHash64(candidate)) {
//	    // candidate is a member, or a 1-in-2^64 collision
//	}
//
// Duplicate keys produce duplicate signatures; deduplicate before building
// when the set semantics call for it.
func PreHash64(key []byte) uint64 {
	h := xxh3.Hash(key)
	if h == math.MaxUint64 {
		h--
	}
	return h
}

// Package succinct implements compressed data structures for static sets
// and sequences of unsigned integers: bit vectors with constant-time rank
// and select, fixed-width packed arrays, and Elias-Fano encoded monotone
// sequences with order queries.
//
// An Elias-Fano sequence stores n sorted values below a bound u in roughly
// n*(2 + log2(u/n)) bits, close to the information-theoretic minimum, while
// answering Get in constant time and Rank, Successor, and Predecessor in
// near-constant time. Sequences serialize to a checksummed blob that can be
// loaded into memory or queried zero-copy from a memory-mapped file.
//
// # Basic Usage
//
// Encoding a sorted slice:
//
//	ef, err := succinct.Build(ctx, values, universe)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := ef.Get(42)
//	idx, v, err := ef.Successor(1_000_000)
//
// Persisting and querying from disk:
//
//	if err := ef.Store("values.ef"); err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := succinct.Open("values.ef")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	n := m.Rank(1_000_000)
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Public API: eliasfano.go (Get, Rank, Successor, Iterator),
//     eliasfano_builder.go (Builder, Build), eliasfano_parallel.go
//     (segment-parallel Build path), dict.go (interfaces)
//   - Primitives: bitvector.go, compactvector.go, rank.go, select.go,
//     internal/broadword/ (in-word select)
//   - Configuration: options.go (Option, With* functions)
//   - Serialization: format.go (header, footer, layout), writer.go
//     (WriteTo, Store), reader.go (Open, OpenBytes, Load)
//   - Key hashing: prehash.go (PreHash64)
//   - Platform: fallocate_*.go, prefault_*.go, madvise_*.go (OS-specific
//     optimizations)
package succinct

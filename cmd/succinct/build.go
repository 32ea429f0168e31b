package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spaolacci/murmur3"
	"github.com/spf13/cobra"

	"github.com/tamirms/succinct"
)

var (
	buildInput    string
	buildZstd     bool
	buildKeys     bool
	buildCount    uint64
	buildUniverse uint64
	buildThreads  int
	buildSeed     uint64
	buildQuantum  int
	buildNoAux    bool
)

var buildCmd = &cobra.Command{
	Use:   "build <output>",
	Short: "build a sequence file from integers, keys, or synthetic data",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	Run:   runBuild,
}

func runBuild(cmd *cobra.Command, args []string) {
	outPath := args[0]

	if (buildInput == "") == (buildCount == 0) {
		log.Fatal("exactly one of --input and --count is required")
	}

	var (
		values   []uint64
		universe uint64
		err      error
	)
	switch {
	case buildCount > 0:
		if buildUniverse == 0 {
			log.Fatal("--count requires --universe")
		}
		universe = buildUniverse
		values = syntheticValues(buildCount, universe, buildSeed)
	case buildKeys:
		values, err = readKeys(buildInput, buildZstd)
		if err != nil {
			log.Fatal(err)
		}
		universe = math.MaxUint64
	default:
		values, err = readValues(buildInput, buildZstd)
		if err != nil {
			log.Fatal(err)
		}
		universe = buildUniverse
		if universe == 0 && len(values) > 0 {
			last := values[len(values)-1]
			if last == math.MaxUint64 {
				log.Fatal("2^64-1 exceeds the largest representable universe; use --keys to fingerprint")
			}
			universe = last + 1
		}
	}

	opts := []succinct.Option{
		succinct.WithParallelism(buildThreads),
		succinct.WithSelectQuantum(buildQuantum),
		succinct.WithAuxTables(!buildNoAux),
	}

	buildStart := time.Now()
	ef, err := succinct.Build(context.Background(), values, universe, opts...)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	buildDur := time.Since(buildStart)
	progress.Printf("built %d values (universe %d, %d low bits) in %s (%.1f M values/s)",
		ef.Len(), ef.Universe(), ef.BitWidth(), buildDur.Round(time.Millisecond),
		mvaluesPerSec(ef.Len(), buildDur))

	storeStart := time.Now()
	if err := ef.Store(outPath, opts...); err != nil {
		log.Fatalf("store: %v", err)
	}
	info, err := os.Stat(outPath)
	if err != nil {
		log.Fatal(err)
	}
	bits := 0.0
	if ef.Len() > 0 {
		bits = float64(info.Size()) * 8 / float64(ef.Len())
	}
	progress.Printf("wrote %s in %s: %d bytes, %.3f bits/value",
		outPath, time.Since(storeStart).Round(time.Millisecond), info.Size(), bits)
}

// scanLines calls fn for every non-empty line of the input file,
// transparently decompressing zstd when compressed is set.
func scanLines(path string, compressed bool, fn func(lineNo int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer dec.Close()
		r = dec
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(lineNo, sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func readValues(path string, compressed bool) ([]uint64, error) {
	start := time.Now()
	var values []uint64
	err := scanLines(path, compressed, func(lineNo int, line []byte) error {
		v, err := strconv.ParseUint(string(line), 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		values = append(values, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	progress.Printf("read %d values from %s in %s",
		len(values), path, time.Since(start).Round(time.Millisecond))
	return values, nil
}

// readKeys fingerprints each input line with PreHash64 and returns the
// sorted signatures. Membership queries against the result have a false
// positive rate of about n/2^64.
func readKeys(path string, compressed bool) ([]uint64, error) {
	start := time.Now()
	var sigs []uint64
	err := scanLines(path, compressed, func(lineNo int, line []byte) error {
		sigs = append(sigs, succinct.PreHash64(line))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	slices.Sort(sigs)
	progress.Printf("hashed %d keys from %s in %s",
		len(sigs), path, time.Since(start).Round(time.Millisecond))
	return sigs, nil
}

// syntheticValues generates n sorted pseudo-random values in [0, u).
func syntheticValues(n, u, seed uint64) []uint64 {
	start := time.Now()
	values := make([]uint64, n)
	var buf [8]byte
	for i := range values {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		values[i] = murmur3.Sum64WithSeed(buf[:], uint32(seed)) % u
	}
	slices.Sort(values)
	progress.Printf("generated %d synthetic values in %s",
		n, time.Since(start).Round(time.Millisecond))
	return values
}

func mvaluesPerSec(n uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds() / 1e6
}

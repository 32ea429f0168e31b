package main

import (
	"fmt"
	"log"
	"math/rand/v2"
	"runtime"
	"syscall"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/cobra"

	"github.com/tamirms/succinct"
)

var (
	benchQueries int
	benchSeed    uint64
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "measure query latency against a sequence file",
	Args:  cobra.ExactArgs(1),
	Run:   runBench,
}

const benchWarmup = 10000

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

func runBench(cmd *cobra.Command, args []string) {
	m, err := succinct.Open(args[0])
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = m.Close() }()

	n := m.Len()
	u := m.Universe()
	if n == 0 {
		log.Fatal("empty sequence")
	}
	st := m.Stats()
	fmt.Printf("Configuration:\n")
	fmt.Printf("  File:        %s\n", args[0])
	fmt.Printf("  Values:      %d\n", n)
	fmt.Printf("  Universe:    %d\n", u)
	fmt.Printf("  Blob size:   %.1f MB (%.3f bits/value)\n", float64(st.BlobSize)/1e6, st.BitsPerValue)
	fmt.Printf("  Queries:     %d per operation\n", benchQueries)
	fmt.Println()

	rng := rand.New(rand.NewPCG(benchSeed, benchSeed))
	indices := make([]uint64, benchQueries)
	points := make([]uint64, benchQueries)
	for i := range indices {
		indices[i] = rng.Uint64N(n)
		points[i] = rng.Uint64N(u)
	}

	type result struct {
		name string
		hist *hdrhistogram.Histogram
		rate float64
	}
	measure := func(name string, op func(k int)) result {
		for i := 0; i < benchWarmup && i < benchQueries; i++ {
			op(i)
		}
		hist := hdrhistogram.New(1, time.Second.Nanoseconds(), 3)
		start := time.Now()
		for i := 0; i < benchQueries; i++ {
			t0 := time.Now()
			op(i)
			d := time.Since(t0).Nanoseconds()
			_ = hist.RecordValue(min(max(d, 1), time.Second.Nanoseconds()))
		}
		elapsed := time.Since(start)
		progress.Printf("%s: %d queries in %s", name, benchQueries, elapsed.Round(time.Millisecond))
		return result{name: name, hist: hist, rate: float64(benchQueries) / elapsed.Seconds() / 1e6}
	}

	results := []result{
		measure("Get", func(k int) { _, _ = m.Get(indices[k]) }),
		measure("Rank", func(k int) { _ = m.Rank(points[k]) }),
		measure("Successor", func(k int) { _, _, _ = m.Successor(points[k]) }),
		measure("Contains", func(k int) { _ = m.Contains(points[k]) }),
	}

	fmt.Printf("╔══════════════╦══════════╦══════════╦══════════╦══════════╦══════════╗\n")
	fmt.Printf("║ %-12s ║ %8s ║ %8s ║ %8s ║ %8s ║ %8s ║\n",
		"Operation", "p50", "p90", "p99", "p99.9", "Mops/s")
	fmt.Printf("╠══════════════╬══════════╬══════════╬══════════╬══════════╬══════════╣\n")
	for _, r := range results {
		fmt.Printf("║ %-12s ║ %5d ns ║ %5d ns ║ %5d ns ║ %5d ns ║ %8.2f ║\n",
			r.name,
			r.hist.ValueAtPercentile(50),
			r.hist.ValueAtPercentile(90),
			r.hist.ValueAtPercentile(99),
			r.hist.ValueAtPercentile(99.9),
			r.rate)
	}
	fmt.Printf("╚══════════════╩══════════╩══════════╩══════════╩══════════╩══════════╝\n")
	fmt.Printf("Peak RSS: %.1f MB\n", float64(getMaxRSS())/1e6)
}

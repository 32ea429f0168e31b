// Succinct builds, inspects and benchmarks serialized Elias-Fano sequence
// files.
//
// Usage:
//
//	succinct build --input values.txt seq.ef
//	succinct build --count 10000000 --universe 1000000000000 seq.ef
//	succinct stat seq.ef
//	succinct verify seq.ef
//	succinct bench -q 2000000 seq.ef
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

// progress carries status lines to stderr so stdout stays parseable.
var progress = log.New(os.Stderr, "", 0)

var rootCmd = &cobra.Command{
	Use:   "succinct [command] (flags)",
	Short: "build, inspect and benchmark Elias-Fano sequence files",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		buildCmd,
		statCmd,
		verifyCmd,
		benchCmd,
	)

	buildCmd.Flags().StringVarP(
		&buildInput, "input", "i", "",
		"newline-delimited input file: unsigned decimal integers in ascending order")
	buildCmd.Flags().BoolVar(
		&buildZstd, "zstd", false, "input file is zstd-compressed")
	buildCmd.Flags().BoolVar(
		&buildKeys, "keys", false,
		"treat input lines as arbitrary keys: store their sorted 64-bit fingerprints")
	buildCmd.Flags().Uint64VarP(
		&buildCount, "count", "n", 0,
		"generate this many synthetic sorted values instead of reading --input")
	buildCmd.Flags().Uint64VarP(
		&buildUniverse, "universe", "u", 0,
		"exclusive upper bound on values (default: largest input value + 1)")
	buildCmd.Flags().IntVarP(
		&buildThreads, "threads", "t", 1, "parallel build workers")
	buildCmd.Flags().Uint64Var(
		&buildSeed, "seed", 1, "seed for synthetic value generation")
	buildCmd.Flags().IntVar(
		&buildQuantum, "select-quantum", 256,
		"select sampling interval, a power of two (0 disables sampling)")
	buildCmd.Flags().BoolVar(
		&buildNoAux, "no-aux", false,
		"omit the rank/select tables from the output (rebuilt at load time)")

	verifyCmd.Flags().IntVar(
		&verifyProbes, "probes", 1000, "number of sampled positions to cross-check")
	verifyCmd.Flags().Uint64Var(
		&verifySeed, "seed", 1, "probe sampling seed")

	benchCmd.Flags().IntVarP(
		&benchQueries, "queries", "q", 1_000_000, "number of queries per operation")
	benchCmd.Flags().Uint64Var(
		&benchSeed, "seed", 1, "query generation seed")

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}

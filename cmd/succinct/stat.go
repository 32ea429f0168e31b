package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/tamirms/succinct"
)

var statCmd = &cobra.Command{
	Use:   "stat <file>",
	Short: "print the header and space breakdown of a sequence file",
	Args:  cobra.ExactArgs(1),
	Run:   runStat,
}

func runStat(cmd *cobra.Command, args []string) {
	// stat skips the checksum pass; verify is the integrity check.
	m, err := succinct.Open(args[0], succinct.WithChecksumVerify(false))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = m.Close() }()

	st := m.Stats()
	fmt.Printf("File:            %s\n", args[0])
	fmt.Printf("Values:          %d\n", st.Count)
	fmt.Printf("Universe:        %d\n", st.Universe)
	if st.Count > 0 {
		mn, _ := m.Min()
		mx, _ := m.Max()
		fmt.Printf("Range:           [%d, %d]\n", mn, mx)
	}
	fmt.Printf("Low bit width:   %d\n", st.LowBitWidth)
	fmt.Printf("Aux embedded:    %v\n", st.AuxEmbedded)
	fmt.Printf("Bits per value:  %.3f\n", st.BitsPerValue)
	fmt.Printf("Blob size:       %d bytes\n", st.BlobSize)
	fmt.Printf("  low bits:      %d bytes\n", st.LowBytes)
	fmt.Printf("  high bits:     %d bytes\n", st.HighBytes)
	fmt.Printf("  rank index:    %d bytes\n", st.RankBytes)
	fmt.Printf("  select index:  %d bytes\n", st.SelectBytes)
}

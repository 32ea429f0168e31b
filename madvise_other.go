//go:build !linux

package succinct

// madviseRandom is a no-op on non-Linux platforms.
// MADV_RANDOM tuning is Linux-specific here.
func madviseRandom(data []byte) {
	// No-op
}

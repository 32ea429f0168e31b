//go:build linux

package succinct

import "golang.org/x/sys/unix"

// madviseRandom hints to the kernel that the mapping will be accessed at
// random offsets, disabling readahead for it. Applied after opening a
// sequence, where queries touch scattered pages.
// Best-effort: errors are silently ignored.
func madviseRandom(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_RANDOM)
}

//go:build linux

package blockio

import "golang.org/x/sys/unix"

type fder interface {
	Fd() uintptr
}

// adviseSequential asks the kernel for aggressive read-ahead. Files that are
// not backed by a descriptor (fault wrappers, in-memory fakes) are skipped.
func adviseSequential(f any) {
	if d, ok := f.(fder); ok {
		_ = unix.Fadvise(int(d.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	}
}

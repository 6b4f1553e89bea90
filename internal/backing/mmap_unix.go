//go:build unix

package backing

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const mappedKind = Mmap

// mapAnon maps n zeroed bytes that are not backed by any file.
func mapAnon(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func unmapAnon(data []byte) error {
	err := unix.Munmap(data)
	if errors.Is(err, unix.EINVAL) {
		// Already unmapped.
		return nil
	}
	return err
}

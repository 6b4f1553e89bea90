//go:build !unix

package backing

// Without mmap the buffer lives on the Go heap.
const mappedKind = Heap

func mapAnon(n int) ([]byte, error) {
	return allocHeap(n)
}

func unmapAnon([]byte) error { return nil }

// Package backing obtains the single contiguous buffer that a region
// registry slices into arenas, and gives it back in one piece.
package backing

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind selects where a backing buffer lives.
type Kind int

const (
	// Heap buffers are ordinary Go byte slices.
	Heap Kind = iota
	// Mmap buffers are anonymous private mappings outside the Go heap.
	// Platforms without mmap fall back to Heap.
	Mmap
)

var (
	ErrBadSize = errors.New("backing: size must be positive")
	ErrBadKind = errors.New("backing: unknown kind")
)

func (k Kind) String() string {
	switch k {
	case Heap:
		return "heap"
	case Mmap:
		return "mmap"
	default:
		return "unknown"
	}
}

// ParseKind converts "heap" or "mmap" (case-insensitive) to a Kind.
// The empty string selects Heap.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heap":
		return Heap, nil
	case "mmap":
		return Mmap, nil
	default:
		return Heap, errors.Wrapf(ErrBadKind, "%q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k != Heap && k != Mmap {
		return nil, errors.Wrapf(ErrBadKind, "%d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so a Kind can be read
// straight from YAML documents and environment variables.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Buffer is one owned backing allocation.
type Buffer struct {
	data    []byte
	kind    Kind
	release func([]byte) error
}

// Allocate obtains a zeroed buffer of exactly n bytes.
func Allocate(kind Kind, n int) (*Buffer, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrBadSize, "got %d", n)
	}
	switch kind {
	case Heap:
		data, err := allocHeap(n)
		if err != nil {
			return nil, err
		}
		return &Buffer{data: data, kind: Heap, release: releaseHeap}, nil
	case Mmap:
		data, err := mapAnon(n)
		if err != nil {
			return nil, errors.Wrapf(err, "backing: map %d bytes", n)
		}
		return &Buffer{data: data, kind: mappedKind, release: unmapAnon}, nil
	default:
		return nil, errors.Wrapf(ErrBadKind, "%d", int(kind))
	}
}

// Bytes returns the whole buffer, or nil once released.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Kind reports where the buffer actually lives.
func (b *Buffer) Kind() Kind {
	return b.kind
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Release returns the buffer. Subsequent calls are no-ops.
func (b *Buffer) Release() error {
	if b.data == nil {
		return nil
	}
	data := b.data
	b.data = nil
	return b.release(data)
}

// allocHeap turns the runtime's makeslice panic for lengths beyond the
// address space into ErrBadSize.
func allocHeap(n int) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, errors.Wrapf(ErrBadSize, "%d bytes: %v", n, r)
		}
	}()
	return make([]byte, n), nil
}

func releaseHeap([]byte) error { return nil }

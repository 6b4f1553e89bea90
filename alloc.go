package arena

import (
	"math"
	"unsafe"
)

// Typed views over scope allocations. The backing buffer is invisible to
// the garbage collector, so T must not contain Go pointers (no pointers,
// slices, strings, maps, channels, funcs or interfaces).

// Alloc returns a zeroed *T placed in the scope's region, aligned for T.
// ok is false when the region is exhausted. Each successful call opens one
// frame, released by one Free.
func Alloc[T any](s *Scope) (ptr *T, ok bool) {
	var zero T
	b, ok := allocRaw(s, uint64(unsafe.Sizeof(zero)), unsafe.Alignof(zero))
	if !ok {
		return nil, false
	}
	if len(b) == 0 {
		return new(T), true
	}
	clear(b)
	return (*T)(unsafe.Pointer(&b[0])), true
}

// AllocUninitialized is Alloc without zeroing. The contents are whatever a
// previous frame left behind.
func AllocUninitialized[T any](s *Scope) (ptr *T, ok bool) {
	var zero T
	b, ok := allocRaw(s, uint64(unsafe.Sizeof(zero)), unsafe.Alignof(zero))
	if !ok {
		return nil, false
	}
	if len(b) == 0 {
		return new(T), true
	}
	return (*T)(unsafe.Pointer(&b[0])), true
}

// AllocSlice places n elements of T in one frame without initialising them.
// n <= 0 allocates nothing and reports false.
func AllocSlice[T any](s *Scope, n int) ([]T, bool) {
	if n <= 0 {
		return nil, false
	}
	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	if elem != 0 && uint64(n) > math.MaxUint32/elem {
		violate("AllocSlice", s.reg.Name(s.tag), ErrFrameOverflow, "%d elements of %d bytes", n, elem)
	}
	b, ok := allocRaw(s, elem*uint64(n), unsafe.Alignof(zero))
	if !ok {
		return nil, false
	}
	if len(b) == 0 {
		return make([]T, n), true
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), true
}

// AllocSliceZeroed is AllocSlice with the elements zeroed.
func AllocSliceZeroed[T any](s *Scope, n int) ([]T, bool) {
	xs, ok := AllocSlice[T](s, n)
	if ok {
		clear(xs)
	}
	return xs, ok
}

func allocRaw(s *Scope, size uint64, align uintptr) ([]byte, bool) {
	if size > math.MaxUint32 {
		violate("Alloc", s.reg.Name(s.tag), ErrFrameOverflow, "payload of %d bytes", size)
	}
	span, ok := s.Allocate(uint32(size), uint32(align))
	if !ok {
		return nil, false
	}
	return s.Bytes(span), true
}

package arena

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Span locates a payload inside a region: Offset is relative to the region
// base and Len is the requested size.
type Span struct {
	Offset int
	Len    int
}

// End returns the offset one past the payload.
func (s Span) End() int {
	return s.Offset + s.Len
}

// Scope grants exclusive, nested allocation rights to one region for its
// lifetime. Opening a scope makes it the region's active scope; only the
// active scope may Allocate or Free, and scopes must be closed in reverse
// order of opening.
//
// Closing a scope rewinds the region to where it stood when the scope was
// opened, unless the scope was opened with Persist.
type Scope struct {
	reg     *Registry
	tag     Tag
	token   uint64
	parent  uint64
	floor   int
	persist bool
	closed  bool
}

// ScopeOption configures a scope at construction.
type ScopeOption func(*Scope)

// Persist keeps everything allocated through the scope alive after Close.
// The frames then belong to the enclosing scope.
func Persist() ScopeOption {
	return func(s *Scope) {
		s.persist = true
	}
}

// NewScope opens a scope on tag and makes it the region's active scope.
// The previously active scope is suspended until this one is closed.
func (r *Registry) NewScope(tag Tag, opts ...ScopeOption) *Scope {
	rg := r.region(tag, "NewScope")

	rg.tokens++
	s := &Scope{
		reg:    r,
		tag:    tag,
		token:  rg.tokens,
		parent: rg.active,
		floor:  rg.top,
	}
	for _, opt := range opts {
		opt(s)
	}

	rg.active = s.token
	rg.depth++
	return s
}

// WithScope runs fn inside a fresh scope on tag and closes the scope when
// fn returns, including when it panics.
func (r *Registry) WithScope(tag Tag, fn func(*Scope), opts ...ScopeOption) {
	s := r.NewScope(tag, opts...)
	defer s.Close()
	fn(s)
}

// Tag returns the region the scope is bound to.
func (s *Scope) Tag() Tag {
	return s.tag
}

// Persistent reports whether the scope was opened with Persist.
func (s *Scope) Persistent() bool {
	return s.persist
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	return s.closed
}

// Floor returns the region-relative offset the region is rewound to when a
// non-persisting scope closes. Free never moves the region below it.
func (s *Scope) Floor() int {
	rg := s.reg.region(s.tag, "Floor")
	return s.floor - rg.base
}

// Allocated returns the bytes the region has grown by since the scope
// opened, frames of nested persisting scopes included.
func (s *Scope) Allocated() int {
	rg := s.active("Allocated")
	return rg.top - s.floor
}

// active returns the scope's region after checking that the scope may
// mutate it.
func (s *Scope) active(op string) *region {
	if s.closed {
		violate(op, s.reg.Name(s.tag), ErrScopeClosed, "scope %d", s.token)
	}
	rg := s.reg.region(s.tag, op)
	if rg.active != s.token {
		violate(op, rg.name, ErrNotActive, "scope %d used while scope %d is active", s.token, rg.active)
	}
	return rg
}

// Allocate reserves size bytes aligned to alignment, a power of two, and
// returns the payload span. ok is false when the region cannot hold the
// frame; the region is then left untouched.
func (s *Scope) Allocate(size, alignment uint32) (span Span, ok bool) {
	rg := s.active("Allocate")
	if !isPowerOfTwo(alignment) {
		violate("Allocate", rg.name, ErrBadAlignment, "alignment %d", alignment)
	}

	top := rg.top
	padding := alignPadding(s.reg.addr(top), alignment)
	frame := uint64(padding) + uint64(size) + footerSize
	if frame > math.MaxUint32 {
		violate("Allocate", rg.name, ErrFrameOverflow, "size %d alignment %d", size, alignment)
	}

	if uint64(rg.used())+frame > uint64(rg.capacity) {
		s.reg.log.WithFields(logrus.Fields{
			"arena":     rg.name,
			"size":      size,
			"alignment": alignment,
			"free":      rg.capacity - rg.used(),
		}).Debug("arena exhausted")
		return Span{}, false
	}

	rg.top += int(frame)
	putFooter(s.reg.mem, rg.top, uint32(frame))
	if rg.top > rg.peak {
		rg.peak = rg.top
	}

	return Span{Offset: top + int(padding) - rg.base, Len: int(size)}, true
}

// AllocBytes is Allocate returning the payload as a slice, or nil when the
// region is exhausted. The slice's capacity is clipped to its length.
func (s *Scope) AllocBytes(size, alignment uint32) []byte {
	span, ok := s.Allocate(size, alignment)
	if !ok {
		return nil
	}
	return s.Bytes(span)
}

// Free discards the newest frame in the region. Frames must be freed in
// reverse order of allocation and never below the scope's floor.
func (s *Scope) Free() {
	rg := s.active("Free")
	if rg.top-s.floor < footerSize {
		violate("Free", rg.name, ErrUnderflow, "no frame above scope floor")
	}

	size := int(readFooter(s.reg.mem, rg.top))
	if size < footerSize {
		violate("Free", rg.name, ErrCorruptFrame, "frame size %d at offset %d", size, rg.top-rg.base)
	}
	prev := rg.top - size
	if prev < s.floor || prev < rg.base {
		violate("Free", rg.name, ErrUnderflow, "frame of %d bytes crosses floor at offset %d", size, s.floor-rg.base)
	}
	rg.top = prev
}

// Close ends the scope. A non-persisting scope rewinds the region to its
// floor, discarding every frame allocated since it was opened. The
// previously active scope becomes active again in either case.
func (s *Scope) Close() {
	rg := s.active("Close")
	if !s.persist {
		rg.top = s.floor
	}
	rg.active = s.parent
	rg.depth--
	s.closed = true
}

// Bytes returns the payload of span. Spans stay readable after their scope
// closes for as long as the frame has not been rewound.
func (s *Scope) Bytes(span Span) []byte {
	rg := s.reg.region(s.tag, "Bytes")
	if span.Offset < 0 || span.Len < 0 || span.End() > rg.capacity {
		violate("Bytes", rg.name, ErrCorruptFrame, "span [%d,%d) outside region", span.Offset, span.End())
	}
	start := rg.base + span.Offset
	return s.reg.mem[start : start+span.Len : start+span.Len]
}

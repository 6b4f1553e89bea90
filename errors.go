package arena

import (
	"fmt"

	"github.com/pkg/errors"
)

// Returned errors. ErrNotInitialized is also the fault carried by a
// *ViolationError when a region is touched outside Init/Deinit.
var (
	ErrNotInitialized     = errors.New("arena: registry not initialized")
	ErrAlreadyInitialized = errors.New("arena: registry already initialized")
	ErrBacking            = errors.New("arena: backing buffer unavailable")
	ErrInvalidConfig      = errors.New("arena: invalid config")
)

// Stack-discipline faults. These are never returned; they travel inside a
// *ViolationError panic and can be matched with errors.Is after recover.
var (
	ErrUnknownTag    = errors.New("arena: unknown tag")
	ErrNotActive     = errors.New("arena: scope is not the active scope of its region")
	ErrScopeClosed   = errors.New("arena: scope is closed")
	ErrUnderflow     = errors.New("arena: free below scope floor")
	ErrCorruptFrame  = errors.New("arena: corrupt frame footer")
	ErrBadAlignment  = errors.New("arena: alignment is not a power of two")
	ErrFrameOverflow = errors.New("arena: frame size overflows 32-bit footer")
	ErrOpenScopes    = errors.New("arena: scopes still open")
)

// ViolationError describes a misuse of a region that leaves its metadata
// untrustworthy. It is raised with panic, never returned.
type ViolationError struct {
	Op     string // operation that detected the fault
	Arena  string // region name, empty when unknown
	Err    error  // one of the fault sentinels
	Detail string
}

func (e *ViolationError) Error() string {
	msg := e.Err.Error()
	if e.Arena != "" {
		msg = fmt.Sprintf("%s (%s arena, %s)", msg, e.Arena, e.Op)
	} else {
		msg = fmt.Sprintf("%s (%s)", msg, e.Op)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ViolationError) Unwrap() error {
	return e.Err
}

func violate(op, arena string, err error, format string, args ...any) {
	panic(&ViolationError{
		Op:     op,
		Arena:  arena,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	})
}

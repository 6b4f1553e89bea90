package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestRegistry builds and initialises a heap-backed registry that is
// released when the test ends.
func newTestRegistry(t *testing.T, decls ...Declaration) *Registry {
	t.Helper()
	r := NewRegistry(Config{Arenas: decls})
	require.NoError(t, r.Init())
	t.Cleanup(func() {
		if r.Initialized() {
			require.NoError(t, r.Deinit())
		}
	})
	return r
}

// requireViolation runs fn and requires it to panic with a *ViolationError
// matching want.
func requireViolation(t *testing.T, want error, fn func()) *ViolationError {
	t.Helper()
	var got any
	func() {
		defer func() { got = recover() }()
		fn()
	}()
	require.NotNil(t, got, "expected a %v panic", want)
	v, ok := got.(*ViolationError)
	require.True(t, ok, "panic value %T is not *ViolationError: %v", got, got)
	require.ErrorIs(t, v, want)
	return v
}

// checkAccounting asserts the per-region and total accounting identities.
func checkAccounting(t *testing.T, r *Registry) {
	t.Helper()
	used, capacity := 0, 0
	for _, tag := range r.Tags() {
		u, c := r.Used(tag), r.Capacity(tag)
		require.GreaterOrEqual(t, u, 0, "%s used", r.Name(tag))
		require.LessOrEqual(t, u, c, "%s used exceeds capacity", r.Name(tag))
		require.Equal(t, c, u+r.Free(tag), "%s used+free", r.Name(tag))
		used += u
		capacity += c
	}
	require.Equal(t, used, r.TotalUsed())
	require.Equal(t, capacity, r.TotalCapacity())
	require.Equal(t, capacity-used, r.TotalFree())
}

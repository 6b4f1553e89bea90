// Package arena implements a tagged-region, stack-discipline bump allocator.
//
// # Overview
//
// A Registry owns one contiguous buffer, obtained once at Init, and slices
// it into a fixed set of named regions declared in a Config. Memory is
// handed out by Scopes: short-lived handles that bump-allocate frames in
// one region and give everything back in O(1) when closed. This suits
// transient working memory such as recursive algorithms or per-frame
// simulation state:
//
//   - Allocation and release are O(1) and never fragment
//   - Nothing is returned to the system until Deinit
//   - Region sizes are fixed for the lifetime of the registry
//
// # Basic Usage
//
//	reg := arena.NewRegistry(arena.Config{
//		Arenas: []arena.Declaration{{Name: "Scratch", Capacity: 64 * arena.KiB}},
//	})
//	if err := reg.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer reg.Deinit()
//
//	tag, _ := reg.Lookup("Scratch")
//	s := reg.NewScope(tag)
//	defer s.Close() // rewinds the region
//
//	buf := s.AllocBytes(256, 8)
//	v, ok := arena.Alloc[Vec3](s)
//
// # Stack Discipline
//
// Each region keeps a chain of open scopes. Opening a scope makes it the
// region's active scope; closing it reactivates the one it suspended. Only
// the active scope may Allocate or Free, scopes close in reverse order, and
// Free always discards the newest frame. Breaking these rules panics with a
// *ViolationError, because the region's bookkeeping can no longer be
// trusted. Running out of capacity is not a violation: Allocate reports
// ok == false and leaves the region untouched.
//
// # Frame Layout
//
// Every allocation occupies one frame:
//
//	[alignment padding][payload][4-byte frame size]
//
// The trailing size lets Free and Frames walk the region from top to base
// without any side table.
//
// # Persisting Scopes
//
// A scope opened with Persist does not rewind on Close. Its frames stay in
// place and belong to the enclosing scope, which may Free them or discard
// them when it closes in turn.
//
// # Thread Safety
//
// None. A region and its scopes must only be used from one goroutine at a
// time.
package arena

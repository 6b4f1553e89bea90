package arena

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/pavanmanishd/stackarena/internal/backing"
)

// Tag identifies a region. Tags are the indices of the declarations in the
// Config the registry was built from.
type Tag int

// region is one fixed-capacity slice of the registry's backing buffer.
// base, top and peak are offsets into Registry.mem.
type region struct {
	name     string
	base     int
	top      int
	capacity int
	peak     int

	// active is the token of the scope currently allowed to mutate the
	// region, 0 when none is open. tokens only ever increase.
	active uint64
	tokens uint64
	depth  int
}

func (rg *region) used() int {
	return rg.top - rg.base
}

// Registry owns one contiguous backing buffer sliced into tagged regions.
// It is not goroutine-safe: a region must only be touched by one goroutine
// at a time.
type Registry struct {
	cfg     Config
	regions []region
	buf     *backing.Buffer
	mem     []byte
	total   int
	log     *logrus.Entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger routes registry logging to entry.
func WithLogger(entry *logrus.Entry) Option {
	return func(r *Registry) {
		if entry != nil {
			r.log = entry
		}
	}
}

// WithBacking overrides the backing kind named in the config.
func WithBacking(kind backing.Kind) Option {
	return func(r *Registry) {
		r.cfg.Backing = kind
	}
}

// NewRegistry creates a registry for the given layout. No memory is
// obtained until Init.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		cfg: Config{
			Backing: cfg.Backing,
			Arenas:  append([]Declaration(nil), cfg.Arenas...),
		},
		log: discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Init validates the layout, obtains the backing buffer and carves it into
// regions in declaration order. It must be called exactly once before any
// scope is opened.
func (r *Registry) Init() error {
	if r.mem != nil {
		return ErrAlreadyInitialized
	}
	if err := r.cfg.Validate(); err != nil {
		return err
	}

	total := r.cfg.TotalCapacity()
	buf, err := backing.Allocate(r.cfg.Backing, total)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBacking, err)
	}

	regions := make([]region, len(r.cfg.Arenas))
	offset := 0
	for i, d := range r.cfg.Arenas {
		regions[i] = region{
			name:     d.Name,
			base:     offset,
			top:      offset,
			peak:     offset,
			capacity: int(d.Capacity),
		}
		offset += int(d.Capacity)
	}

	r.buf = buf
	r.mem = buf.Bytes()
	r.regions = regions
	r.total = total

	r.log.WithFields(logrus.Fields{
		"arenas":   len(regions),
		"capacity": total,
		"backing":  buf.Kind().String(),
	}).Info("arena registry initialized")
	return nil
}

// Deinit releases the backing buffer. Every scope must have been closed;
// an open scope is a stack-discipline violation and panics.
func (r *Registry) Deinit() error {
	if r.mem == nil {
		return ErrNotInitialized
	}
	for i := range r.regions {
		if rg := &r.regions[i]; rg.active != 0 {
			violate("Deinit", rg.name, ErrOpenScopes, "%d scope(s) open", rg.depth)
		}
	}

	err := r.buf.Release()
	r.buf = nil
	r.mem = nil
	r.regions = nil
	r.total = 0

	if err != nil {
		return fmt.Errorf("arena: release backing buffer: %w", err)
	}
	r.log.Info("arena registry released")
	return nil
}

// Initialized reports whether Init has run and Deinit has not.
func (r *Registry) Initialized() bool {
	return r.mem != nil
}

// Backing reports where the backing buffer lives. Before Init it is the
// kind the layout asks for; afterwards the kind actually obtained.
func (r *Registry) Backing() backing.Kind {
	if r.buf == nil {
		return r.cfg.Backing
	}
	return r.buf.Kind()
}

// Len returns the number of declared regions.
func (r *Registry) Len() int {
	return len(r.cfg.Arenas)
}

// Tags returns every declared tag in order.
func (r *Registry) Tags() []Tag {
	return lo.Times(len(r.cfg.Arenas), func(i int) Tag { return Tag(i) })
}

// Name returns the declared name of tag.
func (r *Registry) Name(tag Tag) string {
	if int(tag) < 0 || int(tag) >= len(r.cfg.Arenas) {
		violate("Name", "", ErrUnknownTag, "tag %d", int(tag))
	}
	return r.cfg.Arenas[tag].Name
}

// Lookup finds the tag declared under name.
func (r *Registry) Lookup(name string) (Tag, bool) {
	_, i, ok := lo.FindIndexOf(r.cfg.Arenas, func(d Declaration) bool { return d.Name == name })
	return Tag(i), ok
}

// Capacity returns the fixed size of the region in bytes.
func (r *Registry) Capacity(tag Tag) int {
	return r.region(tag, "Capacity").capacity
}

// Used returns the bytes currently occupied by open frames, padding and
// footers included.
func (r *Registry) Used(tag Tag) int {
	return r.region(tag, "Used").used()
}

// Free returns Capacity(tag) - Used(tag).
func (r *Registry) Free(tag Tag) int {
	rg := r.region(tag, "Free")
	return rg.capacity - rg.used()
}

// Peak returns the highest Used value the region reached since Init.
func (r *Registry) Peak(tag Tag) int {
	rg := r.region(tag, "Peak")
	return rg.peak - rg.base
}

// Depth returns the number of open scopes on the region.
func (r *Registry) Depth(tag Tag) int {
	return r.region(tag, "Depth").depth
}

// TotalCapacity returns the size of the backing buffer.
func (r *Registry) TotalCapacity() int {
	r.mustInit("TotalCapacity")
	return r.total
}

// TotalUsed sums Used over all regions.
func (r *Registry) TotalUsed() int {
	r.mustInit("TotalUsed")
	return lo.SumBy(r.regions, func(rg region) int { return rg.used() })
}

// TotalFree sums Free over all regions.
func (r *Registry) TotalFree() int {
	r.mustInit("TotalFree")
	return lo.SumBy(r.regions, func(rg region) int { return rg.capacity - rg.used() })
}

func (r *Registry) mustInit(op string) {
	if r.mem == nil {
		violate(op, "", ErrNotInitialized, "registry used outside Init/Deinit")
	}
}

// region resolves tag, panicking on use outside Init/Deinit or with an
// undeclared tag.
func (r *Registry) region(tag Tag, op string) *region {
	r.mustInit(op)
	if int(tag) < 0 || int(tag) >= len(r.regions) {
		violate(op, "", ErrUnknownTag, "tag %d", int(tag))
	}
	return &r.regions[tag]
}

// addr returns the machine address of offset off in the backing buffer.
// Alignment is computed against real addresses so typed views are aligned
// whatever the base alignment of the buffer.
func (r *Registry) addr(off int) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(r.mem))) + uintptr(off)
}

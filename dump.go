package arena

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Frames returns the sizes of the region's open frames, newest first,
// walking the footers from top down to base.
func (r *Registry) Frames(tag Tag) []uint32 {
	rg := r.region(tag, "Frames")
	var frames []uint32
	for top := rg.top; top > rg.base; {
		if top-rg.base < footerSize {
			violate("Frames", rg.name, ErrCorruptFrame, "%d stray bytes at base", top-rg.base)
		}
		size := readFooter(r.mem, top)
		if size < footerSize || top-int(size) < rg.base {
			violate("Frames", rg.name, ErrCorruptFrame, "frame size %d at offset %d", size, top-rg.base)
		}
		frames = append(frames, size)
		top -= int(size)
	}
	return frames
}

// DumpArena writes a human-readable report of the region: name, capacity,
// free and used bytes and the size of every open frame, newest first.
// It does not modify the region.
func (r *Registry) DumpArena(w io.Writer, tag Tag) error {
	rg := r.region(tag, "DumpArena")
	p := message.NewPrinter(language.English)

	var b strings.Builder
	p.Fprintf(&b, "[%s Arena]\n", rg.name)
	p.Fprintf(&b, "Capacity: %d\n", rg.capacity)
	p.Fprintf(&b, "Free: %d\n", rg.capacity-rg.used())
	p.Fprintf(&b, "Used: %d\n", rg.used())
	b.WriteString("Frames:\n")
	for _, size := range r.Frames(tag) {
		p.Fprintf(&b, "    %d\n", size)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Dump writes the report of the scope's region.
func (s *Scope) Dump(w io.Writer) error {
	return s.reg.DumpArena(w, s.tag)
}

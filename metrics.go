package arena

import "github.com/samber/lo"

// RegionMetrics is a point-in-time view of one region.
type RegionMetrics struct {
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`     // Fixed size in bytes
	Used        int     `json:"used"`         // Bytes held by open frames
	Free        int     `json:"free"`         // Capacity - Used
	Peak        int     `json:"peak"`         // Highest Used since Init
	OpenFrames  int     `json:"open_frames"`  // Frames between base and top
	Depth       int     `json:"depth"`        // Open scopes
	Utilization float64 `json:"utilization"` // Used / Capacity (0.0-1.0)
}

// Utilization returns the ratio of used bytes to capacity (0.0 to 1.0).
func (r *Registry) Utilization(tag Tag) float64 {
	rg := r.region(tag, "Utilization")
	return float64(rg.used()) / float64(rg.capacity)
}

// TotalUtilization returns the ratio of used bytes to capacity across all
// regions.
func (r *Registry) TotalUtilization() float64 {
	capacity := r.TotalCapacity()
	if capacity == 0 {
		return 0
	}
	return float64(r.TotalUsed()) / float64(capacity)
}

// Metrics returns a snapshot of the region's statistics.
func (r *Registry) Metrics(tag Tag) RegionMetrics {
	rg := r.region(tag, "Metrics")
	return RegionMetrics{
		Name:        rg.name,
		Capacity:    rg.capacity,
		Used:        rg.used(),
		Free:        rg.capacity - rg.used(),
		Peak:        rg.peak - rg.base,
		OpenFrames:  len(r.Frames(tag)),
		Depth:       rg.depth,
		Utilization: r.Utilization(tag),
	}
}

// Snapshot returns the metrics of every region in tag order.
func (r *Registry) Snapshot() []RegionMetrics {
	r.mustInit("Snapshot")
	return lo.Map(r.Tags(), func(tag Tag, _ int) RegionMetrics {
		return r.Metrics(tag)
	})
}

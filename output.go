package livewall

import (
	"image"
	"sort"
)

// OutputID identifies a connected output for the lifetime of its
// connection. Backends mint IDs from their native identifiers (Wayland
// registry name, RandR CRTC, Win32 monitor handle). An output that
// disconnects and reconnects may receive a new ID.
type OutputID uint64

// Output describes one connected display output in global desktop
// coordinates. Geometry is the output's rectangle within the virtual
// desktop; Scale is the integer scale factor the platform reports
// (1 when unknown).
type Output struct {
	ID       OutputID
	Name     string
	Geometry image.Rectangle
	Scale    int
	Primary  bool
}

// OutputEventKind distinguishes output hotplug events.
type OutputEventKind uint8

const (
	// OutputAdded announces a newly connected output. Info carries its
	// initial geometry when the platform delivers it atomically;
	// otherwise a later OutputChanged fills it in.
	OutputAdded OutputEventKind = iota
	// OutputChanged updates geometry, scale, name or primary flag of a
	// known output.
	OutputChanged
	// OutputRemoved announces disconnection. Only ID is meaningful.
	OutputRemoved
)

// OutputEvent is one hotplug notification from a backend.
type OutputEvent struct {
	Kind OutputEventKind
	Info Output
}

// OutputRegistry tracks the set of connected outputs and their metadata.
// It is a pure bookkeeping structure: backends feed it events, the
// engine queries it. Not safe for concurrent use; the engine owns it.
type OutputRegistry struct {
	outputs map[OutputID]Output
}

// NewOutputRegistry returns an empty registry.
func NewOutputRegistry() *OutputRegistry {
	return &OutputRegistry{outputs: make(map[OutputID]Output)}
}

// Apply folds one hotplug event into the registry. It reports whether
// the registry changed. Change events for unknown outputs are treated
// as additions; removals of unknown outputs are no-ops.
func (r *OutputRegistry) Apply(ev OutputEvent) bool {
	switch ev.Kind {
	case OutputAdded, OutputChanged:
		if ev.Info.Scale <= 0 {
			ev.Info.Scale = 1
		}
		old, ok := r.outputs[ev.Info.ID]
		if ok && old == ev.Info {
			return false
		}
		r.outputs[ev.Info.ID] = ev.Info
		return true
	case OutputRemoved:
		if _, ok := r.outputs[ev.Info.ID]; !ok {
			return false
		}
		delete(r.outputs, ev.Info.ID)
		return true
	}
	return false
}

// Get returns the output with the given ID.
func (r *OutputRegistry) Get(id OutputID) (Output, bool) {
	o, ok := r.outputs[id]
	return o, ok
}

// Len returns the number of connected outputs.
func (r *OutputRegistry) Len() int { return len(r.outputs) }

// List returns all connected outputs in a stable enumeration order:
// ascending position (Y then X), breaking ties by ID. Stable ordering
// makes index-based selection and pointer hit-testing deterministic.
func (r *OutputRegistry) List() []Output {
	out := make([]Output, 0, len(r.outputs))
	for _, o := range r.outputs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Geometry.Min.Y != b.Geometry.Min.Y {
			return a.Geometry.Min.Y < b.Geometry.Min.Y
		}
		if a.Geometry.Min.X != b.Geometry.Min.X {
			return a.Geometry.Min.X < b.Geometry.Min.X
		}
		return a.ID < b.ID
	})
	return out
}

// Primary returns the output flagged primary by the platform, falling
// back to the first output in enumeration order when none is flagged.
func (r *OutputRegistry) Primary() (Output, bool) {
	list := r.List()
	for _, o := range list {
		if o.Primary {
			return o, true
		}
	}
	if len(list) > 0 {
		return list[0], true
	}
	return Output{}, false
}

// OutputAt returns the output whose geometry contains p, in enumeration
// order. When outputs overlap the first match wins.
func (r *OutputRegistry) OutputAt(p Point) (Output, bool) {
	for _, o := range r.List() {
		if p.In(o.Geometry) {
			return o, true
		}
	}
	return Output{}, false
}

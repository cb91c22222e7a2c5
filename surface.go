package livewall

import "image"

// NativeHandle carries just enough platform identity to hand a surface
// to the graphics API: an opaque display/connection pointer and a
// window (or equivalent drawable) identifier. It is a small value type;
// its validity ends the moment a destroy request is issued for the
// surface it names, and it must never be retained or used afterwards.
type NativeHandle struct {
	Display uintptr
	Window  uintptr
}

// SurfaceEntry is the lifecycle record for one native wallpaper surface
// bound to one selected output. Width/Height and OffsetX/OffsetY are
// the negotiated geometry in global desktop coordinates. Ready flips
// true once the backend completes a configuration round-trip reporting
// both dimensions greater than zero.
type SurfaceEntry struct {
	Output  OutputID
	Handle  NativeHandle
	Width   int
	Height  int
	OffsetX int
	OffsetY int
	Ready   bool
}

// Rect returns the entry's rectangle in global desktop coordinates.
func (e SurfaceEntry) Rect() image.Rectangle {
	return image.Rect(e.OffsetX, e.OffsetY, e.OffsetX+e.Width, e.OffsetY+e.Height)
}

// CanvasDescriptor is the ordered surface-entry table plus the
// generation counter that stamps its latest observable change. The
// generation increments on any entry add, remove, resize or reposition
// and never resets while a backend runs.
type CanvasDescriptor struct {
	Entries    []SurfaceEntry
	Generation uint64
}

// SurfaceEventKind distinguishes surface-configuration notifications.
type SurfaceEventKind uint8

const (
	// SurfaceConfigured reports a completed configuration round-trip:
	// negotiated size plus the native handle pair.
	SurfaceConfigured SurfaceEventKind = iota
	// SurfaceLost reports that the native surface is gone and its
	// entry-local presentation state must be discarded.
	SurfaceLost
)

// SurfaceEvent is one surface-configuration notification from a backend.
type SurfaceEvent struct {
	Kind   SurfaceEventKind
	Output OutputID
	Handle NativeHandle
	Width  int
	Height int
}

// SurfaceLifecycle reconciles the surface-entry set against the
// selected outputs with a full three-way diff each tick. It owns the
// bookkeeping; the backend owns the native resources. Not safe for
// concurrent use; the engine owns it.
type SurfaceLifecycle struct {
	entries    []SurfaceEntry
	index      map[OutputID]int
	generation uint64
}

// NewSurfaceLifecycle returns an empty lifecycle manager.
func NewSurfaceLifecycle() *SurfaceLifecycle {
	return &SurfaceLifecycle{index: make(map[OutputID]int)}
}

// SurfaceCreator is the slice of a backend the lifecycle drives:
// surface creation and destruction for one output each.
type SurfaceCreator interface {
	// CreateSurface asks the platform for a non-interactive surface
	// spanning the output's full geometry, stacked below ordinary
	// content. Completion is reported asynchronously via a
	// SurfaceConfigured event; a create request for an output that
	// already has a live native surface is a no-op.
	CreateSurface(out Output) error
	// DestroySurface releases the native resources for the output's
	// surface. The handle passed at configuration time is invalid once
	// this is called.
	DestroySurface(id OutputID) error
}

// Reconcile runs the three-way diff between the selection and the
// current entry set: newly selected outputs get a create request,
// entries whose output is deselected or gone are destroyed and removed,
// entries present on both sides are retained untouched. Repeating the
// diff with an unchanged selection and entry set issues zero actions.
// Create/destroy failures are logged and scoped to their output.
func (l *SurfaceLifecycle) Reconcile(sc SurfaceCreator, reg *OutputRegistry, selected []Output) {
	want := make(map[OutputID]bool, len(selected))
	for _, o := range selected {
		want[o.ID] = true
	}

	// Destroy pass first, so a same-tick deselect+select of different
	// outputs never holds two surface sets at once.
	kept := l.entries[:0]
	for _, e := range l.entries {
		_, exists := reg.Get(e.Output)
		if want[e.Output] && exists {
			kept = append(kept, e)
			continue
		}
		if err := sc.DestroySurface(e.Output); err != nil {
			Logger().Warn("surface destroy failed", "output", e.Output, "error", err)
		}
		l.generation++
	}
	l.entries = kept
	l.rebuildIndex()

	for _, o := range selected {
		if _, ok := l.index[o.ID]; ok {
			continue
		}
		if err := sc.CreateSurface(o); err != nil {
			Logger().Warn("surface create failed", "output", o.ID, "error", err)
			continue
		}
		e := SurfaceEntry{
			Output:  o.ID,
			Width:   o.Geometry.Dx(),
			Height:  o.Geometry.Dy(),
			OffsetX: o.Geometry.Min.X,
			OffsetY: o.Geometry.Min.Y,
		}
		l.index[o.ID] = len(l.entries)
		l.entries = append(l.entries, e)
		l.generation++
	}
}

// ApplySurfaceEvent folds one backend surface notification into the
// entry set. Configuration events for outputs without an entry are
// dropped (the output was deselected while the round-trip was in
// flight). It reports whether the descriptor changed.
func (l *SurfaceLifecycle) ApplySurfaceEvent(ev SurfaceEvent) bool {
	i, ok := l.index[ev.Output]
	if !ok {
		return false
	}
	e := &l.entries[i]
	switch ev.Kind {
	case SurfaceConfigured:
		ready := ev.Width > 0 && ev.Height > 0
		if e.Handle == ev.Handle && e.Width == ev.Width && e.Height == ev.Height && e.Ready == ready {
			return false
		}
		e.Handle = ev.Handle
		e.Width = ev.Width
		e.Height = ev.Height
		e.Ready = ready
		l.generation++
		return true
	case SurfaceLost:
		if !e.Ready {
			return false
		}
		e.Ready = false
		l.generation++
		return true
	}
	return false
}

// ApplyOutputMove updates an entry's desktop offset after an output
// geometry change. Size changes arrive through SurfaceConfigured once
// the backend renegotiates; only the position is taken from the
// registry. Reports whether the descriptor changed.
func (l *SurfaceLifecycle) ApplyOutputMove(o Output) bool {
	i, ok := l.index[o.ID]
	if !ok {
		return false
	}
	e := &l.entries[i]
	if e.OffsetX == o.Geometry.Min.X && e.OffsetY == o.Geometry.Min.Y {
		return false
	}
	e.OffsetX = o.Geometry.Min.X
	e.OffsetY = o.Geometry.Min.Y
	l.generation++
	return true
}

// Descriptor snapshots the current entry table and generation. The
// entry slice is a copy; callers may keep it across ticks.
func (l *SurfaceLifecycle) Descriptor() CanvasDescriptor {
	entries := make([]SurfaceEntry, len(l.entries))
	copy(entries, l.entries)
	return CanvasDescriptor{Entries: entries, Generation: l.generation}
}

// Generation returns the current change counter.
func (l *SurfaceLifecycle) Generation() uint64 { return l.generation }

// Entry returns the entry for the given output.
func (l *SurfaceLifecycle) Entry(id OutputID) (SurfaceEntry, bool) {
	i, ok := l.index[id]
	if !ok {
		return SurfaceEntry{}, false
	}
	return l.entries[i], true
}

// AllReady reports whether every entry is ready and the entry set is
// non-empty. With the All policy the compositor additionally requires
// every known output to have a ready entry before presenting, so a
// partially covered virtual desktop is never shown.
func (l *SurfaceLifecycle) AllReady() bool {
	if len(l.entries) == 0 {
		return false
	}
	for _, e := range l.entries {
		if !e.Ready {
			return false
		}
	}
	return true
}

// OverallBounds returns the tight bounding rectangle over all ready
// entries, the required extent of the shared canvas. The second return
// value is false when no entry is ready.
func OverallBounds(entries []SurfaceEntry) (image.Rectangle, bool) {
	var bounds image.Rectangle
	found := false
	for _, e := range entries {
		if !e.Ready {
			continue
		}
		r := e.Rect()
		if !found {
			bounds = r
			found = true
			continue
		}
		bounds = bounds.Union(r)
	}
	return bounds, found
}

func (l *SurfaceLifecycle) rebuildIndex() {
	for k := range l.index {
		delete(l.index, k)
	}
	for i, e := range l.entries {
		l.index[e.Output] = i
	}
}

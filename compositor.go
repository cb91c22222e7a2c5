package livewall

import (
	"errors"
	"image"

	"github.com/gogpu/livewall/canvas"
)

// entryState is the presentation-surface state one entry carries
// independently of the others: the open native surface and the canvas
// generation its configuration was negotiated against.
type entryState struct {
	surface    PresentSurface
	appliedGen uint64
	configured bool
}

// Compositor owns the shared canvas sizing and the per-entry
// presentation state. It resizes the canvas only when the descriptor
// generation advances and splits one rendered frame across native
// surfaces by cropping at present time. Not safe for concurrent use;
// the engine owns it.
type Compositor struct {
	states     map[OutputID]*entryState
	appliedGen uint64
	haveGen    bool
	bounds     image.Rectangle
	haveBounds bool
}

// NewCompositor returns a compositor with no presentation state.
func NewCompositor() *Compositor {
	return &Compositor{states: make(map[OutputID]*entryState)}
}

// Ready reports whether presentation may proceed. At least one entry
// must be ready; with the All policy every known output must have a
// ready entry so a partially covered virtual desktop is never shown.
func (c *Compositor) Ready(desc CanvasDescriptor, reg *OutputRegistry, policy TargetPolicy) bool {
	ready := make(map[OutputID]bool)
	for _, e := range desc.Entries {
		if e.Ready {
			ready[e.Output] = true
		}
	}
	if len(ready) == 0 {
		return false
	}
	if policy.All() {
		for _, o := range reg.List() {
			if !ready[o.ID] {
				return false
			}
		}
	}
	return true
}

// SyncCanvas resizes the shared image to the overall bounds of the
// ready entries. The generation check makes the per-tick call cheap:
// when the descriptor has not changed since the last applied
// generation nothing is touched. Returns the canvas-space bounds and
// whether any entry is ready.
func (c *Compositor) SyncCanvas(cv *canvas.Canvas, desc CanvasDescriptor) (image.Rectangle, bool, error) {
	if c.haveGen && desc.Generation == c.appliedGen {
		return c.bounds, c.haveBounds, nil
	}
	bounds, ok := OverallBounds(desc.Entries)
	if ok {
		if err := cv.Resize(bounds.Dx(), bounds.Dy()); err != nil {
			return image.Rectangle{}, false, err
		}
	}
	c.bounds = bounds
	c.haveBounds = ok
	c.appliedGen = desc.Generation
	c.haveGen = true
	return bounds, ok, nil
}

// Bounds returns the combined canvas rectangle in desktop coordinates,
// for coordinate-mapping consumers.
func (c *Compositor) Bounds() (image.Rectangle, bool) {
	return c.bounds, c.haveBounds
}

// Present runs the per-tick presentation pass: for every ready entry,
// ensure a configured presentation surface, acquire a drawable, copy
// the entry's crop of the shared image, and present. Faults are scoped
// per output; one entry's failure never disturbs the others.
func (c *Compositor) Present(opener SurfaceOpener, cv *canvas.Canvas, desc CanvasDescriptor) {
	src := cv.RGBA()
	if src == nil {
		return
	}
	shared := src.Rect

	for _, e := range desc.Entries {
		if !e.Ready {
			continue
		}
		if err := c.presentEntry(opener, src, shared, e, desc.Generation); err != nil {
			c.handleEntryError(e.Output, err)
		}
	}
}

func (c *Compositor) presentEntry(opener SurfaceOpener, src *image.RGBA, shared image.Rectangle, e SurfaceEntry, gen uint64) error {
	st, err := c.ensureConfigured(opener, e, gen)
	if err != nil {
		return err
	}

	frame, err := st.surface.Acquire()
	if err != nil {
		return err
	}

	// Crop at local origin (offset − min) clamped to the shared extent.
	x0 := e.OffsetX - c.bounds.Min.X
	y0 := e.OffsetY - c.bounds.Min.Y
	w := min(e.Width, shared.Dx())
	h := min(e.Height, shared.Dy())
	crop := image.Rect(x0, y0, x0+w, y0+h).Intersect(shared)

	if err := frame.Copy(src, crop); err != nil {
		return err
	}
	return frame.Present()
}

// ensureConfigured opens and configures the entry's presentation
// surface on first use and again whenever the canvas generation has
// advanced past the entry's own applied generation.
func (c *Compositor) ensureConfigured(opener SurfaceOpener, e SurfaceEntry, gen uint64) (*entryState, error) {
	st := c.states[e.Output]
	if st != nil && st.configured && st.appliedGen == gen {
		return st, nil
	}
	if st == nil {
		surface, err := opener.OpenPresentSurface(e)
		if err != nil {
			return nil, err
		}
		st = &entryState{surface: surface}
		c.states[e.Output] = st
	}

	caps, err := st.surface.Capabilities()
	if err != nil {
		return nil, err
	}
	cfg, err := ChooseConfig(caps, e.Width, e.Height)
	if err != nil {
		return nil, err
	}
	if err := st.surface.Configure(cfg); err != nil {
		return nil, err
	}
	st.configured = true
	st.appliedGen = gen
	Logger().Info("surface configured",
		"output", e.Output, "width", cfg.Width, "height", cfg.Height,
		"format", cfg.Format, "present", cfg.PresentMode)
	return st, nil
}

// handleEntryError classifies a presentation fault for one output.
// Transient faults keep the state for a retry next tick; recoverable
// resource loss discards entry-local state so it is recreated lazily.
func (c *Compositor) handleEntryError(id OutputID, err error) {
	switch {
	case errors.Is(err, ErrAcquireTimeout):
		Logger().Debug("frame skipped", "output", id, "error", err)
	case errors.Is(err, ErrNoFormats),
		errors.Is(err, ErrSurfaceLost),
		errors.Is(err, ErrSurfaceOutdated),
		errors.Is(err, ErrOutOfMemory):
		Logger().Warn("surface state discarded", "output", id, "error", err)
		c.DropEntry(id)
	default:
		Logger().Warn("present failed", "output", id, "error", err)
	}
}

// DropEntry discards the presentation state for one output, destroying
// its native presentation surface. Called on recoverable resource loss
// and when the lifecycle removes the entry.
func (c *Compositor) DropEntry(id OutputID) {
	st, ok := c.states[id]
	if !ok {
		return
	}
	st.surface.Destroy()
	delete(c.states, id)
}

// Shutdown destroys every presentation surface. The engine calls it
// before closing the backend connection so teardown runs in dependency
// order.
func (c *Compositor) Shutdown() {
	for id, st := range c.states {
		st.surface.Destroy()
		delete(c.states, id)
	}
}

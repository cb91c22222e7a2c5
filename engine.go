package livewall

import (
	"errors"
	"image"

	"github.com/gogpu/livewall/canvas"
)

// Engine owns one backend instance and drives every component from a
// single scheduling context: call Tick repeatedly from one goroutine.
// All state the engine holds (registry, lifecycle, compositor, fused
// pointer) is mutated only inside Tick; the read-only accessors return
// snapshots.
type Engine struct {
	backend    Backend
	policy     TargetPolicy
	registry   *OutputRegistry
	lifecycle  *SurfaceLifecycle
	compositor *Compositor
	fusion     *PointerFusion
	canvas     *canvas.Canvas
	poller     PointerPoller
	pollAdapt  *PointerPollAdapter
	hasSel     bool
	closed     bool
}

// New creates an engine driving the given backend.
func New(b Backend, opts ...Option) (*Engine, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cv, err := canvas.New(1, 1)
	if err != nil {
		return nil, err
	}
	if o.provider != nil {
		cv.SetDeviceProvider(o.provider)
	}
	eng := &Engine{
		backend:    b,
		policy:     o.policy,
		registry:   NewOutputRegistry(),
		lifecycle:  NewSurfaceLifecycle(),
		compositor: NewCompositor(),
		fusion:     &PointerFusion{},
		canvas:     cv,
	}
	if p, ok := b.(PointerPoller); ok {
		eng.poller = p
		eng.pollAdapt = NewPointerPollAdapter()
	}
	Logger().Info("engine created", "backend", b.Name(), "policy", o.policy)
	return eng, nil
}

// Canvas returns the shared wallpaper image handle. Its identity is
// stable for the life of the engine; it is resized only inside Tick at
// generation boundaries.
func (e *Engine) Canvas() *canvas.Canvas { return e.canvas }

// SetTarget replaces the output-selection policy. Effective from the
// next Tick.
func (e *Engine) SetTarget(p TargetPolicy) { e.policy = p }

// Pointer returns the current fused pointer sample. After a backend
// turns fatal the last good sample stays frozen.
func (e *Engine) Pointer() (PointerSample, bool) { return e.fusion.Sample() }

// Bounds returns the combined canvas rectangle in desktop coordinates.
func (e *Engine) Bounds() (image.Rectangle, bool) { return e.compositor.Bounds() }

// Descriptor returns a snapshot of the surface-entry table and its
// generation.
func (e *Engine) Descriptor() CanvasDescriptor { return e.lifecycle.Descriptor() }

// Closed reports whether the backend has turned fatal or Shutdown ran.
func (e *Engine) Closed() bool { return e.closed }

// Tick runs one reconciliation and presentation pass: drain backend
// events, fold output and surface state, diff the surface set against
// the selection, fuse pointer input, then size the canvas and present
// every ready entry. A fatal backend error freezes the engine: Tick
// becomes a no-op and every accessor keeps returning the last good
// state.
func (e *Engine) Tick() error {
	if e.closed {
		return ErrBackendClosed
	}

	wait := !e.compositor.Ready(e.lifecycle.Descriptor(), e.registry, e.policy)
	batch, err := e.backend.Dispatch(wait)
	if err != nil {
		if errors.Is(err, ErrBackendClosed) {
			Logger().Error("backend closed", "backend", e.backend.Name(), "error", err)
			e.closed = true
			return err
		}
		Logger().Warn("dispatch failed", "backend", e.backend.Name(), "error", err)
		return nil
	}

	for _, ev := range batch.Outputs {
		if e.registry.Apply(ev) {
			if ev.Kind == OutputChanged {
				e.lifecycle.ApplyOutputMove(ev.Info)
			}
			Logger().Debug("output event", "kind", ev.Kind, "output", ev.Info.ID)
		}
	}

	if selected, ok := e.policy.Select(e.registry); ok {
		e.dropDeselected(selected)
		e.lifecycle.Reconcile(e.backend, e.registry, selected)
		e.hasSel = true
	} else if e.hasSel {
		Logger().Debug("selection unresolved, keeping previous surfaces")
	}

	for _, ev := range batch.Surfaces {
		if ev.Kind == SurfaceLost {
			e.compositor.DropEntry(ev.Output)
		}
		e.lifecycle.ApplySurfaceEvent(ev)
	}

	if len(batch.Pointer) > 0 {
		for _, ev := range batch.Pointer {
			e.fusion.Apply(e.registry, ev)
		}
	} else if e.poller != nil {
		if st, ok := e.poller.PollPointer(); ok {
			evs := e.pollAdapt.Poll(st)
			for _, ev := range evs {
				e.fusion.Apply(e.registry, ev)
			}
			if len(evs) == 0 {
				e.fusion.Settle()
			}
		} else {
			e.fusion.Settle()
		}
	} else {
		e.fusion.Settle()
	}

	desc := e.lifecycle.Descriptor()
	if !e.compositor.Ready(desc, e.registry, e.policy) {
		return nil
	}
	if _, ok, err := e.compositor.SyncCanvas(e.canvas, desc); err != nil || !ok {
		if err != nil {
			Logger().Warn("canvas sync failed", "error", err)
		}
		return nil
	}
	e.compositor.Present(e.backend, e.canvas, desc)
	return nil
}

// dropDeselected drops presentation state for entries the upcoming
// reconcile will destroy, so native presentation surfaces are released
// before their windows go away.
func (e *Engine) dropDeselected(selected []Output) {
	want := make(map[OutputID]bool, len(selected))
	for _, o := range selected {
		want[o.ID] = true
	}
	for _, entry := range e.lifecycle.Descriptor().Entries {
		_, exists := e.registry.Get(entry.Output)
		if !want[entry.Output] || !exists {
			e.compositor.DropEntry(entry.Output)
		}
	}
}

// Shutdown tears the engine down in dependency order: presentation
// state first, then native surfaces, then the backend connection.
// Safe to call after a fatal backend error and idempotent.
func (e *Engine) Shutdown() error {
	e.compositor.Shutdown()
	for _, entry := range e.lifecycle.Descriptor().Entries {
		if err := e.backend.DestroySurface(entry.Output); err != nil {
			Logger().Warn("surface destroy failed", "output", entry.Output, "error", err)
		}
	}
	err := e.backend.Close()
	e.closed = true
	_ = e.canvas.Close()
	return err
}

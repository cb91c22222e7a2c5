// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package windowed keeps the wallpaper API working when rendering
// into a normal host window instead of the desktop. The host
// application owns the window and feeds window moves, resizes and
// pointer input into the backend; the backend exposes the window as a
// single output whose offset is the window's desktop position, so
// fused pointer positions stay in desktop coordinates.
package windowed

import (
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/livewall"
	"github.com/gogpu/livewall/backend"
)

func init() {
	backend.Register(backend.NameWindowed, func() (livewall.Backend, error) {
		return New(640, 480), nil
	})
}

// WindowID is the single output the backend exposes.
const WindowID livewall.OutputID = 1

// Backend is the windowed fallback backend. Not safe for concurrent
// use; the host feeds events from the same context that ticks the
// engine.
type Backend struct {
	offsetX, offsetY int
	width, height    int

	surfaceLive bool
	present     *presentSurface

	pendingOutputs  []livewall.OutputEvent
	pendingSurfaces []livewall.SurfaceEvent
	pendingPointer  []livewall.RawPointerEvent

	announced bool
	closed    bool

	// FramePresented, when set, receives each presented frame already
	// scaled to the host framebuffer size. The host blits it into its
	// window.
	FramePresented func(*image.RGBA)
}

var _ livewall.Backend = (*Backend)(nil)

// New creates a windowed backend with the window's initial size.
func New(width, height int) *Backend {
	return &Backend{
		width:  max(1, width),
		height: max(1, height),
	}
}

// Name implements livewall.Backend.
func (b *Backend) Name() string { return backend.NameWindowed }

// WindowMoved records a new desktop position for the host window.
func (b *Backend) WindowMoved(x, y int) {
	if x == b.offsetX && y == b.offsetY {
		return
	}
	b.offsetX, b.offsetY = x, y
	b.queueOutputUpdate()
}

// WindowResized records a new host window size.
func (b *Backend) WindowResized(width, height int) {
	width, height = max(1, width), max(1, height)
	if width == b.width && height == b.height {
		return
	}
	b.width, b.height = width, height
	b.queueOutputUpdate()
	if b.surfaceLive {
		b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
			Kind:   livewall.SurfaceConfigured,
			Output: WindowID,
			Width:  width,
			Height: height,
		})
	}
}

// CursorMoved feeds a pointer position in window-local coordinates.
func (b *Backend) CursorMoved(x, y float64) {
	b.pendingPointer = append(b.pendingPointer, livewall.RawPointerEvent{
		Kind:   livewall.RawMotion,
		Output: WindowID,
		Local:  livewall.Point{X: x, Y: y},
	})
}

// MouseButton feeds a button transition at the given window-local
// position.
func (b *Backend) MouseButton(btn livewall.Button, pressed bool, x, y float64) {
	b.pendingPointer = append(b.pendingPointer, livewall.RawPointerEvent{
		Kind:    livewall.RawButton,
		Output:  WindowID,
		Local:   livewall.Point{X: x, Y: y},
		Button:  btn,
		Pressed: pressed,
	})
}

func (b *Backend) queueOutputUpdate() {
	kind := livewall.OutputChanged
	if !b.announced {
		kind = livewall.OutputAdded
	}
	b.pendingOutputs = append(b.pendingOutputs, livewall.OutputEvent{
		Kind: kind,
		Info: b.output(),
	})
}

func (b *Backend) output() livewall.Output {
	return livewall.Output{
		ID:       WindowID,
		Name:     "window",
		Geometry: image.Rect(b.offsetX, b.offsetY, b.offsetX+b.width, b.offsetY+b.height),
		Scale:    1,
		Primary:  true,
	}
}

// Dispatch returns everything the host fed since the last tick.
func (b *Backend) Dispatch(wait bool) (livewall.Events, error) {
	if b.closed {
		return livewall.Events{}, livewall.ErrBackendClosed
	}
	if !b.announced {
		b.pendingOutputs = append([]livewall.OutputEvent{{
			Kind: livewall.OutputAdded,
			Info: b.output(),
		}}, b.pendingOutputs...)
		b.announced = true
	}
	batch := livewall.Events{
		Outputs:  b.pendingOutputs,
		Surfaces: b.pendingSurfaces,
		Pointer:  b.pendingPointer,
	}
	b.pendingOutputs = nil
	b.pendingSurfaces = nil
	b.pendingPointer = nil
	return batch, nil
}

// CreateSurface marks the window surface live. The window already
// exists, so configuration completes immediately.
func (b *Backend) CreateSurface(out livewall.Output) error {
	if b.closed {
		return livewall.ErrBackendClosed
	}
	if b.surfaceLive {
		return nil
	}
	b.surfaceLive = true
	b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
		Kind:   livewall.SurfaceConfigured,
		Output: WindowID,
		Width:  b.width,
		Height: b.height,
	})
	return nil
}

// DestroySurface drops the window surface binding. The host window
// itself stays up.
func (b *Backend) DestroySurface(id livewall.OutputID) error {
	if id != WindowID {
		return nil
	}
	b.surfaceLive = false
	return nil
}

// OpenPresentSurface returns a surface presenting through
// FramePresented.
func (b *Backend) OpenPresentSurface(e livewall.SurfaceEntry) (livewall.PresentSurface, error) {
	if !b.surfaceLive {
		return nil, livewall.ErrSurfaceLost
	}
	b.present = &presentSurface{b: b}
	return b.present, nil
}

// Close stops the backend.
func (b *Backend) Close() error {
	b.closed = true
	return nil
}

// presentSurface hands frames to the host, scaling the crop to the
// live window size when the entry geometry lags a resize.
type presentSurface struct {
	b      *Backend
	width  int
	height int
}

var _ livewall.PresentSurface = (*presentSurface)(nil)

func (s *presentSurface) Capabilities() (livewall.SurfaceCaps, error) {
	return livewall.SurfaceCaps{
		Formats:      []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
		PresentModes: []livewall.PresentMode{livewall.PresentModeFifo},
		AlphaModes:   []livewall.AlphaMode{livewall.AlphaModeOpaque},
	}, nil
}

func (s *presentSurface) Configure(cfg livewall.SurfaceConfig) error {
	s.width = cfg.Width
	s.height = cfg.Height
	return nil
}

func (s *presentSurface) Acquire() (livewall.Frame, error) {
	if s.width == 0 || s.height == 0 {
		return nil, livewall.ErrSurfaceNotConfigured
	}
	if !s.b.surfaceLive {
		return nil, livewall.ErrSurfaceLost
	}
	return &frame{s: s}, nil
}

func (s *presentSurface) Destroy() {
	s.width, s.height = 0, 0
}

type frame struct {
	s   *presentSurface
	out *image.RGBA
}

func (f *frame) Copy(src *image.RGBA, srcRect image.Rectangle) error {
	s := f.s
	dstW, dstH := s.b.width, s.b.height
	f.out = image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	if srcRect.Dx() == dstW && srcRect.Dy() == dstH {
		draw.Draw(f.out, f.out.Bounds(), src, srcRect.Min, draw.Src)
		return nil
	}
	draw.ApproxBiLinear.Scale(f.out, f.out.Bounds(), src, srcRect, draw.Src, nil)
	return nil
}

func (f *frame) Present() error {
	if f.s.b.FramePresented != nil && f.out != nil {
		f.s.b.FramePresented(f.out)
	}
	return nil
}

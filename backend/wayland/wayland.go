// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wayland

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/livewall"
)

// Backend adapts a Session to livewall.Backend. It acks configure
// serials, clamps negotiated sizes to at least one pixel, translates
// pointer focus into output-keyed raw events and treats a layer
// surface Closed event as backend-fatal: when the compositor revokes
// a wallpaper surface there is no renegotiation path.
type Backend struct {
	session Session

	surfaces map[livewall.OutputID]bool
	closed   bool
}

var _ livewall.Backend = (*Backend)(nil)

// New wraps a connected session.
func New(session Session) (*Backend, error) {
	if session == nil {
		return nil, fmt.Errorf("wayland: nil session")
	}
	return &Backend{
		session:  session,
		surfaces: make(map[livewall.OutputID]bool),
	}, nil
}

// Name implements livewall.Backend.
func (b *Backend) Name() string { return "wayland" }

// Dispatch drains the session and maps its events onto the engine
// feeds.
func (b *Backend) Dispatch(wait bool) (livewall.Events, error) {
	if b.closed {
		return livewall.Events{}, livewall.ErrBackendClosed
	}
	evs, err := b.session.Dispatch(wait)
	if err != nil {
		b.closed = true
		return livewall.Events{}, fmt.Errorf("%w: %v", livewall.ErrBackendClosed, err)
	}

	var batch livewall.Events
	for _, ev := range evs {
		switch ev.Kind {
		case EventOutputAdded:
			batch.Outputs = append(batch.Outputs,
				livewall.OutputEvent{Kind: livewall.OutputAdded, Info: ev.Output})
		case EventOutputChanged:
			batch.Outputs = append(batch.Outputs,
				livewall.OutputEvent{Kind: livewall.OutputChanged, Info: ev.Output})
		case EventOutputRemoved:
			batch.Outputs = append(batch.Outputs,
				livewall.OutputEvent{Kind: livewall.OutputRemoved, Info: ev.Output})
		case EventConfigure:
			if !b.surfaces[ev.Output.ID] {
				continue
			}
			if err := b.session.AckConfigure(ev.Output.ID, ev.Serial); err != nil {
				livewall.Logger().Warn("wayland: ack configure failed",
					"output", ev.Output.ID, "error", err)
				continue
			}
			handle, _ := b.session.Handle(ev.Output.ID)
			batch.Surfaces = append(batch.Surfaces, livewall.SurfaceEvent{
				Kind:   livewall.SurfaceConfigured,
				Output: ev.Output.ID,
				Handle: handle,
				Width:  max(1, ev.Width),
				Height: max(1, ev.Height),
			})
		case EventClosed:
			b.closed = true
			return livewall.Events{}, fmt.Errorf("%w: layer surface closed by compositor",
				livewall.ErrBackendClosed)
		case EventPointerMotion:
			batch.Pointer = append(batch.Pointer, livewall.RawPointerEvent{
				Kind:   livewall.RawMotion,
				Output: ev.Output.ID,
				Local:  ev.Local,
			})
		case EventPointerButton:
			batch.Pointer = append(batch.Pointer, livewall.RawPointerEvent{
				Kind:    livewall.RawButton,
				Output:  ev.Output.ID,
				Local:   ev.Local,
				Button:  ev.Button,
				Pressed: ev.Pressed,
			})
		}
	}
	return batch, nil
}

// CreateSurface creates the output's layer surface. No-op for a live
// surface.
func (b *Backend) CreateSurface(out livewall.Output) error {
	if b.closed {
		return livewall.ErrBackendClosed
	}
	if b.surfaces[out.ID] {
		return nil
	}
	if err := b.session.CreateLayerSurface(out); err != nil {
		return fmt.Errorf("wayland: create layer surface: %w", err)
	}
	b.surfaces[out.ID] = true
	return nil
}

// DestroySurface releases the output's layer surface.
func (b *Backend) DestroySurface(id livewall.OutputID) error {
	if !b.surfaces[id] {
		return nil
	}
	delete(b.surfaces, id)
	if err := b.session.DestroyLayerSurface(id); err != nil {
		return fmt.Errorf("wayland: destroy layer surface: %w", err)
	}
	return nil
}

// OpenPresentSurface wraps the output's layer surface for shm
// presentation.
func (b *Backend) OpenPresentSurface(e livewall.SurfaceEntry) (livewall.PresentSurface, error) {
	if !b.surfaces[e.Output] {
		return nil, livewall.ErrSurfaceLost
	}
	return &presentSurface{b: b, out: e.Output}, nil
}

// Close tears down any remaining surfaces and drops the connection.
func (b *Backend) Close() error {
	for id := range b.surfaces {
		_ = b.DestroySurface(id)
	}
	b.closed = true
	return b.session.Close()
}

// presentSurface presents through the session's shm buffers.
type presentSurface struct {
	b      *Backend
	out    livewall.OutputID
	width  int
	height int
}

var _ livewall.PresentSurface = (*presentSurface)(nil)

// Capabilities reports the shm path: xrgb8888 (BGRA in memory),
// commit-on-next-frame semantics, opaque.
func (s *presentSurface) Capabilities() (livewall.SurfaceCaps, error) {
	return livewall.SurfaceCaps{
		Formats:      []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm},
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
	if !s.b.surfaces[s.out] {
		return nil, livewall.ErrSurfaceLost
	}
	buf, err := s.b.session.AcquireBuffer(s.out, s.width, s.height)
	if err != nil {
		return nil, err
	}
	return &frame{buf: buf, width: s.width, height: s.height}, nil
}

func (s *presentSurface) Destroy() {
	s.width, s.height = 0, 0
}

type frame struct {
	buf    Buffer
	width  int
	height int
}

// Copy converts the RGBA crop into the buffer's xrgb8888 rows.
func (f *frame) Copy(src *image.RGBA, srcRect image.Rectangle) error {
	dst := f.buf.Data()
	stride := f.buf.Stride()
	w := min(srcRect.Dx(), f.width)
	h := min(srcRect.Dy(), f.height)
	for y := 0; y < h; y++ {
		srcRow := src.Pix[src.PixOffset(srcRect.Min.X, srcRect.Min.Y+y):]
		dstRow := dst[y*stride:]
		for x := 0; x < w*4; x += 4 {
			dstRow[x+0] = srcRow[x+2]
			dstRow[x+1] = srcRow[x+1]
			dstRow[x+2] = srcRow[x+0]
			dstRow[x+3] = 0xFF
		}
	}
	return nil
}

func (f *frame) Present() error {
	return f.buf.Commit()
}

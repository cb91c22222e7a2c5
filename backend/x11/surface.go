// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/livewall"
)

// PutImage requests are capped at the X11 maximum request length;
// frames are uploaded in row chunks below that cap.
const (
	putImageReqSizeMax   = (1 << 16) * 4
	putImageReqSizeFixed = 28
	putImageReqDataSize  = putImageReqSizeMax - putImageReqSizeFixed
)

// wallWindow is one override-redirect wallpaper window plus its GC.
type wallWindow struct {
	win xproto.Window
	gc  xproto.Gcontext
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}

// CreateSurface creates an override-redirect InputOutput window
// spanning the output's geometry, stacks it below ordinary content and
// maps it. The checked round-trips complete the configuration, so the
// configured event is queued immediately. A second create for a live
// window is a no-op.
func (b *Backend) CreateSurface(out livewall.Output) error {
	if b.closed {
		return livewall.ErrBackendClosed
	}
	if _, ok := b.windows[out.ID]; ok {
		return nil
	}

	win, err := xproto.NewWindowId(b.conn)
	if err != nil {
		return fmt.Errorf("x11: new window id: %w", err)
	}
	gc, err := xproto.NewGcontextId(b.conn)
	if err != nil {
		return fmt.Errorf("x11: new gcontext id: %w", err)
	}

	g := out.Geometry
	// Value list order follows ascending mask bits:
	// CwBackPixel < CwOverrideRedirect < CwEventMask.
	err = xproto.CreateWindowChecked(b.conn, b.screen.RootDepth, win, b.screen.Root,
		int16(g.Min.X), int16(g.Min.Y), uint16(g.Dx()), uint16(g.Dy()), 0,
		xproto.WindowClassInputOutput, b.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			b.screen.BlackPixel,
			1,
			xproto.EventMaskStructureNotify | xproto.EventMaskExposure,
		}).Check()
	if err != nil {
		return fmt.Errorf("x11: create window: %w", err)
	}
	if err := xproto.CreateGCChecked(b.conn, gc, xproto.Drawable(win), 0, nil).Check(); err != nil {
		xproto.DestroyWindow(b.conn, win)
		return fmt.Errorf("x11: create gc: %w", err)
	}
	if err := xproto.ConfigureWindowChecked(b.conn, win,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeBelow}).Check(); err != nil {
		livewall.Logger().Warn("x11: lower window failed", "output", out.ID, "error", err)
	}
	if err := xproto.MapWindowChecked(b.conn, win).Check(); err != nil {
		xproto.FreeGC(b.conn, gc)
		xproto.DestroyWindow(b.conn, win)
		return fmt.Errorf("x11: map window: %w", err)
	}

	b.windows[out.ID] = &wallWindow{win: win, gc: gc}

	// Override-redirect windows keep the size they were created with;
	// the checked create/map round-trips stand in for an asynchronous
	// configure, so report readiness now. A later ConfigureNotify
	// (e.g. after a RandR change) updates the entry.
	b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
		Kind:   livewall.SurfaceConfigured,
		Output: out.ID,
		Handle: livewall.NativeHandle{Window: uintptr(win)},
		Width:  g.Dx(),
		Height: g.Dy(),
	})
	return nil
}

// DestroySurface releases the window and GC for the output. The native
// handle handed out at configure time is invalid afterwards.
func (b *Backend) DestroySurface(id livewall.OutputID) error {
	w, ok := b.windows[id]
	if !ok {
		return nil
	}
	delete(b.windows, id)
	xproto.FreeGC(b.conn, w.gc)
	if err := xproto.DestroyWindowChecked(b.conn, w.win).Check(); err != nil {
		return fmt.Errorf("x11: destroy window: %w", err)
	}
	return nil
}

// OpenPresentSurface wraps the output's window as a presentation
// surface uploading through PutImage.
func (b *Backend) OpenPresentSurface(e livewall.SurfaceEntry) (livewall.PresentSurface, error) {
	w, ok := b.windows[e.Output]
	if !ok {
		return nil, livewall.ErrSurfaceLost
	}
	return &presentSurface{b: b, out: e.Output, win: w}, nil
}

// presentSurface presents into one wallpaper window. X has no
// swapchain, so Acquire returns a frame that converts and uploads
// pixels directly.
type presentSurface struct {
	b      *Backend
	out    livewall.OutputID
	win    *wallWindow
	width  int
	height int
	buf    []byte
}

var _ livewall.PresentSurface = (*presentSurface)(nil)

// Capabilities reports the fixed X11 path: BGRA pixels, vsync-less
// immediate PutImage, opaque compositing.
func (s *presentSurface) Capabilities() (livewall.SurfaceCaps, error) {
	return livewall.SurfaceCaps{
		Formats:      []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm},
		PresentModes: []livewall.PresentMode{livewall.PresentModeImmediate},
		AlphaModes:   []livewall.AlphaMode{livewall.AlphaModeOpaque},
	}, nil
}

func (s *presentSurface) Configure(cfg livewall.SurfaceConfig) error {
	s.width = cfg.Width
	s.height = cfg.Height
	s.buf = make([]byte, s.width*s.height*4)
	return nil
}

func (s *presentSurface) Acquire() (livewall.Frame, error) {
	if s.buf == nil {
		return nil, livewall.ErrSurfaceNotConfigured
	}
	if w, ok := s.b.windows[s.out]; !ok || w != s.win {
		return nil, livewall.ErrSurfaceLost
	}
	return &frame{s: s}, nil
}

func (s *presentSurface) Destroy() {
	s.buf = nil
}

// frame uploads one presented image.
type frame struct {
	s *presentSurface
}

// Copy converts the RGBA crop to BGRA ZPixmap rows in the staging
// buffer.
func (f *frame) Copy(src *image.RGBA, srcRect image.Rectangle) error {
	s := f.s
	w := min(srcRect.Dx(), s.width)
	h := min(srcRect.Dy(), s.height)
	for y := 0; y < h; y++ {
		srcRow := src.Pix[src.PixOffset(srcRect.Min.X, srcRect.Min.Y+y):]
		dstRow := s.buf[y*s.width*4:]
		rgbaToBGRA(dstRow[:w*4], srcRow[:w*4])
	}
	return nil
}

// Present uploads the staging buffer with chunked checked PutImage
// requests, each below the X11 request size cap.
func (f *frame) Present() error {
	s := f.s
	rowsPerReq := putImageReqDataSize / (s.width * 4)
	if rowsPerReq < 1 {
		rowsPerReq = 1
	}
	dstY := 0
	for start := 0; start < len(s.buf); {
		end := start + rowsPerReq*s.width*4
		if end > len(s.buf) {
			end = len(s.buf)
		}
		data := s.buf[start:end]
		rows := len(data) / 4 / s.width
		err := xproto.PutImageChecked(
			s.b.conn, xproto.ImageFormatZPixmap,
			xproto.Drawable(s.win.win), s.win.gc,
			uint16(s.width), uint16(rows),
			0, int16(dstY),
			0, s.b.screen.RootDepth, data).Check()
		if err != nil {
			return fmt.Errorf("x11: put image: %v", err)
		}
		start = end
		dstY += rows
	}
	return nil
}

// rgbaToBGRA swaps the R and B channels row-wise. X ZPixmap data on
// little-endian depth-24 visuals is BGRX in memory.
func rgbaToBGRA(dst, src []byte) {
	n := min(len(dst), len(src))
	for i := 0; i+3 < n; i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
}

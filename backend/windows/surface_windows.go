// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package windows

import (
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/livewall"
)

// CreateSurface creates a child window under WorkerW spanning the
// monitor and shows it without activation. Creation completes the
// configuration round-trip, so the configured event is queued at once.
func (b *Backend) CreateSurface(out livewall.Output) error {
	if b.closed {
		return livewall.ErrBackendClosed
	}
	if _, ok := b.windows[out.ID]; ok {
		return nil
	}

	className, _ := windows.UTF16PtrFromString(wallClassName)
	title, _ := windows.UTF16PtrFromString("livewall")
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		wsPopup,
		0, 0,
		uintptr(out.Geometry.Dx()), uintptr(out.Geometry.Dy()),
		0, 0, b.instance, 0)
	if hwnd == 0 {
		return fmt.Errorf("windows: CreateWindowEx failed: %v", err)
	}

	// Rewriting the style to WS_CHILD before SetParent keeps the
	// window out of the taskbar and alt-tab.
	style, _, _ := procGetWindowLongW.Call(hwnd, gwlStyle)
	newStyle := (uint32(style) &^ (wsPopup | wsOverlapped)) | wsChild
	procSetWindowLongW.Call(hwnd, gwlStyle, uintptr(newStyle))

	parent, _, err := procSetParent.Call(hwnd, b.workerw)
	if parent == 0 {
		procDestroyWindow.Call(hwnd)
		return fmt.Errorf("windows: SetParent failed: %v", err)
	}

	offX, offY := b.virtualDesktopOffset()
	g := out.Geometry
	ok, _, err := procSetWindowPos.Call(hwnd, 0,
		uintptr(int32(g.Min.X+offX)),
		uintptr(int32(g.Min.Y+offY)),
		uintptr(g.Dx()), uintptr(g.Dy()),
		swpNoActivate|swpNoZOrder)
	if ok == 0 {
		procDestroyWindow.Call(hwnd)
		return fmt.Errorf("windows: SetWindowPos failed: %v", err)
	}
	procShowWindow.Call(hwnd, swShowNoActivate)

	b.windows[out.ID] = &wallWindow{hwnd: hwnd, width: g.Dx(), height: g.Dy()}
	b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
		Kind:   livewall.SurfaceConfigured,
		Output: out.ID,
		Handle: livewall.NativeHandle{Window: hwnd},
		Width:  g.Dx(),
		Height: g.Dy(),
	})
	return nil
}

// DestroySurface destroys the output's window.
func (b *Backend) DestroySurface(id livewall.OutputID) error {
	w, ok := b.windows[id]
	if !ok {
		return nil
	}
	delete(b.windows, id)
	ret, _, err := procDestroyWindow.Call(w.hwnd)
	if ret == 0 {
		return fmt.Errorf("windows: DestroyWindow failed: %v", err)
	}
	return nil
}

// OpenPresentSurface wraps the output's window for GDI presentation.
func (b *Backend) OpenPresentSurface(e livewall.SurfaceEntry) (livewall.PresentSurface, error) {
	w, ok := b.windows[e.Output]
	if !ok {
		return nil, livewall.ErrSurfaceLost
	}
	return &presentSurface{b: b, out: e.Output, win: w}, nil
}

// presentSurface presents into one wallpaper window with
// SetDIBitsToDevice. GDI DIBs are BGRA and bottom-up by default; a
// negative header height selects top-down rows to match the canvas.
type presentSurface struct {
	b      *Backend
	out    livewall.OutputID
	win    *wallWindow
	width  int
	height int
	buf    []byte
}

var _ livewall.PresentSurface = (*presentSurface)(nil)

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

type frame struct {
	s *presentSurface
}

func (f *frame) Copy(src *image.RGBA, srcRect image.Rectangle) error {
	s := f.s
	w := srcRect.Dx()
	if w > s.width {
		w = s.width
	}
	h := srcRect.Dy()
	if h > s.height {
		h = s.height
	}
	for y := 0; y < h; y++ {
		srcRow := src.Pix[src.PixOffset(srcRect.Min.X, srcRect.Min.Y+y):]
		dstRow := s.buf[y*s.width*4:]
		for x := 0; x < w*4; x += 4 {
			dstRow[x+0] = srcRow[x+2]
			dstRow[x+1] = srcRow[x+1]
			dstRow[x+2] = srcRow[x+0]
			dstRow[x+3] = srcRow[x+3]
		}
	}
	return nil
}

func (f *frame) Present() error {
	s := f.s
	hdc, _, err := procGetDC.Call(s.win.hwnd)
	if hdc == 0 {
		return fmt.Errorf("windows: GetDC failed: %v", err)
	}
	defer procReleaseDC.Call(s.win.hwnd, hdc)

	bi := bitmapInfo{
		Header: bitmapInfoHeader{
			Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
			Width:       int32(s.width),
			Height:      -int32(s.height),
			Planes:      1,
			BitCount:    32,
			Compression: biRGB,
		},
	}
	ret, _, err := procSetDIBitsToDevice.Call(hdc,
		0, 0,
		uintptr(s.width), uintptr(s.height),
		0, 0,
		0, uintptr(s.height),
		uintptr(unsafe.Pointer(&s.buf[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors)
	if ret == 0 {
		return fmt.Errorf("windows: SetDIBitsToDevice failed: %v", err)
	}
	return nil
}

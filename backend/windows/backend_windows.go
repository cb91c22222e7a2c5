// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package windows

import (
	"fmt"
	"image"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/gogpu/livewall"
	"github.com/gogpu/livewall/backend"
)

func init() {
	backend.Register(backend.NameWindows, func() (livewall.Backend, error) {
		return New()
	})
}

const wallClassName = "livewallWindow"

// Backend is the Windows wallpaper backend. One child window per
// monitor is reparented under the WorkerW window Progman spawns behind
// the desktop icons. Not safe for concurrent use; the engine drives it
// from one scheduling context, which must stay on one OS thread
// because window handles are thread-affine.
type Backend struct {
	workerw   uintptr
	instance  uintptr
	classAtom uint16
	listener  uintptr

	known   map[livewall.OutputID]livewall.Output
	windows map[livewall.OutputID]*wallWindow

	pendingOutputs  []livewall.OutputEvent
	pendingSurfaces []livewall.SurfaceEvent

	outputsDirty bool
	closed       bool
}

type wallWindow struct {
	hwnd   uintptr
	width  int
	height int
}

var _ livewall.Backend = (*Backend)(nil)
var _ livewall.PointerPoller = (*Backend)(nil)

// New locates the WorkerW host window and registers the wallpaper
// window class. Fails when no Progman desktop is running (secure
// desktop, session zero).
func New() (*Backend, error) {
	progmanName, _ := windows.UTF16PtrFromString("Progman")
	progman, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(progmanName)), 0)
	if progman == 0 {
		return nil, fmt.Errorf("windows: Progman not found")
	}

	// Asking Progman to split off a WorkerW behind the icons is the
	// documented-by-folklore wallpaper trick; without it the desktop
	// draws over anything we paint.
	procSendMessageTimeoutW.Call(progman, spawnWorkerWMsg, 0, 0, 0, 1000, 0)

	workerwName, _ := windows.UTF16PtrFromString("WorkerW")
	workerw, _, _ := procFindWindowExW.Call(progman, 0, uintptr(unsafe.Pointer(workerwName)), 0)
	if workerw == 0 {
		return nil, fmt.Errorf("windows: WorkerW not found")
	}

	instance, _, _ := procGetModuleHandleW.Call(0)
	className, _ := windows.UTF16PtrFromString(wallClassName)
	wc := wndClassExW{
		Size:      uint32(unsafe.Sizeof(wndClassExW{})),
		WndProc:   syscall.NewCallback(wallWndProc),
		Instance:  instance,
		ClassName: className,
	}
	atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	if atom == 0 {
		return nil, fmt.Errorf("windows: RegisterClassEx failed: %v", err)
	}

	// WM_DISPLAYCHANGE is broadcast to top-level windows only, and the
	// wallpaper windows become WS_CHILD under WorkerW, so a hidden
	// top-level window keeps the display-change feed alive. Message-only
	// windows do not receive broadcasts either.
	listener, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		0,
		wsPopup,
		0, 0, 0, 0,
		0, 0, instance, 0)
	if listener == 0 {
		return nil, fmt.Errorf("windows: listener window failed: %v", err)
	}

	return &Backend{
		workerw:      workerw,
		instance:     instance,
		classAtom:    uint16(atom),
		listener:     listener,
		known:        make(map[livewall.OutputID]livewall.Output),
		windows:      make(map[livewall.OutputID]*wallWindow),
		outputsDirty: true,
	}, nil
}

// displayDirty is flipped by the window procedure on WM_DISPLAYCHANGE;
// the backend re-enumerates monitors on the next Dispatch. Single
// writer, single reader, same thread.
var displayDirty bool

func wallWndProc(hwnd uintptr, message uint32, wparam, lparam uintptr) uintptr {
	if message == wmDisplayChange {
		displayDirty = true
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, uintptr(message), wparam, lparam)
	return ret
}

// Name implements livewall.Backend.
func (b *Backend) Name() string { return backend.NameWindows }

// Dispatch pumps the thread message queue without blocking and
// refreshes the monitor table when a display change was observed.
func (b *Backend) Dispatch(wait bool) (livewall.Events, error) {
	if b.closed {
		return livewall.Events{}, livewall.ErrBackendClosed
	}

	var m msg
	for {
		ret, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, pmRemove)
		if ret == 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}

	if b.outputsDirty || displayDirty {
		displayDirty = false
		b.outputsDirty = false
		if err := b.refreshOutputs(); err != nil {
			b.closed = true
			return livewall.Events{}, fmt.Errorf("%w: %v", livewall.ErrBackendClosed, err)
		}
	}

	batch := livewall.Events{
		Outputs:  b.pendingOutputs,
		Surfaces: b.pendingSurfaces,
	}
	b.pendingOutputs = nil
	b.pendingSurfaces = nil
	return batch, nil
}

// refreshOutputs enumerates monitors and diffs them against the known
// set. Monitor handles identify outputs; Windows may mint new handles
// after a mode change, which surfaces as remove+add.
func (b *Backend) refreshOutputs() error {
	type mon struct {
		handle  uintptr
		geom    image.Rectangle
		name    string
		primary bool
	}
	var mons []mon

	cb := syscall.NewCallback(func(hMonitor, hdc uintptr, r *rect, lparam uintptr) uintptr {
		var mi monitorInfoExW
		mi.Size = uint32(unsafe.Sizeof(mi))
		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret != 0 {
			mons = append(mons, mon{
				handle: hMonitor,
				geom: image.Rect(int(mi.Monitor.Left), int(mi.Monitor.Top),
					int(mi.Monitor.Right), int(mi.Monitor.Bottom)),
				name:    windows.UTF16ToString(mi.Device[:]),
				primary: mi.Flags&monitorInfoPrimary != 0,
			})
		}
		return 1
	})
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, cb, 0)
	if ret == 0 {
		return fmt.Errorf("windows: EnumDisplayMonitors failed: %v", err)
	}

	current := make(map[livewall.OutputID]livewall.Output, len(mons))
	for _, m := range mons {
		id := livewall.OutputID(m.handle)
		current[id] = livewall.Output{
			ID:       id,
			Name:     m.name,
			Geometry: m.geom,
			Scale:    1,
			Primary:  m.primary,
		}
	}

	events, moved := backend.DiffOutputs(b.known, current)
	b.pendingOutputs = append(b.pendingOutputs, events...)
	b.known = current

	// Chase monitors that kept their handle but changed bounds, or the
	// old window would keep stale geometry. Unlike X11 there is no
	// configure feedback, so the configured event is queued directly.
	for _, id := range moved {
		if w, ok := b.windows[id]; ok {
			b.moveWindow(id, w, current[id].Geometry)
		}
	}
	return nil
}

func (b *Backend) moveWindow(id livewall.OutputID, w *wallWindow, g image.Rectangle) {
	offX, offY := b.virtualDesktopOffset()
	ok, _, err := procSetWindowPos.Call(w.hwnd, 0,
		uintptr(int32(g.Min.X+offX)),
		uintptr(int32(g.Min.Y+offY)),
		uintptr(g.Dx()), uintptr(g.Dy()),
		swpNoActivate|swpNoZOrder)
	if ok == 0 {
		livewall.Logger().Warn("windows window reposition failed",
			"output", id, "error", err)
		return
	}
	w.width = g.Dx()
	w.height = g.Dy()
	b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
		Kind:   livewall.SurfaceConfigured,
		Output: id,
		Handle: livewall.NativeHandle{Window: w.hwnd},
		Width:  g.Dx(),
		Height: g.Dy(),
	})
}

// virtualDesktopOffset compensates for monitors left or above the
// primary: Windows places them at negative desktop coordinates, and
// windows parented under WorkerW are positioned in a space whose
// origin is the top-left of the whole virtual desktop.
func (b *Backend) virtualDesktopOffset() (int, int) {
	minX, minY := 0, 0
	first := true
	for _, o := range b.known {
		if first || o.Geometry.Min.X < minX {
			minX = o.Geometry.Min.X
		}
		if first || o.Geometry.Min.Y < minY {
			minY = o.Geometry.Min.Y
		}
		first = false
	}
	offX, offY := 0, 0
	if minX < 0 {
		offX = -minX
	}
	if minY < 0 {
		offY = -minY
	}
	return offX, offY
}

// Close destroys remaining windows. The WorkerW window belongs to the
// shell and is left alone.
func (b *Backend) Close() error {
	for id := range b.windows {
		_ = b.DestroySurface(id)
	}
	if b.listener != 0 {
		procDestroyWindow.Call(b.listener)
		b.listener = 0
	}
	b.closed = true
	return nil
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package x11 implements the wallpaper backend for X11 desktops. It is
// pure Go over BurntSushi/xgb: outputs come from a RandR CRTC walk,
// wallpaper windows are override-redirect windows stacked below
// ordinary content, presentation is chunked ZPixmap PutImage, and the
// pointer is polled through QueryPointer.
package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/livewall"
	"github.com/gogpu/livewall/backend"
)

func init() {
	backend.Register(backend.NameX11, func() (livewall.Backend, error) {
		return New("")
	})
}

// Backend is the X11 wallpaper backend. Not safe for concurrent use;
// the engine drives it from one scheduling context.
type Backend struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo

	known   map[livewall.OutputID]livewall.Output
	primary randr.Output
	windows map[livewall.OutputID]*wallWindow

	pendingOutputs  []livewall.OutputEvent
	pendingSurfaces []livewall.SurfaceEvent

	outputsDirty bool
	closed       bool
}

var _ livewall.Backend = (*Backend)(nil)
var _ livewall.PointerPoller = (*Backend)(nil)

// New connects to the X display named by display (":0" syntax, empty
// for $DISPLAY) and initializes RandR.
func New(display string) (*Backend, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11: connect failed: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: randr init failed: %w", err)
	}

	b := &Backend{
		conn:         conn,
		screen:       xproto.Setup(conn).DefaultScreen(conn),
		known:        make(map[livewall.OutputID]livewall.Output),
		windows:      make(map[livewall.OutputID]*wallWindow),
		outputsDirty: true,
	}

	// Hotplug notifications keep the CRTC walk off the per-tick path:
	// outputs are re-walked only after a RandR notify.
	err = randr.SelectInputChecked(conn, b.screen.Root,
		randr.NotifyMaskScreenChange|
			randr.NotifyMaskCrtcChange|
			randr.NotifyMaskOutputChange).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("x11: randr select input failed: %w", err)
	}
	return b, nil
}

// Name implements livewall.Backend.
func (b *Backend) Name() string { return backend.NameX11 }

// Dispatch drains all pending X events and returns the tick batch.
// The pointer feed is polled, not pushed, so batches carry no pointer
// events; the engine falls back to PollPointer.
func (b *Backend) Dispatch(wait bool) (livewall.Events, error) {
	if b.closed {
		return livewall.Events{}, livewall.ErrBackendClosed
	}

	for {
		ev, xerr := b.conn.PollForEvent()
		if ev == nil && xerr == nil {
			break
		}
		if xerr != nil {
			livewall.Logger().Debug("x event error", "error", xerr)
			continue
		}
		b.handleEvent(ev)
	}

	if b.outputsDirty {
		if err := b.refreshOutputs(); err != nil {
			b.closed = true
			return livewall.Events{}, fmt.Errorf("%w: %v", livewall.ErrBackendClosed, err)
		}
		b.outputsDirty = false
	}

	batch := livewall.Events{
		Outputs:  b.pendingOutputs,
		Surfaces: b.pendingSurfaces,
	}
	b.pendingOutputs = nil
	b.pendingSurfaces = nil
	return batch, nil
}

func (b *Backend) handleEvent(ev xgb.Event) {
	switch ev := ev.(type) {
	case randr.ScreenChangeNotifyEvent:
		b.outputsDirty = true
	case randr.NotifyEvent:
		b.outputsDirty = true
	case xproto.ConfigureNotifyEvent:
		for id, w := range b.windows {
			if w.win == ev.Window {
				b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
					Kind:   livewall.SurfaceConfigured,
					Output: id,
					Handle: livewall.NativeHandle{Window: uintptr(ev.Window)},
					Width:  int(ev.Width),
					Height: int(ev.Height),
				})
				break
			}
		}
	case xproto.DestroyNotifyEvent:
		for id, w := range b.windows {
			if w.win == ev.Window {
				b.pendingSurfaces = append(b.pendingSurfaces, livewall.SurfaceEvent{
					Kind:   livewall.SurfaceLost,
					Output: id,
				})
				break
			}
		}
	}
}

// refreshOutputs walks the active CRTCs and diffs them against the
// known output set, queueing add/change/remove events.
func (b *Backend) refreshOutputs() error {
	res, err := randr.GetScreenResources(b.conn, b.screen.Root).Reply()
	if err != nil {
		return fmt.Errorf("x11: get screen resources: %v", err)
	}
	var primary randr.Output
	if pr, err := randr.GetOutputPrimary(b.conn, b.screen.Root).Reply(); err == nil {
		primary = pr.Output
	}
	b.primary = primary

	current := make(map[livewall.OutputID]livewall.Output)
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(b.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		id := livewall.OutputID(crtc)
		name := fmt.Sprintf("crtc-%d", crtc)
		isPrimary := false
		for _, out := range info.Outputs {
			if out == primary {
				isPrimary = true
			}
		}
		if oi, err := randr.GetOutputInfo(b.conn, info.Outputs[0], res.ConfigTimestamp).Reply(); err == nil {
			name = string(oi.Name)
		}
		current[id] = livewall.Output{
			ID:      id,
			Name:    name,
			Scale:   1,
			Primary: isPrimary,
			Geometry: rect(int(info.X), int(info.Y),
				int(info.Width), int(info.Height)),
		}
	}

	events, moved := backend.DiffOutputs(b.known, current)
	b.pendingOutputs = append(b.pendingOutputs, events...)
	b.known = current

	// A CRTC that kept its window but changed bounds leaves the window
	// at the old position, so chase it. The resulting ConfigureNotify
	// feeds back through handleEvent as SurfaceConfigured.
	for _, id := range moved {
		if w, ok := b.windows[id]; ok {
			b.moveWindow(w, current[id].Geometry)
		}
	}
	return nil
}

func (b *Backend) moveWindow(w *wallWindow, g image.Rectangle) {
	err := xproto.ConfigureWindowChecked(b.conn, w.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|
			xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(uint16(g.Min.X)),
			uint32(uint16(g.Min.Y)),
			uint32(g.Dx()),
			uint32(g.Dy()),
			xproto.StackModeBelow,
		}).Check()
	if err != nil {
		livewall.Logger().Warn("x11 window reconfigure failed",
			"window", w.win, "error", err)
	}
}

// Close destroys any remaining windows and drops the connection.
func (b *Backend) Close() error {
	for id := range b.windows {
		_ = b.DestroySurface(id)
	}
	b.conn.Close()
	b.closed = true
	return nil
}

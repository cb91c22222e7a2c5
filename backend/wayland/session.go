// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wayland implements the wallpaper backend for Wayland
// compositors that offer the wlr layer-shell protocol. One layer
// surface per selected output sits on the Bottom layer, anchored to
// every edge with an exclusive zone of -1 so panels never push it
// around.
//
// The wire protocol itself is injected as a Session: an adapter over a
// Wayland client connection providing the discovery, configure and
// pointer feeds plus layer-surface and shared-memory buffer
// operations. The backend carries every reconciliation rule and is
// fully testable against a fake session.
package wayland

import "github.com/gogpu/livewall"

// EventKind distinguishes session events.
type EventKind uint8

const (
	// EventOutputAdded announces a wl_output with xdg-output logical
	// geometry already resolved.
	EventOutputAdded EventKind = iota
	// EventOutputChanged updates geometry, scale or name.
	EventOutputChanged
	// EventOutputRemoved announces a wl_output global withdrawal.
	EventOutputRemoved
	// EventConfigure is a zwlr_layer_surface_v1 configure: the serial
	// must be acked before the next commit.
	EventConfigure
	// EventClosed is a zwlr_layer_surface_v1 closed event; the
	// compositor revoked the surface.
	EventClosed
	// EventPointerMotion is a wl_pointer motion in surface-local
	// coordinates, keyed to the output whose surface has pointer focus.
	EventPointerMotion
	// EventPointerButton is a wl_pointer button transition.
	EventPointerButton
)

// Event is one session notification.
type Event struct {
	Kind   EventKind
	Output livewall.Output
	Serial uint32
	Width  int
	Height int

	Local   livewall.Point
	Button  livewall.Button
	Pressed bool
}

// Buffer is one shared-memory frame buffer attached to a layer
// surface. Pixels are wl_shm xrgb8888: BGRA byte order on
// little-endian hosts.
type Buffer interface {
	// Data returns the mapped pixel storage.
	Data() []byte
	// Stride returns the row pitch in bytes.
	Stride() int
	// Commit attaches the buffer, damages the full surface and commits.
	Commit() error
}

// Session is the injected protocol transport. Implementations own the
// Wayland connection, registry globals (compositor, layer shell, shm,
// seat, xdg-output) and all wire objects; the backend above it owns
// every decision. Methods are called from one scheduling context.
type Session interface {
	// Dispatch drains pending protocol events. With wait set it may
	// block once for a bounded time when the queue is empty. A broken
	// connection or a missing required global is a fatal error.
	Dispatch(wait bool) ([]Event, error)

	// CreateLayerSurface creates a wl_surface plus layer surface for
	// the output: layer Bottom, anchored to all four edges, exclusive
	// zone -1, size 0,0 (compositor decides), no keyboard
	// interactivity, then commits. Configure events follow.
	CreateLayerSurface(out livewall.Output) error

	// AckConfigure acknowledges a configure serial for the output's
	// layer surface.
	AckConfigure(id livewall.OutputID, serial uint32) error

	// DestroyLayerSurface releases the layer surface and wl_surface.
	DestroyLayerSurface(id livewall.OutputID) error

	// AcquireBuffer returns a free shm buffer of the given size for
	// the output's surface, creating or resizing the pool as needed.
	// livewall.ErrAcquireTimeout when all buffers are still held by
	// the compositor.
	AcquireBuffer(id livewall.OutputID, width, height int) (Buffer, error)

	// Handle returns the native display/surface pair for the output.
	Handle(id livewall.OutputID) (livewall.NativeHandle, bool)

	// Close disconnects. Surfaces must already be destroyed.
	Close() error
}

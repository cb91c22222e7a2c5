package livewall

import "errors"

// Package errors. Presentation faults fall into three classes:
// transient errors are retried next tick with no state loss, recoverable
// ones discard entry-local surface state and recreate lazily, fatal ones
// freeze the backend.
var (
	// ErrBackendClosed is returned once a backend has reported a fatal
	// condition (connection dropped, required capability absent). The
	// engine stops driving a closed backend; consumers keep seeing the
	// last good pointer sample and canvas descriptor.
	ErrBackendClosed = errors.New("livewall: backend closed")

	// ErrSurfaceLost indicates the native presentation surface is gone
	// (output disconnected mid-frame, compositor revoked the buffer).
	// Recoverable: entry-local surface state is discarded and recreated
	// once geometry is ready again.
	ErrSurfaceLost = errors.New("livewall: surface lost")

	// ErrSurfaceOutdated indicates the surface no longer matches the
	// configured size and must be reconfigured. Recoverable, like
	// ErrSurfaceLost.
	ErrSurfaceOutdated = errors.New("livewall: surface outdated")

	// ErrAcquireTimeout indicates the next drawable was not available in
	// time. Transient: the frame is skipped and presentation retried on a
	// later tick.
	ErrAcquireTimeout = errors.New("livewall: acquire timeout")

	// ErrNoFormats indicates the surface advertised an empty pixel format
	// list. Transient: surface state is discarded and negotiation retried
	// on a later tick.
	ErrNoFormats = errors.New("livewall: surface reported no pixel formats")

	// ErrOutOfMemory indicates surface creation or acquisition failed for
	// lack of memory. Recoverable: entry-local state is discarded.
	ErrOutOfMemory = errors.New("livewall: surface out of memory")

	// ErrSurfaceNotConfigured is returned when a frame is requested from a
	// surface before Configure succeeded.
	ErrSurfaceNotConfigured = errors.New("livewall: surface not configured")

	// ErrNilBackend is returned by New when no backend is supplied.
	ErrNilBackend = errors.New("livewall: nil backend")
)

package livewall

// Events is one per-tick batch drained from a backend: output hotplug,
// surface configuration, and raw pointer events, each in arrival order.
type Events struct {
	Outputs  []OutputEvent
	Surfaces []SurfaceEvent
	Pointer  []RawPointerEvent
}

// Empty reports whether the batch carries no events.
func (e Events) Empty() bool {
	return len(e.Outputs) == 0 && len(e.Surfaces) == 0 && len(e.Pointer) == 0
}

// Backend is the single capability interface every platform adapter
// implements: discover outputs, create and destroy wallpaper surfaces,
// open presentation surfaces, and feed pointer events. All
// reconciliation logic (lifecycle diff, compositor, pointer fusion) is
// written once against this interface in the root package.
//
// A backend's native state has exactly one logical owner; the engine
// calls every method from one scheduling context per tick, so
// implementations need no internal locking.
type Backend interface {
	SurfaceCreator
	SurfaceOpener

	// Name identifies the backend in logs ("x11", "wayland", ...).
	Name() string

	// Dispatch drains pending native events without blocking and
	// returns them as one batch. A backend may take a single bounded
	// blocking wait when the caller reports no pending frame work.
	// A fatal platform error (connection dropped, required capability
	// absent) is returned wrapped in ErrBackendClosed; the engine then
	// stops driving this backend and freezes its last-good state.
	Dispatch(wait bool) (Events, error)

	// Close releases the backend connection. Surfaces must already be
	// destroyed; the engine tears down in dependency order.
	Close() error
}

// PointerPoller is implemented by backends without a push pointer
// stream. When a Dispatch batch carries no pointer events the engine
// polls absolute state once per tick and synthesizes events through
// the polling adapter.
type PointerPoller interface {
	PollPointer() (PointerPollState, bool)
}

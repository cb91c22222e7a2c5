package livewall

import (
	"image"

	"github.com/gogpu/gputypes"
)

// PresentMode selects how presented frames are queued against vblank.
type PresentMode uint8

const (
	// PresentModeFifo is the vsynced fallback every platform offers.
	PresentModeFifo PresentMode = iota
	// PresentModeMailbox replaces the queued frame, low latency.
	PresentModeMailbox
	// PresentModeImmediate presents without vblank waiting.
	PresentModeImmediate
)

// AlphaMode selects how surface alpha composes with the desktop.
type AlphaMode uint8

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModePreMultiplied
	AlphaModePostMultiplied
)

// SurfaceCaps advertises what a native presentation surface supports.
// Slices are in the platform's preference order.
type SurfaceCaps struct {
	Formats      []gputypes.TextureFormat
	PresentModes []PresentMode
	AlphaModes   []AlphaMode
}

// SurfaceConfig is a negotiated surface configuration.
type SurfaceConfig struct {
	Format      gputypes.TextureFormat
	PresentMode PresentMode
	AlphaMode   AlphaMode
	Width       int
	Height      int
}

// PreferredFormat is picked when a surface advertises it. The sRGB
// BGRA variant would be preferred, but gputypes defines no sRGB
// texture formats, so the plain BGRA8Unorm stands in for it.
const PreferredFormat = gputypes.TextureFormatBGRA8Unorm

// ChooseConfig resolves capabilities into one deterministic
// configuration for a surface of the given size: the preferred format
// if advertised else the first, Mailbox or Immediate else Fifo, Opaque
// else the first alpha mode. Dimensions are clamped to at least 1 so a
// zero-sized configure can never be issued. An empty format list is the
// transient ErrNoFormats condition.
func ChooseConfig(caps SurfaceCaps, width, height int) (SurfaceConfig, error) {
	if len(caps.Formats) == 0 {
		return SurfaceConfig{}, ErrNoFormats
	}
	cfg := SurfaceConfig{
		Format:      caps.Formats[0],
		PresentMode: PresentModeFifo,
		AlphaMode:   AlphaModeOpaque,
		Width:       max(1, width),
		Height:      max(1, height),
	}
	for _, f := range caps.Formats {
		if f == PreferredFormat {
			cfg.Format = f
			break
		}
	}
	havePreferred := false
	for _, m := range caps.PresentModes {
		if m == PresentModeMailbox || m == PresentModeImmediate {
			cfg.PresentMode = m
			havePreferred = true
			break
		}
	}
	if !havePreferred {
		cfg.PresentMode = PresentModeFifo
	}
	if len(caps.AlphaModes) > 0 {
		cfg.AlphaMode = caps.AlphaModes[0]
		for _, a := range caps.AlphaModes {
			if a == AlphaModeOpaque {
				cfg.AlphaMode = a
				break
			}
		}
	}
	return cfg, nil
}

// Frame is one acquired drawable of a configured surface. Copy uploads
// the cropped region of the shared canvas; Present submits and queues
// the frame for display. A frame is valid for a single Copy/Present
// pair within the tick that acquired it.
type Frame interface {
	// Copy uploads src pixels from srcRect into the drawable. src holds
	// the full shared canvas; srcRect is the entry's crop in canvas
	// coordinates, already clamped by the compositor.
	Copy(src *image.RGBA, srcRect image.Rectangle) error
	// Present submits the frame.
	Present() error
}

// PresentSurface is the native presentation surface behind one entry.
// Implementations wrap whatever the platform offers (shm pool, X
// pixmap, GDI device context). Errors are classified with the package
// sentinels so the compositor can scope recovery per output:
// ErrAcquireTimeout and ErrNoFormats are retried, ErrSurfaceLost,
// ErrSurfaceOutdated and ErrOutOfMemory discard entry-local state,
// ErrBackendClosed freezes the backend.
type PresentSurface interface {
	Capabilities() (SurfaceCaps, error)
	Configure(SurfaceConfig) error
	Acquire() (Frame, error)
	Destroy()
}

// SurfaceOpener is the slice of a backend that turns a configured
// entry's native handle into a presentation surface.
type SurfaceOpener interface {
	OpenPresentSurface(e SurfaceEntry) (PresentSurface, error)
}

// Package livewall puts live, animated content on the desktop background.
//
// # Overview
//
// livewall is the surface-compositing layer between a 2D renderer (such as
// gogpu/gg) and the desktop of the running platform. It discovers physical
// outputs, keeps one native wallpaper surface per selected output, sizes a
// single shared off-screen canvas to the bounding rectangle of those
// surfaces, and presents cropped regions of that canvas to each surface
// every tick. Raw pointer events arriving in per-output coordinates are
// fused into one global pointer sample.
//
// livewall renders nothing itself: the host draws into the shared canvas
// (see the canvas package) and livewall moves pixels to the screen.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/livewall"
//	    "github.com/gogpu/livewall/backend"
//	    _ "github.com/gogpu/livewall/backend/x11"
//	)
//
//	b, err := backend.Default()
//	if err != nil { ... }
//	eng, err := livewall.New(b, livewall.WithTarget(livewall.TargetAll()))
//	if err != nil { ... }
//	defer eng.Shutdown()
//
//	for running {
//	    eng.Canvas().Draw(func(dc *gg.Context) { ... })
//	    eng.Tick()
//	}
//
// # Architecture
//
// The library is organized into:
//   - Public API: Engine, Output, TargetPolicy, PointerSample, Backend
//   - canvas: the shared off-screen image the renderer draws into
//   - backend: platform backend registry
//   - backend/x11, backend/wayland, backend/windows, backend/windowed:
//     one adapter per platform surface model
//
// All reconciliation logic (surface lifecycle, canvas compositing, pointer
// fusion) lives in this package and is written once against the Backend
// interface; platform packages only translate native feeds.
package livewall

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command livewalldemo renders an animated wallpaper onto the desktop
// background. It picks the best available platform backend, targets
// the primary output by default and reacts to the desktop pointer.
package main

import (
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gogpu/gg"

	"github.com/gogpu/livewall"
	"github.com/gogpu/livewall/backend"
	_ "github.com/gogpu/livewall/backend/windowed"
	_ "github.com/gogpu/livewall/backend/windows"
	_ "github.com/gogpu/livewall/backend/x11"
)

func main() {
	var (
		backendName = flag.String("backend", "", "backend name (empty picks the best available)")
		target      = flag.String("target", "primary", "target outputs: primary, all, or an index")
		fps         = flag.Int("fps", 30, "frames per second")
	)
	flag.Parse()

	policy, err := parseTarget(*target)
	if err != nil {
		log.Fatalf("Invalid -target: %v", err)
	}

	var b livewall.Backend
	if *backendName != "" {
		b, err = backend.Get(*backendName)
	} else {
		b, err = backend.Default()
	}
	if err != nil {
		log.Fatalf("No backend: %v", err)
	}

	eng, err := livewall.New(b, livewall.WithTarget(policy))
	if err != nil {
		log.Fatalf("Engine: %v", err)
	}
	defer func() {
		if err := eng.Shutdown(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()
	log.Printf("Wallpaper running on %s backend", b.Name())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(max(1, *fps)))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-sig:
			log.Println("Stopping")
			return
		case <-ticker.C:
		}

		if err := eng.Tick(); err != nil {
			log.Printf("Backend gone: %v", err)
			return
		}

		elapsed := time.Since(start).Seconds()
		pointer, hasPointer := eng.Pointer()
		bounds, hasBounds := eng.Bounds()
		if !hasBounds {
			continue
		}

		err := eng.Canvas().Draw(func(dc *gg.Context) {
			w := float64(bounds.Dx())
			h := float64(bounds.Dy())
			drawBackground(dc, w, h, elapsed)
			drawOrbits(dc, w, h, elapsed)
			if hasPointer {
				// Pointer positions are in desktop coordinates; the
				// canvas origin sits at the bounds minimum.
				x := pointer.Position.X - float64(bounds.Min.X)
				y := pointer.Position.Y - float64(bounds.Min.Y)
				drawCursorGlow(dc, x, y, pointer.Pressed != 0)
			}
		})
		if err != nil {
			log.Printf("Draw: %v", err)
			return
		}
	}
}

func parseTarget(s string) (livewall.TargetPolicy, error) {
	switch s {
	case "primary":
		return livewall.TargetPrimary(), nil
	case "all":
		return livewall.TargetAll(), nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return livewall.TargetPolicy{}, err
	}
	return livewall.TargetByIndex(i), nil
}

func drawBackground(dc *gg.Context, w, h, t float64) {
	steps := 64
	for i := 0; i < steps; i++ {
		f := float64(i) / float64(steps)
		shift := 0.1 * math.Sin(t/4+f*math.Pi)
		dc.SetRGB(0.05+shift, 0.08+f*0.15, 0.2+f*0.25)
		y := h * f
		dc.DrawRectangle(0, y, w, h/float64(steps)+1)
		_ = dc.Fill()
	}
}

func drawOrbits(dc *gg.Context, w, h, t float64) {
	cx, cy := w/2, h/2
	r := math.Min(w, h) / 3
	for i := 0; i < 5; i++ {
		phase := t*0.5 + float64(i)*2*math.Pi/5
		x := cx + r*math.Cos(phase)
		y := cy + r*math.Sin(phase)*0.6
		dc.SetRGBA(0.9, 0.6+0.08*float64(i), 0.2, 0.85)
		dc.DrawCircle(x, y, 18+6*math.Sin(t+float64(i)))
		_ = dc.Fill()
	}
}

func drawCursorGlow(dc *gg.Context, x, y float64, pressed bool) {
	radius := 40.0
	if pressed {
		radius = 70.0
	}
	dc.SetRGBA(1, 1, 1, 0.25)
	dc.DrawCircle(x, y, radius)
	_ = dc.Fill()
	dc.SetRGBA(1, 1, 1, 0.6)
	dc.DrawCircle(x, y, 6)
	_ = dc.Fill()
}

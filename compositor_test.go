package livewall

import (
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/livewall/canvas"
)

// fakeSurface records configuration and presented crops.
type fakeSurface struct {
	caps       SurfaceCaps
	capsErr    error
	acquireErr error
	configs    []SurfaceConfig
	crops      []image.Rectangle
	presented  int
	destroyed  bool
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		caps: SurfaceCaps{
			Formats:      []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm},
			PresentModes: []PresentMode{PresentModeFifo},
			AlphaModes:   []AlphaMode{AlphaModeOpaque},
		},
	}
}

func (f *fakeSurface) Capabilities() (SurfaceCaps, error) {
	if f.capsErr != nil {
		return SurfaceCaps{}, f.capsErr
	}
	return f.caps, nil
}

func (f *fakeSurface) Configure(cfg SurfaceConfig) error {
	f.configs = append(f.configs, cfg)
	return nil
}

func (f *fakeSurface) Acquire() (Frame, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &fakeFrame{s: f}, nil
}

func (f *fakeSurface) Destroy() { f.destroyed = true }

type fakeFrame struct {
	s *fakeSurface
}

func (f *fakeFrame) Copy(src *image.RGBA, srcRect image.Rectangle) error {
	f.s.crops = append(f.s.crops, srcRect)
	return nil
}

func (f *fakeFrame) Present() error {
	f.s.presented++
	return nil
}

// fakeOpener hands out one fake surface per output.
type fakeOpener struct {
	surfaces map[OutputID]*fakeSurface
	opened   int
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{surfaces: make(map[OutputID]*fakeSurface)}
}

func (f *fakeOpener) OpenPresentSurface(e SurfaceEntry) (PresentSurface, error) {
	f.opened++
	s, ok := f.surfaces[e.Output]
	if !ok {
		s = newFakeSurface()
		f.surfaces[e.Output] = s
	}
	return s, nil
}

func mustCanvas(t *testing.T) *canvas.Canvas {
	t.Helper()
	cv, err := canvas.New(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	return cv
}

func readyDesc(gen uint64, entries ...SurfaceEntry) CanvasDescriptor {
	return CanvasDescriptor{Entries: entries, Generation: gen}
}

func TestCompositor_ReadyAllGate(t *testing.T) {
	reg := regWith(
		Output{ID: 1, Geometry: image.Rect(0, 0, 100, 100)},
		Output{ID: 2, Geometry: image.Rect(100, 0, 200, 100)},
	)
	c := NewCompositor()
	desc := readyDesc(1,
		SurfaceEntry{Output: 1, Width: 100, Height: 100, Ready: true},
		SurfaceEntry{Output: 2, Width: 100, Height: 100, OffsetX: 100},
	)

	if c.Ready(desc, reg, TargetAll()) {
		t.Error("All policy ready with one of two outputs configured")
	}
	if !c.Ready(desc, reg, TargetByIndex(0)) {
		t.Error("single-output policy should be ready when its entry is")
	}

	desc.Entries[1].Ready = true
	if !c.Ready(desc, reg, TargetAll()) {
		t.Error("All policy not ready with every output configured")
	}
}

func TestCompositor_ReadyNeedsAnEntry(t *testing.T) {
	reg := regWith(Output{ID: 1, Geometry: image.Rect(0, 0, 100, 100)})
	c := NewCompositor()
	if c.Ready(readyDesc(0), reg, TargetPrimary()) {
		t.Error("ready with no entries")
	}
}

func TestCompositor_SyncCanvasGenerationNoop(t *testing.T) {
	c := NewCompositor()
	cv := mustCanvas(t)
	defer cv.Close()

	desc := readyDesc(1, SurfaceEntry{Output: 1, Width: 320, Height: 200, Ready: true})
	bounds, ok, err := c.SyncCanvas(cv, desc)
	if err != nil || !ok {
		t.Fatalf("SyncCanvas: %v %v", ok, err)
	}
	if bounds != image.Rect(0, 0, 320, 200) {
		t.Errorf("bounds = %v", bounds)
	}
	if w, h := cv.Size(); w != 320 || h != 200 {
		t.Errorf("canvas size = %dx%d, want 320x200", w, h)
	}

	// Same generation: the canvas is not touched even if the entries
	// differ.
	desc2 := readyDesc(1, SurfaceEntry{Output: 1, Width: 9999, Height: 9999, Ready: true})
	if _, _, err := c.SyncCanvas(cv, desc2); err != nil {
		t.Fatal(err)
	}
	if w, h := cv.Size(); w != 320 || h != 200 {
		t.Errorf("canvas resized on unchanged generation: %dx%d", w, h)
	}
}

func TestCompositor_PresentCrops(t *testing.T) {
	c := NewCompositor()
	cv := mustCanvas(t)
	defer cv.Close()
	opener := newFakeOpener()

	desc := readyDesc(1,
		SurfaceEntry{Output: 1, OffsetX: -100, OffsetY: 0, Width: 100, Height: 100, Ready: true},
		SurfaceEntry{Output: 2, OffsetX: 0, OffsetY: 0, Width: 200, Height: 100, Ready: true},
	)
	if _, _, err := c.SyncCanvas(cv, desc); err != nil {
		t.Fatal(err)
	}
	c.Present(opener, cv, desc)

	// Shared image spans (-100,0)-(200,100): 300x100. Entry 1 crops at
	// local origin (0,0), entry 2 at (100,0).
	s1 := opener.surfaces[1]
	if len(s1.crops) != 1 || s1.crops[0] != image.Rect(0, 0, 100, 100) {
		t.Errorf("entry 1 crop = %v, want (0,0)-(100,100)", s1.crops)
	}
	s2 := opener.surfaces[2]
	if len(s2.crops) != 1 || s2.crops[0] != image.Rect(100, 0, 300, 100) {
		t.Errorf("entry 2 crop = %v, want (100,0)-(300,100)", s2.crops)
	}
	if s1.presented != 1 || s2.presented != 1 {
		t.Errorf("presented = %d,%d, want 1,1", s1.presented, s2.presented)
	}
}

func TestCompositor_ReconfigureOnlyOnGenerationAdvance(t *testing.T) {
	c := NewCompositor()
	cv := mustCanvas(t)
	defer cv.Close()
	opener := newFakeOpener()

	desc := readyDesc(1, SurfaceEntry{Output: 1, Width: 100, Height: 100, Ready: true})
	c.SyncCanvas(cv, desc)
	c.Present(opener, cv, desc)
	c.Present(opener, cv, desc)

	s := opener.surfaces[1]
	if len(s.configs) != 1 {
		t.Errorf("configured %d times across unchanged ticks, want 1", len(s.configs))
	}

	desc.Generation = 2
	c.SyncCanvas(cv, desc)
	c.Present(opener, cv, desc)
	if len(s.configs) != 2 {
		t.Errorf("configured %d times after generation bump, want 2", len(s.configs))
	}
	if opener.opened != 1 {
		t.Errorf("surface opened %d times, want 1", opener.opened)
	}
}

func TestCompositor_ErrorScoping(t *testing.T) {
	c := NewCompositor()
	cv := mustCanvas(t)
	defer cv.Close()
	opener := newFakeOpener()

	failing := newFakeSurface()
	failing.acquireErr = ErrSurfaceLost
	opener.surfaces[1] = failing

	desc := readyDesc(1,
		SurfaceEntry{Output: 1, Width: 100, Height: 100, Ready: true},
		SurfaceEntry{Output: 2, OffsetX: 100, Width: 100, Height: 100, Ready: true},
	)
	c.SyncCanvas(cv, desc)
	c.Present(opener, cv, desc)

	if !failing.destroyed {
		t.Error("lost surface state not discarded")
	}
	if opener.surfaces[2].presented != 1 {
		t.Error("healthy output disturbed by the faulty one")
	}

	// The dropped entry is recreated lazily on the next pass.
	opener.surfaces[1] = newFakeSurface()
	c.Present(opener, cv, desc)
	if opener.surfaces[1].presented != 1 {
		t.Error("entry not recreated after recoverable loss")
	}
}

func TestCompositor_AcquireTimeoutKeepsState(t *testing.T) {
	c := NewCompositor()
	cv := mustCanvas(t)
	defer cv.Close()
	opener := newFakeOpener()

	s := newFakeSurface()
	s.acquireErr = ErrAcquireTimeout
	opener.surfaces[1] = s

	desc := readyDesc(1, SurfaceEntry{Output: 1, Width: 100, Height: 100, Ready: true})
	c.SyncCanvas(cv, desc)
	c.Present(opener, cv, desc)

	if s.destroyed {
		t.Error("transient acquire timeout discarded surface state")
	}

	s.acquireErr = nil
	c.Present(opener, cv, desc)
	if s.presented != 1 {
		t.Error("frame not presented after transient fault cleared")
	}
	if opener.opened != 1 {
		t.Errorf("surface reopened after transient fault: opened %d times", opener.opened)
	}
}

package livewall

import (
	"image"
	"testing"
)

// fakeCreator counts lifecycle actions.
type fakeCreator struct {
	created   []OutputID
	destroyed []OutputID
	createErr error
}

func (f *fakeCreator) CreateSurface(out Output) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, out.ID)
	return nil
}

func (f *fakeCreator) DestroySurface(id OutputID) error {
	f.destroyed = append(f.destroyed, id)
	return nil
}

func TestSurfaceLifecycle_DiffIdempotent(t *testing.T) {
	reg := regWith(
		Output{ID: 1, Geometry: image.Rect(0, 0, 1920, 1080)},
		Output{ID: 2, Geometry: image.Rect(1920, 0, 3840, 1080)},
	)
	l := NewSurfaceLifecycle()
	fc := &fakeCreator{}
	selected, _ := TargetAll().Select(reg)

	l.Reconcile(fc, reg, selected)
	if len(fc.created) != 2 || len(fc.destroyed) != 0 {
		t.Fatalf("first diff: created=%d destroyed=%d, want 2/0", len(fc.created), len(fc.destroyed))
	}

	gen := l.Generation()
	fc.created, fc.destroyed = nil, nil
	l.Reconcile(fc, reg, selected)
	if len(fc.created) != 0 || len(fc.destroyed) != 0 {
		t.Errorf("second diff issued %d creates, %d destroys; want none",
			len(fc.created), len(fc.destroyed))
	}
	if l.Generation() != gen {
		t.Errorf("generation moved on a no-op diff: %d -> %d", gen, l.Generation())
	}
}

func TestSurfaceLifecycle_DestroyOnDeselect(t *testing.T) {
	reg := regWith(
		Output{ID: 1, Geometry: image.Rect(0, 0, 100, 100)},
		Output{ID: 2, Geometry: image.Rect(100, 0, 200, 100)},
	)
	l := NewSurfaceLifecycle()
	fc := &fakeCreator{}

	all, _ := TargetAll().Select(reg)
	l.Reconcile(fc, reg, all)

	one, _ := TargetByIndex(0).Select(reg)
	fc.created, fc.destroyed = nil, nil
	l.Reconcile(fc, reg, one)
	if len(fc.destroyed) != 1 || fc.destroyed[0] != 2 {
		t.Errorf("destroyed = %v, want [2]", fc.destroyed)
	}
	if _, ok := l.Entry(2); ok {
		t.Error("entry 2 survived deselection")
	}
	if _, ok := l.Entry(1); !ok {
		t.Error("entry 1 should be retained")
	}
}

func TestSurfaceLifecycle_DestroyOnOutputLoss(t *testing.T) {
	reg := regWith(
		Output{ID: 1, Geometry: image.Rect(0, 0, 100, 100)},
		Output{ID: 2, Geometry: image.Rect(100, 0, 200, 100)},
	)
	l := NewSurfaceLifecycle()
	fc := &fakeCreator{}
	all, _ := TargetAll().Select(reg)
	l.Reconcile(fc, reg, all)

	reg.Apply(OutputEvent{Kind: OutputRemoved, Info: Output{ID: 2}})
	all, _ = TargetAll().Select(reg)
	fc.destroyed = nil
	l.Reconcile(fc, reg, all)
	if len(fc.destroyed) != 1 || fc.destroyed[0] != 2 {
		t.Errorf("destroyed = %v, want [2]", fc.destroyed)
	}
}

func TestSurfaceLifecycle_GenerationMonotonic(t *testing.T) {
	reg := regWith(Output{ID: 1, Geometry: image.Rect(0, 0, 100, 100)})
	l := NewSurfaceLifecycle()
	fc := &fakeCreator{}
	sel, _ := TargetPrimary().Select(reg)

	var gens []uint64
	record := func() {
		g := l.Generation()
		if len(gens) > 0 && g <= gens[len(gens)-1] {
			t.Fatalf("generation not strictly increasing: %v then %d", gens, g)
		}
		gens = append(gens, g)
	}

	l.Reconcile(fc, reg, sel) // add
	record()
	l.ApplySurfaceEvent(SurfaceEvent{Kind: SurfaceConfigured, Output: 1, Width: 100, Height: 100}) // resize/ready
	record()
	moved := Output{ID: 1, Geometry: image.Rect(10, 0, 110, 100)}
	reg.Apply(OutputEvent{Kind: OutputChanged, Info: moved})
	l.ApplyOutputMove(moved) // reposition
	record()
	l.Reconcile(fc, reg, nil) // remove
	record()
}

func TestSurfaceLifecycle_ReadyRequiresBothDims(t *testing.T) {
	reg := regWith(Output{ID: 1, Geometry: image.Rect(0, 0, 100, 100)})
	l := NewSurfaceLifecycle()
	fc := &fakeCreator{}
	sel, _ := TargetPrimary().Select(reg)
	l.Reconcile(fc, reg, sel)

	l.ApplySurfaceEvent(SurfaceEvent{Kind: SurfaceConfigured, Output: 1, Width: 100, Height: 0})
	if e, _ := l.Entry(1); e.Ready {
		t.Error("entry ready with zero height")
	}
	l.ApplySurfaceEvent(SurfaceEvent{Kind: SurfaceConfigured, Output: 1, Width: 100, Height: 100})
	if e, _ := l.Entry(1); !e.Ready {
		t.Error("entry not ready after full configure")
	}
	l.ApplySurfaceEvent(SurfaceEvent{Kind: SurfaceLost, Output: 1})
	if e, _ := l.Entry(1); e.Ready {
		t.Error("entry still ready after surface loss")
	}
}

func TestSurfaceLifecycle_ConfigureForUnknownOutputDropped(t *testing.T) {
	l := NewSurfaceLifecycle()
	if l.ApplySurfaceEvent(SurfaceEvent{Kind: SurfaceConfigured, Output: 9, Width: 10, Height: 10}) {
		t.Error("configure for unknown output should be dropped")
	}
}

func TestOverallBounds(t *testing.T) {
	tests := []struct {
		name    string
		entries []SurfaceEntry
		want    image.Rectangle
		ok      bool
	}{
		{
			"none ready",
			[]SurfaceEntry{{Output: 1, Width: 10, Height: 10}},
			image.Rectangle{}, false,
		},
		{
			"single entry exact",
			[]SurfaceEntry{{Output: 1, OffsetX: 100, OffsetY: 200, Width: 1920, Height: 1080, Ready: true}},
			image.Rect(100, 200, 2020, 1280), true,
		},
		{
			"two entries tight box",
			[]SurfaceEntry{
				{Output: 1, OffsetX: 0, OffsetY: 0, Width: 1920, Height: 1080, Ready: true},
				{Output: 2, OffsetX: 1920, OffsetY: -200, Width: 2560, Height: 1440, Ready: true},
			},
			image.Rect(0, -200, 4480, 1240), true,
		},
		{
			"not-ready entry excluded",
			[]SurfaceEntry{
				{Output: 1, OffsetX: 0, OffsetY: 0, Width: 100, Height: 100, Ready: true},
				{Output: 2, OffsetX: 5000, OffsetY: 0, Width: 100, Height: 100},
			},
			image.Rect(0, 0, 100, 100), true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OverallBounds(tt.entries)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("bounds = %v, want %v", got, tt.want)
			}
		})
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wayland

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/livewall"
)

type ackedSerial struct {
	id     livewall.OutputID
	serial uint32
}

// fakeSession scripts one event slice per Dispatch and records every
// protocol request.
type fakeSession struct {
	batches     [][]Event
	dispatch    int
	dispatchErr error

	created   []livewall.OutputID
	destroyed []livewall.OutputID
	acked     []ackedSerial
	buffers   map[livewall.OutputID]*fakeBuffer
	closed    bool
}

func newFakeSession(batches ...[]Event) *fakeSession {
	return &fakeSession{
		batches: batches,
		buffers: make(map[livewall.OutputID]*fakeBuffer),
	}
}

func (f *fakeSession) Dispatch(wait bool) ([]Event, error) {
	if f.dispatchErr != nil {
		return nil, f.dispatchErr
	}
	var evs []Event
	if f.dispatch < len(f.batches) {
		evs = f.batches[f.dispatch]
	}
	f.dispatch++
	return evs, nil
}

func (f *fakeSession) CreateLayerSurface(out livewall.Output) error {
	f.created = append(f.created, out.ID)
	return nil
}

func (f *fakeSession) AckConfigure(id livewall.OutputID, serial uint32) error {
	f.acked = append(f.acked, ackedSerial{id: id, serial: serial})
	return nil
}

func (f *fakeSession) DestroyLayerSurface(id livewall.OutputID) error {
	f.destroyed = append(f.destroyed, id)
	return nil
}

func (f *fakeSession) AcquireBuffer(id livewall.OutputID, width, height int) (Buffer, error) {
	buf := &fakeBuffer{
		data:   make([]byte, width*height*4),
		stride: width * 4,
	}
	f.buffers[id] = buf
	return buf, nil
}

func (f *fakeSession) Handle(id livewall.OutputID) (livewall.NativeHandle, bool) {
	return livewall.NativeHandle{Display: 0xD15, Window: uintptr(id)}, true
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeBuffer struct {
	data      []byte
	stride    int
	committed int
}

func (f *fakeBuffer) Data() []byte  { return f.data }
func (f *fakeBuffer) Stride() int   { return f.stride }
func (f *fakeBuffer) Commit() error { f.committed++; return nil }

func out(id livewall.OutputID) livewall.Output {
	return livewall.Output{ID: id, Geometry: image.Rect(0, 0, 100, 100), Scale: 1, Primary: id == 1}
}

func TestDispatchMapsOutputs(t *testing.T) {
	fs := newFakeSession([]Event{
		{Kind: EventOutputAdded, Output: out(1)},
		{Kind: EventOutputChanged, Output: out(2)},
		{Kind: EventOutputRemoved, Output: out(2)},
	})
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := b.Dispatch(false)
	if err != nil {
		t.Fatal(err)
	}
	want := []livewall.OutputEventKind{
		livewall.OutputAdded, livewall.OutputChanged, livewall.OutputRemoved,
	}
	if len(batch.Outputs) != len(want) {
		t.Fatalf("outputs = %d, want %d", len(batch.Outputs), len(want))
	}
	for i, k := range want {
		if batch.Outputs[i].Kind != k {
			t.Errorf("outputs[%d].Kind = %v, want %v", i, batch.Outputs[i].Kind, k)
		}
	}
}

func TestConfigureAcksAndClamps(t *testing.T) {
	fs := newFakeSession(
		[]Event{{Kind: EventConfigure, Output: out(1), Serial: 77, Width: 1920, Height: 0}},
	)
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}

	batch, err := b.Dispatch(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fs.acked) != 1 || fs.acked[0] != (ackedSerial{id: 1, serial: 77}) {
		t.Errorf("acked = %v, want serial 77 on output 1", fs.acked)
	}
	if len(batch.Surfaces) != 1 {
		t.Fatalf("surfaces = %d, want 1", len(batch.Surfaces))
	}
	ev := batch.Surfaces[0]
	if ev.Kind != livewall.SurfaceConfigured || ev.Width != 1920 || ev.Height != 1 {
		t.Errorf("configure = %+v, want 1920x1 (zero clamped)", ev)
	}
	if ev.Handle.Window != 1 {
		t.Errorf("handle = %+v, want session handle", ev.Handle)
	}
}

func TestConfigureForDeadSurfaceIgnored(t *testing.T) {
	fs := newFakeSession(
		[]Event{{Kind: EventConfigure, Output: out(1), Serial: 5, Width: 10, Height: 10}},
	)
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := b.Dispatch(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Surfaces) != 0 || len(fs.acked) != 0 {
		t.Errorf("stale configure processed: surfaces=%v acked=%v", batch.Surfaces, fs.acked)
	}
}

func TestClosedEventIsFatal(t *testing.T) {
	fs := newFakeSession(
		[]Event{{Kind: EventClosed, Output: out(1)}},
	)
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Dispatch(false); !errors.Is(err, livewall.ErrBackendClosed) {
		t.Fatalf("Dispatch() on Closed = %v, want ErrBackendClosed", err)
	}
	if _, err := b.Dispatch(false); !errors.Is(err, livewall.ErrBackendClosed) {
		t.Errorf("Dispatch() after fatal = %v, want ErrBackendClosed", err)
	}
	if err := b.CreateSurface(out(2)); !errors.Is(err, livewall.ErrBackendClosed) {
		t.Errorf("CreateSurface() after fatal = %v, want ErrBackendClosed", err)
	}
}

func TestSessionErrorIsFatal(t *testing.T) {
	fs := newFakeSession()
	fs.dispatchErr = errors.New("connection reset")
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Dispatch(false); !errors.Is(err, livewall.ErrBackendClosed) {
		t.Errorf("Dispatch() on session error = %v, want ErrBackendClosed", err)
	}
}

func TestPointerEventsMapped(t *testing.T) {
	fs := newFakeSession(
		[]Event{
			{Kind: EventPointerMotion, Output: out(1), Local: livewall.Point{X: 3, Y: 4}},
			{Kind: EventPointerButton, Output: out(1), Local: livewall.Point{X: 3, Y: 4},
				Button: livewall.ButtonRight, Pressed: true},
		},
	)
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := b.Dispatch(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Pointer) != 2 {
		t.Fatalf("pointer = %d events, want 2", len(batch.Pointer))
	}
	if m := batch.Pointer[0]; m.Kind != livewall.RawMotion || m.Local != (livewall.Point{X: 3, Y: 4}) {
		t.Errorf("motion = %+v", m)
	}
	if bt := batch.Pointer[1]; bt.Kind != livewall.RawButton || bt.Button != livewall.ButtonRight || !bt.Pressed {
		t.Errorf("button = %+v", bt)
	}
}

func TestSurfaceLifecycleDelegates(t *testing.T) {
	fs := newFakeSession()
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}
	// Live surface: no duplicate protocol request.
	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}
	if len(fs.created) != 1 {
		t.Errorf("created = %v, want one request", fs.created)
	}

	if err := b.DestroySurface(1); err != nil {
		t.Fatal(err)
	}
	// Unknown surface: no protocol request.
	if err := b.DestroySurface(9); err != nil {
		t.Fatal(err)
	}
	if len(fs.destroyed) != 1 || fs.destroyed[0] != 1 {
		t.Errorf("destroyed = %v, want [1]", fs.destroyed)
	}
}

func TestPresentCommitsXRGB(t *testing.T) {
	fs := newFakeSession()
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}

	ps, err := b.OpenPresentSurface(livewall.SurfaceEntry{Output: 1, Width: 2, Height: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := ps.Configure(livewall.SurfaceConfig{Width: 2, Height: 1}); err != nil {
		t.Fatal(err)
	}

	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Pix = []byte{
		0x11, 0x22, 0x33, 0xFF, // RGBA
		0x44, 0x55, 0x66, 0xFF,
	}
	fr, err := ps.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if err := fr.Copy(src, src.Bounds()); err != nil {
		t.Fatal(err)
	}
	if err := fr.Present(); err != nil {
		t.Fatal(err)
	}

	buf := fs.buffers[1]
	if buf == nil || buf.committed != 1 {
		t.Fatalf("buffer not committed: %+v", buf)
	}
	wantRow := []byte{
		0x33, 0x22, 0x11, 0xFF, // BGRA
		0x66, 0x55, 0x44, 0xFF,
	}
	for i, want := range wantRow {
		if buf.data[i] != want {
			t.Errorf("data[%d] = %#x, want %#x", i, buf.data[i], want)
		}
	}
}

func TestAcquireWithoutSurface(t *testing.T) {
	fs := newFakeSession()
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}
	ps, err := b.OpenPresentSurface(livewall.SurfaceEntry{Output: 1, Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ps.Acquire(); !errors.Is(err, livewall.ErrSurfaceNotConfigured) {
		t.Errorf("Acquire() unconfigured = %v, want ErrSurfaceNotConfigured", err)
	}

	if err := ps.Configure(livewall.SurfaceConfig{Width: 4, Height: 4}); err != nil {
		t.Fatal(err)
	}
	if err := b.DestroySurface(1); err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Acquire(); !errors.Is(err, livewall.ErrSurfaceLost) {
		t.Errorf("Acquire() after destroy = %v, want ErrSurfaceLost", err)
	}
}

func TestCloseDestroysSurfacesFirst(t *testing.T) {
	fs := newFakeSession()
	b, err := New(fs)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSurface(out(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.CreateSurface(out(2)); err != nil {
		t.Fatal(err)
	}

	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if len(fs.destroyed) != 2 {
		t.Errorf("destroyed = %v, want both surfaces", fs.destroyed)
	}
	if !fs.closed {
		t.Error("session not closed")
	}

	if _, err := b.Dispatch(false); !errors.Is(err, livewall.ErrBackendClosed) {
		t.Errorf("Dispatch() after Close = %v, want ErrBackendClosed", err)
	}
}

func TestNewNilSession(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) = nil error")
	}
}

package livewall

// Button is a pointer button.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonBack
	ButtonForward
)

// String returns a short name for diagnostics.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonBack:
		return "back"
	case ButtonForward:
		return "forward"
	}
	return "button?"
}

// ButtonSet is a small bitmask of pressed buttons.
type ButtonSet uint32

// Has reports whether b is in the set.
func (s ButtonSet) Has(b Button) bool { return s&(1<<b) != 0 }

// With returns the set with b inserted.
func (s ButtonSet) With(b Button) ButtonSet { return s | 1<<b }

// Without returns the set with b removed.
func (s ButtonSet) Without(b Button) ButtonSet { return s &^ (1 << b) }

// ButtonEdge records the most recent button transition within a tick.
type ButtonEdge struct {
	Button  Button
	Pressed bool
}

// PointerSample is one fused logical pointer state. Position is in the
// global desktop coordinate space (top-left origin, Y down). Output is
// the ID of the output the originating raw event was keyed to, zero
// when the event was unkeyed or the output unknown.
type PointerSample struct {
	Output   OutputID
	Position Point
	Delta    Point
	Pressed  ButtonSet
	Edge     *ButtonEdge
}

// RawPointerKind distinguishes raw pointer events.
type RawPointerKind uint8

const (
	// RawMotion reports an absolute position in output-local coordinates.
	RawMotion RawPointerKind = iota
	// RawButton reports a button transition at an output-local position.
	RawButton
)

// RawPointerEvent is one unfused pointer event from a backend, keyed to
// the output whose surface observed it. Local is in that output's
// coordinate space; fusion translates it by the output's desktop offset.
type RawPointerEvent struct {
	Kind    RawPointerKind
	Output  OutputID
	Local   Point
	Button  Button
	Pressed bool
}

// PointerFusion folds per-output raw pointer events into one logical
// global pointer sample. It keeps the last emitted sample so deltas and
// the pressed set carry across events and ticks. Not safe for
// concurrent use; the engine owns it.
type PointerFusion struct {
	last PointerSample
	seen bool
}

// Apply folds one raw event, in arrival order, into the fused state.
// Each event's resulting position feeds the next event's delta, so a
// batch of any size fuses correctly.
func (f *PointerFusion) Apply(reg *OutputRegistry, ev RawPointerEvent) {
	var offset Point
	if o, ok := reg.Get(ev.Output); ok {
		offset = Point{float64(o.Geometry.Min.X), float64(o.Geometry.Min.Y)}
	}
	global := ev.Local.Add(offset)

	prev := global
	if f.seen {
		prev = f.last.Position
	}

	next := PointerSample{
		Output:   ev.Output,
		Position: global,
		Delta:    global.Sub(prev),
		Pressed:  f.last.Pressed,
	}
	if ev.Kind == RawButton {
		if ev.Pressed {
			next.Pressed = next.Pressed.With(ev.Button)
		} else {
			next.Pressed = next.Pressed.Without(ev.Button)
		}
		next.Edge = &ButtonEdge{Button: ev.Button, Pressed: ev.Pressed}
	}
	f.last = next
	f.seen = true
}

// Settle implements the no-event tick policy: with zero raw events this
// tick, the sample keeps its position and pressed set but its delta is
// zeroed and any edge cleared, so a per-tick consumer never observes a
// stale "just pressed" edge or stale nonzero delta.
func (f *PointerFusion) Settle() {
	if !f.seen {
		return
	}
	f.last.Delta = Point{}
	f.last.Edge = nil
}

// Sample returns the current fused sample and whether one exists yet.
func (f *PointerFusion) Sample() (PointerSample, bool) {
	return f.last, f.seen
}

// buttonPriority orders simultaneous transitions: Left beats Right
// beats Middle beats the rest.
var buttonPriority = []Button{ButtonLeft, ButtonRight, ButtonMiddle, ButtonBack, ButtonForward}

// PointerPollState is the per-tick snapshot a polling backend reads
// from the platform: absolute position in output-local coordinates plus
// the full pressed set.
type PointerPollState struct {
	Output  OutputID
	Local   Point
	Pressed ButtonSet
}

// PointerPollAdapter synthesizes Motion/Button raw events from polled
// absolute state, for platforms without a push event stream. Its output
// is observationally indistinguishable from a push-based feed: one
// Motion per position change, one Button per tick for the
// highest-priority transition, remaining transitions reflected in the
// pressed set on following ticks.
type PointerPollAdapter struct {
	prev  PointerPollState
	first bool
}

// NewPointerPollAdapter returns an adapter with no prior state; the
// first poll yields a single Motion event.
func NewPointerPollAdapter() *PointerPollAdapter {
	return &PointerPollAdapter{first: true}
}

// Poll diffs the polled state against the previous tick's and returns
// the synthesized raw events in application order.
func (a *PointerPollAdapter) Poll(cur PointerPollState) []RawPointerEvent {
	var evs []RawPointerEvent

	moved := a.first || cur.Local != a.prev.Local || cur.Output != a.prev.Output
	if moved {
		evs = append(evs, RawPointerEvent{
			Kind:   RawMotion,
			Output: cur.Output,
			Local:  cur.Local,
		})
	}

	if !a.first && cur.Pressed != a.prev.Pressed {
		b, pressed, ok := a.resolveEdge(cur.Pressed)
		if ok {
			evs = append(evs, RawPointerEvent{
				Kind:    RawButton,
				Output:  cur.Output,
				Local:   cur.Local,
				Button:  b,
				Pressed: pressed,
			})
			if pressed {
				a.prev.Pressed = a.prev.Pressed.With(b)
			} else {
				a.prev.Pressed = a.prev.Pressed.Without(b)
			}
		} else {
			a.prev.Pressed = cur.Pressed
		}
	} else {
		a.prev.Pressed = cur.Pressed
	}

	a.prev.Output = cur.Output
	a.prev.Local = cur.Local
	a.first = false
	return evs
}

// resolveEdge picks the single transition to emit this tick when the
// polled pressed set differs from the prior one.
func (a *PointerPollAdapter) resolveEdge(cur ButtonSet) (Button, bool, bool) {
	for _, b := range buttonPriority {
		if cur.Has(b) && !a.prev.Pressed.Has(b) {
			return b, true, true
		}
	}
	for _, b := range buttonPriority {
		if !cur.Has(b) && a.prev.Pressed.Has(b) {
			return b, false, true
		}
	}
	return 0, false, false
}

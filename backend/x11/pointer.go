// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/livewall"
)

// PollPointer queries the root pointer position and button mask once
// per tick. X has no global pointer push stream without grabs; the
// polling adapter in the engine turns this into the same Motion/Button
// derivation a push backend produces.
func (b *Backend) PollPointer() (livewall.PointerPollState, bool) {
	if b.closed {
		return livewall.PointerPollState{}, false
	}
	reply, err := xproto.QueryPointer(b.conn, b.screen.Root).Reply()
	if err != nil {
		livewall.Logger().Debug("x11: query pointer failed", "error", err)
		return livewall.PointerPollState{}, false
	}

	x, y := int(reply.RootX), int(reply.RootY)
	st := livewall.PointerPollState{
		Local:   livewall.Point{X: float64(x), Y: float64(y)},
		Pressed: decodeButtonMask(reply.Mask),
	}
	for id, o := range b.known {
		g := o.Geometry
		if x >= g.Min.X && x < g.Max.X && y >= g.Min.Y && y < g.Max.Y {
			st.Output = id
			st.Local = livewall.Point{
				X: float64(x - g.Min.X),
				Y: float64(y - g.Min.Y),
			}
			break
		}
	}
	return st, true
}

// decodeButtonMask maps core X button mask bits to the fused button
// set. X numbers buttons 1=left, 2=middle, 3=right; 4/5 are the wheel
// and are ignored.
func decodeButtonMask(mask uint16) livewall.ButtonSet {
	var s livewall.ButtonSet
	if mask&xproto.ButtonMask1 != 0 {
		s = s.With(livewall.ButtonLeft)
	}
	if mask&xproto.ButtonMask2 != 0 {
		s = s.With(livewall.ButtonMiddle)
	}
	if mask&xproto.ButtonMask3 != 0 {
		s = s.With(livewall.ButtonRight)
	}
	return s
}

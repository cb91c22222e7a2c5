// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package windows

import (
	"unsafe"

	"github.com/gogpu/livewall"
)

// PollPointer reads the global cursor position and button state once
// per tick. The polling adapter in the engine synthesizes the same
// Motion/Button events a push backend would deliver.
func (b *Backend) PollPointer() (livewall.PointerPollState, bool) {
	if b.closed {
		return livewall.PointerPollState{}, false
	}
	var pt point
	ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return livewall.PointerPollState{}, false
	}

	x, y := int(pt.X), int(pt.Y)
	st := livewall.PointerPollState{
		Local:   livewall.Point{X: float64(x), Y: float64(y)},
		Pressed: pollButtons(),
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

// pollButtons reads the asynchronous key state for the three mouse
// buttons; the high bit means currently down.
func pollButtons() livewall.ButtonSet {
	var s livewall.ButtonSet
	if down(vkLeftButton) {
		s = s.With(livewall.ButtonLeft)
	}
	if down(vkRightButton) {
		s = s.With(livewall.ButtonRight)
	}
	if down(vkMidButton) {
		s = s.With(livewall.ButtonMiddle)
	}
	return s
}

func down(vk int) bool {
	ret, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return uint16(ret)&0x8000 != 0
}

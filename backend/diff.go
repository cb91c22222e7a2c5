// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package backend

import (
	"sort"

	"github.com/gogpu/livewall"
)

// DiffOutputs computes the event delta between a backend's known
// output set and a freshly enumerated one. The second return value
// lists outputs that stayed connected but changed geometry: their live
// wallpaper windows must be repositioned, or they would keep the old
// monitor bounds forever. Events are ordered by id so replaying the
// same enumeration yields the same batch.
func DiffOutputs(known, current map[livewall.OutputID]livewall.Output) ([]livewall.OutputEvent, []livewall.OutputID) {
	ids := make([]livewall.OutputID, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var events []livewall.OutputEvent
	var moved []livewall.OutputID
	for _, id := range ids {
		o := current[id]
		old, ok := known[id]
		switch {
		case !ok:
			events = append(events, livewall.OutputEvent{Kind: livewall.OutputAdded, Info: o})
		case old != o:
			events = append(events, livewall.OutputEvent{Kind: livewall.OutputChanged, Info: o})
			if old.Geometry != o.Geometry {
				moved = append(moved, id)
			}
		}
	}

	removed := make([]livewall.OutputID, 0, len(known))
	for id := range known {
		if _, ok := current[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for _, id := range removed {
		events = append(events, livewall.OutputEvent{Kind: livewall.OutputRemoved, Info: livewall.Output{ID: id}})
	}
	return events, moved
}

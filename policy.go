package livewall

import "strconv"

// TargetPolicy selects which connected outputs should carry a wallpaper
// surface. The zero value targets the primary output.
type TargetPolicy struct {
	kind  targetKind
	index int
}

type targetKind uint8

const (
	targetPrimary targetKind = iota
	targetByIndex
	targetAll
)

// TargetPrimary targets the platform's primary output, falling back to
// the first output in enumeration order when no primary is flagged.
func TargetPrimary() TargetPolicy { return TargetPolicy{kind: targetPrimary} }

// TargetByIndex targets the i-th output in enumeration order. When the
// index is out of range the selection is empty until enough outputs
// connect.
func TargetByIndex(i int) TargetPolicy { return TargetPolicy{kind: targetByIndex, index: i} }

// TargetAll targets every connected output.
func TargetAll() TargetPolicy { return TargetPolicy{kind: targetAll} }

// All reports whether the policy targets every output.
func (p TargetPolicy) All() bool { return p.kind == targetAll }

// String returns a short name for diagnostics.
func (p TargetPolicy) String() string {
	switch p.kind {
	case targetAll:
		return "all"
	case targetByIndex:
		return "index(" + strconv.Itoa(p.index) + ")"
	default:
		return "primary"
	}
}

// Select resolves the policy against the current registry contents.
// The second return value reports whether the selection succeeded. A
// failed selection (empty registry, index out of range) is non-fatal:
// the caller must keep its previous surface configuration unchanged
// rather than tear down working surfaces over a transient miss.
func (p TargetPolicy) Select(reg *OutputRegistry) ([]Output, bool) {
	if reg.Len() == 0 {
		return nil, false
	}
	switch p.kind {
	case targetAll:
		return reg.List(), true
	case targetByIndex:
		list := reg.List()
		if p.index < 0 || p.index >= len(list) {
			return nil, false
		}
		return list[p.index : p.index+1], true
	default:
		o, ok := reg.Primary()
		if !ok {
			return nil, false
		}
		return []Output{o}, true
	}
}

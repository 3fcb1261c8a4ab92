// Package display derives the active display list: which slot numbers the
// rendering layer iterates, in which order, for the selected group.
package display

import "rfboard/internal/store"

// demoSlotCount is the fixed synthetic slot set shown by group 0 in demo mode.
const demoSlotCount = 12

// ListFor returns the slot numbers to display for a group selection.
//
// Group 0 means "all configured slots" (or the fixed demo set in demo
// mode). Stored groups are returned verbatim: slot numbers without a
// configuration render as blank, duplicates are not deduplicated. An
// unknown group number yields an empty list.
func ListFor(group int, cfg []store.SlotConfig, groups map[int]store.Group, demo bool) []int {
	if group == 0 {
		if demo {
			out := make([]int, demoSlotCount)
			for i := range out {
				out[i] = i + 1
			}
			return out
		}
		out := make([]int, 0, len(cfg))
		for _, s := range cfg {
			out = append(out, s.Slot)
		}
		return out
	}

	g, ok := groups[group]
	if !ok {
		return []int{}
	}
	return append([]int(nil), g.Slots...)
}

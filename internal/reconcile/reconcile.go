// Package reconcile contains the pure transformation logic behind the
// configuration editor: merging newly-discovered hardware with the
// configured slot list, list editing with mandatory renumbering, and
// serialization into the backend's persisted shape.
package reconcile

import (
	"fmt"

	"rfboard/internal/store"
)

// Candidate is one physical channel of a discovered device offered for
// addition. Multi-channel devices yield one candidate per channel.
type Candidate struct {
	IP      string
	Type    store.DeviceType
	Channel int
	Name    string
}

// Unconfigured returns the discovered channels that no existing slot
// already claims. A slot claims a channel when ip, type and channel all
// match.
func Unconfigured(discovered []store.DiscoveredDevice, slots []store.SlotConfig) []Candidate {
	var out []Candidate
	for _, dev := range discovered {
		channels := dev.Channels
		if channels < 1 {
			channels = 1
		}
		for ch := 1; ch <= channels; ch++ {
			if slotExists(slots, dev.IP, dev.Type, ch) {
				continue
			}
			out = append(out, Candidate{IP: dev.IP, Type: dev.Type, Channel: ch, Name: dev.Name})
		}
	}
	return out
}

func slotExists(slots []store.SlotConfig, ip string, t store.DeviceType, channel int) bool {
	for _, s := range slots {
		if s.IP == ip && s.Type == t && s.Channel == channel {
			return true
		}
	}
	return false
}

// AddSlot appends a new offline slot with the next slot number.
func AddSlot(slots []store.SlotConfig) []store.SlotConfig {
	return append(copySlots(slots), store.SlotConfig{
		Slot: len(slots) + 1,
		Type: store.TypeOffline,
	})
}

// AddDiscovered appends a configured slot derived from the candidate.
func AddDiscovered(slots []store.SlotConfig, c Candidate) []store.SlotConfig {
	channel := c.Channel
	if channel < 1 {
		channel = 1
	}
	return append(copySlots(slots), store.SlotConfig{
		Slot:    len(slots) + 1,
		Type:    c.Type,
		IP:      c.IP,
		Channel: channel,
	})
}

// AddAllDiscovered appends every currently-unconfigured discovered channel,
// in discovered order.
func AddAllDiscovered(slots []store.SlotConfig, discovered []store.DiscoveredDevice) []store.SlotConfig {
	out := copySlots(slots)
	for _, c := range Unconfigured(discovered, out) {
		out = AddDiscovered(out, c)
	}
	return out
}

// DeleteSlot removes the entry at index (0-based) and renumbers the rest in
// their current relative order.
func DeleteSlot(slots []store.SlotConfig, index int) []store.SlotConfig {
	if index < 0 || index >= len(slots) {
		return copySlots(slots)
	}
	out := copySlots(slots)
	out = append(out[:index], out[index+1:]...)
	return Renumber(out)
}

// Move relocates the entry at index from to index to and renumbers. This is
// the pure half of drag-reorder; gesture handling belongs to the UI layer.
func Move(slots []store.SlotConfig, from, to int) []store.SlotConfig {
	out := copySlots(slots)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	entry := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]store.SlotConfig{entry}, out[to:]...)...)
	return Renumber(out)
}

// Renumber reassigns slot numbers 1..len in the list's current order.
// Numbering is purely a function of array position.
func Renumber(slots []store.SlotConfig) []store.SlotConfig {
	out := copySlots(slots)
	for i := range out {
		out[i].Slot = i + 1
	}
	return out
}

// Clear empties the slot list.
func Clear([]store.SlotConfig) []store.SlotConfig {
	return []store.SlotConfig{}
}

// ToPersistPayload serializes the working list into the persisted shape:
// ip and channel are retained only for network-addressable types.
func ToPersistPayload(slots []store.SlotConfig) []store.SlotConfig {
	out := make([]store.SlotConfig, 0, len(slots))
	for _, s := range slots {
		entry := store.SlotConfig{
			Slot:         s.Slot,
			Type:         s.Type,
			ExtendedID:   s.ExtendedID,
			ExtendedName: s.ExtendedName,
		}
		if store.IsNetworkType(s.Type) {
			entry.IP = s.IP
			entry.Channel = s.Channel
		}
		out = append(out, entry)
	}
	return out
}

// Validate checks the slot-number invariant: numbers are exactly 1..len with
// no duplicates and no gaps. A violation is a programming error in the
// editing operations, not a runtime condition.
func Validate(slots []store.SlotConfig) error {
	for i, s := range slots {
		if s.Slot != i+1 {
			return fmt.Errorf("slot list corrupt: index %d holds slot number %d", i, s.Slot)
		}
	}
	return nil
}

func copySlots(slots []store.SlotConfig) []store.SlotConfig {
	return append([]store.SlotConfig(nil), slots...)
}

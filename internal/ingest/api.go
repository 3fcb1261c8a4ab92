package ingest

import (
	"fmt"

	"rfboard/internal/store"
)

// SnapshotPayload models the backend's full-state snapshot at /data.json.
type SnapshotPayload struct {
	Config struct {
		Slots  []store.SlotConfig `json:"slots"`
		Groups []store.Group      `json:"groups"`
	} `json:"config"`
	Discovered []store.DiscoveredDevice `json:"discovered"`
	Receivers  []ReceiverPayload        `json:"receivers"`
	JPG        []string                 `json:"jpg"`
	MP4        []string                 `json:"mp4"`
	URL        string                   `json:"url"`
}

// ReceiverPayload is one physical receiver unit with its transmitter channels.
type ReceiverPayload struct {
	IP     string           `json:"ip"`
	Type   store.DeviceType `json:"type"`
	Status string           `json:"status"`
	Tx     []TxPayload      `json:"tx"`
}

// TxPayload is the wire form of a transmitter record. Every field is a
// pointer so that a field the payload does not carry stays nil and never
// makes it into the resulting merge-patch.
type TxPayload struct {
	Slot         *int              `json:"slot"`
	ID           *string           `json:"id"`
	Name         *string           `json:"name"`
	NameRaw      *string           `json:"name_raw"`
	Status       *string           `json:"status"`
	Battery      *int              `json:"battery"`
	Runtime      *int              `json:"runtime"`
	Antenna      *string           `json:"antenna"`
	TXOffset     *int              `json:"tx_offset"`
	Quality      *int              `json:"quality"`
	Frequency    *string           `json:"frequency"`
	IP           *string           `json:"ip"`
	Type         *store.DeviceType `json:"type"`
	Channel      *int              `json:"channel"`
	AudioLevel   *int              `json:"audio_level"`
	RFLevel      *int              `json:"rf_level"`
	AudioLevelL  *int              `json:"audio_level_l"`
	AudioLevelR  *int              `json:"audio_level_r"`
	ExtendedID   *string           `json:"extended_id"`
	ExtendedName *string           `json:"extended_name"`
}

// patch validates the payload and converts it to a slot number plus the
// merge-patch of exactly the fields it carried.
func (t TxPayload) patch() (int, store.TransmitterPatch, error) {
	if t.Slot == nil {
		return 0, store.TransmitterPatch{}, fmt.Errorf("transmitter record without slot")
	}
	if *t.Slot < 1 {
		return 0, store.TransmitterPatch{}, fmt.Errorf("invalid slot number %d", *t.Slot)
	}
	return *t.Slot, store.TransmitterPatch{
		ID:           t.ID,
		Name:         t.Name,
		NameRaw:      t.NameRaw,
		Status:       t.Status,
		Battery:      t.Battery,
		Runtime:      t.Runtime,
		Antenna:      t.Antenna,
		TXOffset:     t.TXOffset,
		Quality:      t.Quality,
		Frequency:    t.Frequency,
		IP:           t.IP,
		Type:         t.Type,
		Channel:      t.Channel,
		AudioLevel:   t.AudioLevel,
		RFLevel:      t.RFLevel,
		AudioLevelL:  t.AudioLevelL,
		AudioLevelR:  t.AudioLevelR,
		ExtendedID:   t.ExtendedID,
		ExtendedName: t.ExtendedName,
	}, nil
}

// PushMessage is one frame from the push channel. Any subset of the three
// keys may be present.
type PushMessage struct {
	ChartUpdate []ChartPayload `json:"chart-update"`
	DataUpdate  []TxPayload    `json:"data-update"`
	GroupUpdate []store.Group  `json:"group-update"`
}

// ChartPayload is one chart-update entry: slot, timestamp and level fields.
type ChartPayload struct {
	Slot        *int   `json:"slot"`
	Timestamp   *int64 `json:"timestamp"`
	AudioLevel  *int   `json:"audio_level"`
	RFLevel     *int   `json:"rf_level"`
	AudioLevelL *int   `json:"audio_level_l"`
	AudioLevelR *int   `json:"audio_level_r"`
}

// sample validates the payload and converts it to a chart sample. Level
// pointers pass through untouched so an absent level stays absent.
func (c ChartPayload) sample() (store.ChartSample, error) {
	if c.Slot == nil || *c.Slot < 1 {
		return store.ChartSample{}, fmt.Errorf("chart update without valid slot")
	}
	s := store.ChartSample{
		Slot:        *c.Slot,
		AudioLevel:  c.AudioLevel,
		RFLevel:     c.RFLevel,
		AudioLevelL: c.AudioLevelL,
		AudioLevelR: c.AudioLevelR,
	}
	if c.Timestamp != nil {
		s.Timestamp = *c.Timestamp
	}
	return s, nil
}

// SlotUpdate is the extended-name override payload for POST /api/slot.
// Empty strings clear the stored override.
type SlotUpdate struct {
	Slot         int    `json:"slot"`
	ExtendedID   string `json:"extended_id"`
	ExtendedName string `json:"extended_name"`
}

// Package store holds the canonical, observable state for every receiver
// slot. It is the single writer target for both telemetry ingestion and the
// simulation engine; all mutation goes through merge-patches so concurrent
// writers can never erase each other's fields.
package store

import (
	"errors"
	"sort"
	"sync"
)

// chartHistoryCap bounds the per-slot rolling sample buffer. At the 300 ms
// sample cadence this covers roughly half a minute of chart history.
const chartHistoryCap = 128

// EventKind tags a store change notification.
type EventKind string

const (
	EventChart      EventKind = "chart"
	EventData       EventKind = "data"
	EventGroups     EventKind = "groups"
	EventConnection EventKind = "connection"
)

// ChartSample is one audio/RF level reading for a slot. Level fields are
// pointers so a sample carries exactly the fields its frame did; a level the
// frame omitted stays nil and never overwrites the slot record. A present
// zero (stereo silence, say) is a real value and does overwrite.
type ChartSample struct {
	Slot        int   `json:"slot"`
	Timestamp   int64 `json:"timestamp"`
	AudioLevel  *int  `json:"audio_level,omitempty"`
	RFLevel     *int  `json:"rf_level,omitempty"`
	AudioLevelL *int  `json:"audio_level_l,omitempty"`
	AudioLevelR *int  `json:"audio_level_r,omitempty"`
}

// Event is delivered to subscribers after a mutation. Only the fields
// matching the Kind are populated.
type Event struct {
	Kind        EventKind
	Sample      ChartSample
	Transmitter Transmitter
	Groups      []Group
	Connection  ConnectionState
}

// ErrSubscriberExists is returned when Subscribe reuses an id.
var ErrSubscriberExists = errors.New("subscriber id already exists")

// ReceiverKey identifies one physical receiver unit by its address and
// hardware family.
type ReceiverKey struct {
	IP   string
	Type DeviceType
}

// Snapshot is a copy of the full store contents at one instant.
type Snapshot struct {
	Transmitters   map[int]Transmitter
	Config         []SlotConfig
	Groups         []Group
	Discovered     []DiscoveredDevice
	ReceiverStatus map[ReceiverKey]string
	Media          MediaLists
	URL            string
	Connection     ConnectionState
	Mode           SettingsMode
}

// Store is safe for concurrent use; every exposed mutation completes
// atomically under one mutex.
type Store struct {
	mu           sync.RWMutex
	transmitters map[int]*Transmitter
	charts       map[int][]ChartSample
	config       []SlotConfig
	groups       map[int]Group
	discovered   []DiscoveredDevice
	rxStatus     map[ReceiverKey]string
	media        MediaLists
	url          string
	connection   ConnectionState
	mode         SettingsMode

	subMu       sync.RWMutex
	subscribers map[string]chan<- Event
}

// New creates an empty store in the CONNECTING state with no editor open.
func New() *Store {
	return &Store{
		transmitters: make(map[int]*Transmitter),
		charts:       make(map[int][]ChartSample),
		groups:       make(map[int]Group),
		rxStatus:     make(map[ReceiverKey]string),
		connection:   Connecting,
		mode:         ModeNone,
		subscribers:  make(map[string]chan<- Event),
	}
}

// Subscribe registers a channel to receive change events. Publishing is
// non-blocking: events for a full channel are dropped, never queued.
func (s *Store) Subscribe(id string, ch chan<- Event) error {
	if ch == nil {
		return errors.New("subscriber channel cannot be nil")
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if _, exists := s.subscribers[id]; exists {
		return ErrSubscriberExists
	}
	s.subscribers[id] = ch
	return nil
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (s *Store) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subscribers, id)
}

func (s *Store) publish(ev Event) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full, drop.
		}
	}
}

// Snapshot returns a copy of the full current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make(map[int]Transmitter, len(s.transmitters))
	for slot, tx := range s.transmitters {
		txs[slot] = *tx
	}
	groups := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Group < groups[j].Group })
	rxStatus := make(map[ReceiverKey]string, len(s.rxStatus))
	for k, status := range s.rxStatus {
		rxStatus[k] = status
	}

	return Snapshot{
		Transmitters:   txs,
		Config:         append([]SlotConfig(nil), s.config...),
		Groups:         groups,
		Discovered:     append([]DiscoveredDevice(nil), s.discovered...),
		ReceiverStatus: rxStatus,
		Media:          s.media,
		URL:            s.url,
		Connection:     s.connection,
		Mode:           s.mode,
	}
}

// Transmitter returns a copy of one slot's record.
func (s *Store) Transmitter(slot int) (Transmitter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transmitters[slot]
	if !ok {
		return Transmitter{}, false
	}
	return *tx, true
}

// UpdateTransmitter merge-patches one slot, creating the record on first
// update with Slot forced to the given value.
func (s *Store) UpdateTransmitter(slot int, p TransmitterPatch) {
	s.mu.Lock()
	tx, ok := s.transmitters[slot]
	if !ok {
		tx = &Transmitter{Slot: slot}
		s.transmitters[slot] = tx
	}
	p.apply(tx)
	updated := *tx
	s.mu.Unlock()

	s.publish(Event{Kind: EventData, Transmitter: updated})
}

// ReplaceTransmitters applies a full-authority snapshot: slots present in
// patches are merged per slot (a field the snapshot does not carry survives),
// slots absent from patches are removed because the backend's slot list is
// the structural source of truth. This is deliberately not a map swap.
func (s *Store) ReplaceTransmitters(patches map[int]TransmitterPatch) {
	var updated []Transmitter

	s.mu.Lock()
	for slot := range s.transmitters {
		if _, keep := patches[slot]; !keep {
			delete(s.transmitters, slot)
			delete(s.charts, slot)
		}
	}
	for slot, p := range patches {
		tx, ok := s.transmitters[slot]
		if !ok {
			tx = &Transmitter{Slot: slot}
			s.transmitters[slot] = tx
		}
		p.apply(tx)
		updated = append(updated, *tx)
	}
	s.mu.Unlock()

	for _, tx := range updated {
		s.publish(Event{Kind: EventData, Transmitter: tx})
	}
}

// AppendChartSample merges the sample's present levels into the slot record
// and appends it to the slot's rolling buffer in arrival order.
func (s *Store) AppendChartSample(sample ChartSample) {
	s.mu.Lock()
	tx, ok := s.transmitters[sample.Slot]
	if !ok {
		tx = &Transmitter{Slot: sample.Slot}
		s.transmitters[sample.Slot] = tx
	}
	if sample.AudioLevel != nil {
		tx.AudioLevel = *sample.AudioLevel
	}
	if sample.RFLevel != nil {
		tx.RFLevel = *sample.RFLevel
	}
	if sample.AudioLevelL != nil {
		tx.AudioLevelL = *sample.AudioLevelL
	}
	if sample.AudioLevelR != nil {
		tx.AudioLevelR = *sample.AudioLevelR
	}

	buf := append(s.charts[sample.Slot], sample)
	if len(buf) > chartHistoryCap {
		buf = buf[len(buf)-chartHistoryCap:]
	}
	s.charts[sample.Slot] = buf
	s.mu.Unlock()

	s.publish(Event{Kind: EventChart, Sample: sample})
}

// ChartHistory returns a copy of the slot's rolling sample buffer.
func (s *Store) ChartHistory(slot int) []ChartSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChartSample(nil), s.charts[slot]...)
}

// SetConfig replaces the configured slot list. The poll channel is
// authoritative for this.
func (s *Store) SetConfig(slots []SlotConfig) {
	s.mu.Lock()
	s.config = append([]SlotConfig(nil), slots...)
	s.mu.Unlock()
}

// Config returns a copy of the configured slot list.
func (s *Store) Config() []SlotConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SlotConfig(nil), s.config...)
}

// SetGroups replaces the whole groups map.
func (s *Store) SetGroups(groups []Group) {
	s.mu.Lock()
	s.groups = make(map[int]Group, len(groups))
	for _, g := range groups {
		s.groups[g.Group] = g
	}
	s.mu.Unlock()

	s.publish(Event{Kind: EventGroups, Groups: append([]Group(nil), groups...)})
}

// SetGroup upserts a single group.
func (s *Store) SetGroup(g Group) {
	s.mu.Lock()
	s.groups[g.Group] = g
	s.mu.Unlock()

	s.publish(Event{Kind: EventGroups, Groups: []Group{g}})
}

// Group returns the stored group for a number, if any.
func (s *Store) Group(number int) (Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[number]
	return g, ok
}

// Groups returns a copy of the groups map.
func (s *Store) Groups() map[int]Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]Group, len(s.groups))
	for n, g := range s.groups {
		out[n] = g
	}
	return out
}

// SetReceiverStatuses replaces the per-receiver status map. The poll
// snapshot is authoritative for it.
func (s *Store) SetReceiverStatuses(statuses map[ReceiverKey]string) {
	s.mu.Lock()
	s.rxStatus = make(map[ReceiverKey]string, len(statuses))
	for k, status := range statuses {
		s.rxStatus[k] = status
	}
	s.mu.Unlock()
}

// ReceiverStatus returns the reported status for one unit, if any.
func (s *Store) ReceiverStatus(key ReceiverKey) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.rxStatus[key]
	return status, ok
}

// SetDiscovered replaces the network-scan result list.
func (s *Store) SetDiscovered(devices []DiscoveredDevice) {
	s.mu.Lock()
	s.discovered = append([]DiscoveredDevice(nil), devices...)
	s.mu.Unlock()
}

// Discovered returns a copy of the scan result list.
func (s *Store) Discovered() []DiscoveredDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]DiscoveredDevice(nil), s.discovered...)
}

// SetMedia updates the background asset lists and base URL from the poll.
func (s *Store) SetMedia(media MediaLists, url string) {
	s.mu.Lock()
	s.media = media
	s.url = url
	s.mu.Unlock()
}

// SetConnectionStatus records the backend link state.
func (s *Store) SetConnectionStatus(state ConnectionState) {
	s.mu.Lock()
	changed := s.connection != state
	s.connection = state
	s.mu.Unlock()

	if changed {
		s.publish(Event{Kind: EventConnection, Connection: state})
	}
}

// ConnectionStatus returns the current backend link state.
func (s *Store) ConnectionStatus() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection
}

// SetSettingsMode opens the named editor. Opening a non-NONE mode while
// another editor is active silently closes the other one; the store never
// holds two active modes.
func (s *Store) SetSettingsMode(mode SettingsMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// Mode returns the currently open editor, or ModeNone.
func (s *Store) Mode() SettingsMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

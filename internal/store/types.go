package store

// DeviceType identifies a hardware family.
type DeviceType string

const (
	TypeUHFR    DeviceType = "uhfr"
	TypeQLXD    DeviceType = "qlxd"
	TypeULXD    DeviceType = "ulxd"
	TypeAXTD    DeviceType = "axtd"
	TypeP10T    DeviceType = "p10t"
	TypeOffline DeviceType = "offline"
)

// NetworkTypes lists the families that are addressed over the network and
// therefore carry an ip/channel pair in their slot configuration.
var NetworkTypes = []DeviceType{TypeUHFR, TypeQLXD, TypeULXD, TypeAXTD, TypeP10T}

// IsNetworkType reports whether t is one of the network-addressable families.
func IsNetworkType(t DeviceType) bool {
	for _, nt := range NetworkTypes {
		if t == nt {
			return true
		}
	}
	return false
}

// Transmitter status values. The PREV_ variants mean the transmitter is
// currently powered off and the value shown is the last one seen.
const (
	StatusGood         = "GOOD"
	StatusPrevGood     = "PREV_GOOD"
	StatusReplace      = "REPLACE"
	StatusPrevReplace  = "PREV_REPLACE"
	StatusCritical     = "CRITICAL"
	StatusPrevCritical = "PREV_CRITICAL"
	StatusUnassigned   = "UNASSIGNED"
	StatusRXComError   = "RX_COM_ERROR"
	StatusTXComError   = "TX_COM_ERROR"
)

// ValueUnknown marks battery/offset/quality fields with no usable value
// (unknown, mains powered, or not applicable).
const ValueUnknown = 255

// Transmitter is the live record for one slot.
type Transmitter struct {
	Slot         int        `json:"slot"`
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	NameRaw      string     `json:"name_raw"`
	Status       string     `json:"status"`
	Battery      int        `json:"battery"`
	Runtime      int        `json:"runtime"`
	Antenna      string     `json:"antenna"`
	TXOffset     int        `json:"tx_offset"`
	Quality      int        `json:"quality"`
	Frequency    string     `json:"frequency"`
	IP           string     `json:"ip"`
	Type         DeviceType `json:"type"`
	Channel      int        `json:"channel"`
	AudioLevel   int        `json:"audio_level"`
	RFLevel      int        `json:"rf_level"`
	AudioLevelL  int        `json:"audio_level_l"`
	AudioLevelR  int        `json:"audio_level_r"`
	ExtendedID   string     `json:"extended_id,omitempty"`
	ExtendedName string     `json:"extended_name,omitempty"`
}

// TransmitterPatch is a merge-patch over a Transmitter. Only non-nil fields
// are applied; everything else is left untouched. Writers build a patch from
// exactly the fields their payload carried, which is what keeps the poll and
// push channels from erasing each other's values.
type TransmitterPatch struct {
	ID           *string
	Name         *string
	NameRaw      *string
	Status       *string
	Battery      *int
	Runtime      *int
	Antenna      *string
	TXOffset     *int
	Quality      *int
	Frequency    *string
	IP           *string
	Type         *DeviceType
	Channel      *int
	AudioLevel   *int
	RFLevel      *int
	AudioLevelL  *int
	AudioLevelR  *int
	ExtendedID   *string
	ExtendedName *string
}

// apply overwrites tx's fields with every field present in the patch.
func (p TransmitterPatch) apply(tx *Transmitter) {
	if p.ID != nil {
		tx.ID = *p.ID
	}
	if p.Name != nil {
		tx.Name = *p.Name
	}
	if p.NameRaw != nil {
		tx.NameRaw = *p.NameRaw
	}
	if p.Status != nil {
		tx.Status = *p.Status
	}
	if p.Battery != nil {
		tx.Battery = *p.Battery
	}
	if p.Runtime != nil {
		tx.Runtime = *p.Runtime
	}
	if p.Antenna != nil {
		tx.Antenna = *p.Antenna
	}
	if p.TXOffset != nil {
		tx.TXOffset = *p.TXOffset
	}
	if p.Quality != nil {
		tx.Quality = *p.Quality
	}
	if p.Frequency != nil {
		tx.Frequency = *p.Frequency
	}
	if p.IP != nil {
		tx.IP = *p.IP
	}
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Channel != nil {
		tx.Channel = *p.Channel
	}
	if p.AudioLevel != nil {
		tx.AudioLevel = *p.AudioLevel
	}
	if p.RFLevel != nil {
		tx.RFLevel = *p.RFLevel
	}
	if p.AudioLevelL != nil {
		tx.AudioLevelL = *p.AudioLevelL
	}
	if p.AudioLevelR != nil {
		tx.AudioLevelR = *p.AudioLevelR
	}
	if p.ExtendedID != nil {
		tx.ExtendedID = *p.ExtendedID
	}
	if p.ExtendedName != nil {
		tx.ExtendedName = *p.ExtendedName
	}
}

// SlotConfig is the editable configuration counterpart of a Transmitter.
// IP and Channel are only meaningful for network-addressable types.
type SlotConfig struct {
	Slot         int        `json:"slot"`
	Type         DeviceType `json:"type"`
	IP           string     `json:"ip,omitempty"`
	Channel      int        `json:"channel,omitempty"`
	ExtendedID   string     `json:"extended_id,omitempty"`
	ExtendedName string     `json:"extended_name,omitempty"`
}

// Group is a named, ordered subset of slots selectable as the active view.
// Group number 0 is reserved for "all configured slots" and never stored.
type Group struct {
	Group      int    `json:"group"`
	Title      string `json:"title"`
	HideCharts bool   `json:"hide_charts"`
	Slots      []int  `json:"slots"`
}

// DiscoveredDevice is an ephemeral network-scan result offered as an
// "add to configuration" candidate.
type DiscoveredDevice struct {
	IP       string     `json:"ip"`
	Type     DeviceType `json:"type"`
	Channels int        `json:"channels"`
	Name     string     `json:"name"`
}

// MediaLists holds the background asset file names carried opaquely through
// the poll snapshot.
type MediaLists struct {
	JPG []string `json:"jpg"`
	MP4 []string `json:"mp4"`
}

// ConnectionState describes the link to the backend.
type ConnectionState string

const (
	Connecting   ConnectionState = "CONNECTING"
	Connected    ConnectionState = "CONNECTED"
	Disconnected ConnectionState = "DISCONNECTED"
)

// SettingsMode names the currently open configuration editor. At most one
// editor is active at a time.
type SettingsMode string

const (
	ModeNone     SettingsMode = "NONE"
	ModeConfig   SettingsMode = "CONFIG"
	ModeExtended SettingsMode = "EXTENDED"
	ModeGroup    SettingsMode = "GROUP"
)

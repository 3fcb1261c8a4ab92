// Package demo generates synthetic per-slot telemetry so the dashboard can
// run with no hardware attached. Each field class is refreshed on its own
// cadence to mimic the jitter profile of real receivers.
package demo

import (
	"context"
	"log"
	"math/rand"
	"time"

	"rfboard/internal/store"
)

// StateWriter is the subset of the store the engine mutates.
type StateWriter interface {
	UpdateTransmitter(slot int, p store.TransmitterPatch)
	ReplaceTransmitters(patches map[int]store.TransmitterPatch)
	AppendChartSample(sample store.ChartSample)
	SetConnectionStatus(state store.ConnectionState)
}

var (
	channelNames = []string{
		"Pastor", "Worship", "Backup", "Guest",
		"Choir L", "Choir R", "Podium", "Lectern",
		"HH-1", "HH-2", "LAV-1", "LAV-2",
	}

	// G50 band frequencies in kHz, as receivers report them.
	frequencies = []string{
		"470125", "476250", "482375", "488500", "494625",
		"500750", "506875", "513000", "519125", "525250",
	}

	// Two-character diversity patterns; A/B light up blue, R red, X off.
	diversityPatterns = []string{"AB", "AX", "XB", "XX", "RX", "XR"}

	deviceTypes = []store.DeviceType{
		store.TypeQLXD, store.TypeULXD, store.TypeUHFR, store.TypeAXTD, store.TypeP10T,
	}

	batteryValues  = []int{0, 1, 2, 3, 4, 5, store.ValueUnknown}
	batteryWeights = []float64{0.05, 0.05, 0.10, 0.20, 0.30, 0.25, 0.05}
)

// runtimeMains marks transmitters with no battery runtime to report.
const runtimeMains = 65535

// Engine drives the simulation. All randomness flows through one injected
// source so a fixed seed reproduces the exact same stream of updates, and
// all generators run on a single goroutine so draws happen in a fixed order.
type Engine struct {
	store StateWriter
	slots int
	rand  *rand.Rand
}

// New creates an engine simulating the given number of slots.
func New(sw StateWriter, slots int, src rand.Source) *Engine {
	return &Engine{store: sw, slots: slots, rand: rand.New(src)}
}

// Run seeds every slot, forces the connection badge to CONNECTED for the
// session, and generates updates until the context is cancelled. It returns
// only when no further tick can fire.
func (e *Engine) Run(ctx context.Context) {
	log.Printf("Starting demo engine with %d slots", e.slots)
	e.store.SetConnectionStatus(store.Connected)
	e.seed()

	// One random slot gets a new name per tick, so the per-board rate is
	// held constant by shrinking the period as the slot count grows.
	nameTicker := time.NewTicker(750 * time.Millisecond / time.Duration(e.slots))
	batteryTicker := time.NewTicker(890 * time.Millisecond)
	antennaTicker := time.NewTicker(90 * time.Millisecond)
	offsetTicker := time.NewTicker(1000 * time.Millisecond)
	qualityTicker := time.NewTicker(500 * time.Millisecond)
	frequencyTicker := time.NewTicker(750 * time.Millisecond)
	chartTicker := time.NewTicker(300 * time.Millisecond)
	defer func() {
		nameTicker.Stop()
		batteryTicker.Stop()
		antennaTicker.Stop()
		offsetTicker.Stop()
		qualityTicker.Stop()
		frequencyTicker.Stop()
		chartTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Println("Demo engine shutting down.")
			return
		case <-nameTicker.C:
			e.updateName()
		case <-batteryTicker.C:
			e.updateBatteries()
		case <-antennaTicker.C:
			e.updateAntennas()
		case <-offsetTicker.C:
			e.updateOffset()
		case <-qualityTicker.C:
			e.updateQualities()
		case <-frequencyTicker.C:
			e.updateFrequency()
		case <-chartTicker.C:
			e.updateCharts()
		}
	}
}

// seed installs one full synthetic record per slot.
func (e *Engine) seed() {
	patches := make(map[int]store.TransmitterPatch, e.slots)
	for slot := 1; slot <= e.slots; slot++ {
		tx := e.GenerateTransmitter(slot)
		patches[slot] = fullPatch(tx)
	}
	e.store.ReplaceTransmitters(patches)
}

// GenerateTransmitter produces one complete synthetic record. With the same
// seed and call sequence the output is identical across engine instances.
func (e *Engine) GenerateTransmitter(slot int) store.Transmitter {
	devType := deviceTypes[e.rand.Intn(len(deviceTypes))]
	name := channelNames[e.rand.Intn(len(channelNames))]
	battery := e.drawBattery()
	status := e.statusFor(battery)

	tx := store.Transmitter{
		Slot:      slot,
		ID:        "DEMO",
		Name:      name,
		NameRaw:   name,
		Status:    status,
		Battery:   battery,
		Runtime:   e.runtimeFor(battery),
		Antenna:   diversityPatterns[e.rand.Intn(len(diversityPatterns))],
		TXOffset:  e.rand.Intn(28),
		Quality:   e.rand.Intn(6),
		Frequency: frequencies[e.rand.Intn(len(frequencies))],
		IP:        "demo",
		Type:      devType,
		Channel:   slot,
	}
	if devType == store.TypeP10T {
		tx.AudioLevelL = e.rand.Intn(50)
		tx.AudioLevelR = e.rand.Intn(50)
	} else {
		tx.AudioLevel = e.rand.Intn(50)
	}
	tx.RFLevel = 20 + e.rand.Intn(96)
	return tx
}

// drawBattery samples the weighted battery distribution.
func (e *Engine) drawBattery() int {
	roll := e.rand.Float64()
	acc := 0.0
	for i, w := range batteryWeights {
		acc += w
		if roll < acc {
			return batteryValues[i]
		}
	}
	return batteryValues[len(batteryValues)-1]
}

// statusFor derives the display status from the battery level. The coin
// flip chooses between "transmitter on" and the PREV_ (powered off) variant.
func (e *Engine) statusFor(battery int) string {
	on := e.rand.Intn(2) == 0
	switch {
	case battery == store.ValueUnknown:
		switch e.rand.Intn(3) {
		case 0:
			return store.StatusUnassigned
		case 1:
			return store.StatusRXComError
		default:
			return store.StatusCritical
		}
	case battery <= 2:
		if on {
			return store.StatusCritical
		}
		return store.StatusPrevCritical
	case battery == 3:
		if on {
			return store.StatusReplace
		}
		return store.StatusPrevReplace
	default:
		if on {
			return store.StatusGood
		}
		return store.StatusPrevGood
	}
}

// runtimeFor derives remaining minutes from the battery level.
func (e *Engine) runtimeFor(battery int) int {
	if battery == store.ValueUnknown {
		return runtimeMains
	}
	return battery*90 + e.rand.Intn(45)
}

func (e *Engine) randomSlot() int {
	return 1 + e.rand.Intn(e.slots)
}

func (e *Engine) updateName() {
	slot := e.randomSlot()
	name := channelNames[e.rand.Intn(len(channelNames))]
	e.store.UpdateTransmitter(slot, store.TransmitterPatch{Name: &name, NameRaw: &name})
}

func (e *Engine) updateBatteries() {
	for slot := 1; slot <= e.slots; slot++ {
		if e.rand.Float64() >= 0.10 {
			continue
		}
		battery := e.drawBattery()
		status := e.statusFor(battery)
		runtime := e.runtimeFor(battery)
		e.store.UpdateTransmitter(slot, store.TransmitterPatch{
			Battery: &battery,
			Status:  &status,
			Runtime: &runtime,
		})
	}
}

func (e *Engine) updateAntennas() {
	for slot := 1; slot <= e.slots; slot++ {
		if e.rand.Float64() >= 0.30 {
			continue
		}
		antenna := diversityPatterns[e.rand.Intn(len(diversityPatterns))]
		e.store.UpdateTransmitter(slot, store.TransmitterPatch{Antenna: &antenna})
	}
}

func (e *Engine) updateOffset() {
	slot := e.randomSlot()
	offset := e.rand.Intn(28)
	e.store.UpdateTransmitter(slot, store.TransmitterPatch{TXOffset: &offset})
}

func (e *Engine) updateQualities() {
	for slot := 1; slot <= e.slots; slot++ {
		if e.rand.Float64() >= 0.20 {
			continue
		}
		quality := e.rand.Intn(6)
		e.store.UpdateTransmitter(slot, store.TransmitterPatch{Quality: &quality})
	}
}

func (e *Engine) updateFrequency() {
	slot := e.randomSlot()
	frequency := frequencies[e.rand.Intn(len(frequencies))]
	e.store.UpdateTransmitter(slot, store.TransmitterPatch{Frequency: &frequency})
}

func (e *Engine) updateCharts() {
	now := time.Now().UnixMilli()
	for slot := 1; slot <= e.slots; slot++ {
		audio := e.rand.Intn(50)
		rf := 20 + e.rand.Intn(96)
		left := e.rand.Intn(50)
		right := e.rand.Intn(50)
		e.store.AppendChartSample(store.ChartSample{
			Slot:        slot,
			Timestamp:   now,
			AudioLevel:  &audio,
			RFLevel:     &rf,
			AudioLevelL: &left,
			AudioLevelR: &right,
		})
	}
}

// fullPatch converts a complete record into a patch carrying every field.
func fullPatch(tx store.Transmitter) store.TransmitterPatch {
	return store.TransmitterPatch{
		ID:          &tx.ID,
		Name:        &tx.Name,
		NameRaw:     &tx.NameRaw,
		Status:      &tx.Status,
		Battery:     &tx.Battery,
		Runtime:     &tx.Runtime,
		Antenna:     &tx.Antenna,
		TXOffset:    &tx.TXOffset,
		Quality:     &tx.Quality,
		Frequency:   &tx.Frequency,
		IP:          &tx.IP,
		Type:        &tx.Type,
		Channel:     &tx.Channel,
		AudioLevel:  &tx.AudioLevel,
		RFLevel:     &tx.RFLevel,
		AudioLevelL: &tx.AudioLevelL,
		AudioLevelR: &tx.AudioLevelR,
	}
}

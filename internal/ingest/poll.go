// Package ingest feeds the state store from the hardware backend over two
// independent channels: a fixed-interval full-snapshot poll and a long-lived
// WebSocket push connection. Both normalize their payloads into field-level
// merge-patches so neither channel can erase values the other just wrote.
package ingest

import (
	"context"
	"log"
	"time"

	"rfboard/internal/store"
)

// StateWriter is the subset of the store the ingestion paths mutate.
type StateWriter interface {
	UpdateTransmitter(slot int, p store.TransmitterPatch)
	ReplaceTransmitters(patches map[int]store.TransmitterPatch)
	AppendChartSample(sample store.ChartSample)
	SetConfig(slots []store.SlotConfig)
	SetGroups(groups []store.Group)
	SetDiscovered(devices []store.DiscoveredDevice)
	SetReceiverStatuses(statuses map[store.ReceiverKey]string)
	SetMedia(media store.MediaLists, url string)
	SetConnectionStatus(state store.ConnectionState)
}

// Poller fetches the full snapshot on a fixed period and merges it into the
// store. The poll is authoritative for config, discovered devices and media;
// for transmitter fields it merges per slot rather than replacing records.
type Poller struct {
	client   *Client
	store    StateWriter
	interval time.Duration
}

// NewPoller creates a poller with the given period.
func NewPoller(client *Client, sw StateWriter, interval time.Duration) *Poller {
	return &Poller{client: client, store: sw, interval: interval}
}

// Run polls once immediately and then on every tick until the context is
// cancelled. It returns only when no further callback can fire.
func (p *Poller) Run(ctx context.Context) {
	log.Println("Starting snapshot poller...")
	p.PollOnce(ctx)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot poller shutting down.")
			return
		case <-timer.C:
			p.PollOnce(ctx)
			timer.Reset(p.interval)
		}
	}
}

// PollOnce performs a single snapshot fetch-and-merge cycle. A failed fetch
// only flips the connection state; last-known telemetry stays visible.
func (p *Poller) PollOnce(ctx context.Context) {
	snap, err := p.client.FetchSnapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Error fetching snapshot: %v", err)
			p.store.SetConnectionStatus(store.Disconnected)
		}
		return
	}

	p.store.ReplaceTransmitters(snapshotPatches(snap))
	p.store.SetConfig(snap.Config.Slots)
	p.store.SetGroups(snap.Config.Groups)
	p.store.SetDiscovered(snap.Discovered)
	p.store.SetReceiverStatuses(receiverStatuses(snap))
	p.store.SetMedia(store.MediaLists{JPG: snap.JPG, MP4: snap.MP4}, snap.URL)
	p.store.SetConnectionStatus(store.Connected)
}

// receiverStatuses extracts the per-unit status each receiver reports.
func receiverStatuses(snap *SnapshotPayload) map[store.ReceiverKey]string {
	statuses := make(map[store.ReceiverKey]string, len(snap.Receivers))
	for _, rx := range snap.Receivers {
		statuses[store.ReceiverKey{IP: rx.IP, Type: rx.Type}] = rx.Status
	}
	return statuses
}

// snapshotPatches flattens receivers[].tx[] into slot-keyed merge-patches,
// attaching each receiver's address and family to the transmitters it owns.
// Records that fail validation are logged and dropped.
func snapshotPatches(snap *SnapshotPayload) map[int]store.TransmitterPatch {
	patches := make(map[int]store.TransmitterPatch)
	for i := range snap.Receivers {
		rx := &snap.Receivers[i]
		for _, tx := range rx.Tx {
			slot, patch, err := tx.patch()
			if err != nil {
				log.Printf("Dropping invalid transmitter record from %s: %v", rx.IP, err)
				continue
			}
			if patch.IP == nil && rx.IP != "" {
				ip := rx.IP
				patch.IP = &ip
			}
			if patch.Type == nil && rx.Type != "" {
				t := rx.Type
				patch.Type = &t
			}
			patches[slot] = patch
		}
	}
	return patches
}

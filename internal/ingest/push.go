package ingest

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"rfboard/internal/store"
)

// PushClient maintains the long-lived push connection. Messages are batched
// arrays of chart-update, data-update and group-update entries; all three
// are applied as merge-patches. On loss the connection is retried after a
// fixed delay until the retry budget (0 = unbounded) runs out or the
// context is cancelled.
type PushClient struct {
	url            string
	store          StateWriter
	reconnectDelay time.Duration
	maxRetries     int
	dialer         *websocket.Dialer
}

// NewPushClient creates a push-channel consumer for the given ws:// URL.
func NewPushClient(url string, sw StateWriter, reconnectDelay time.Duration, maxRetries int) *PushClient {
	return &PushClient{
		url:            url,
		store:          sw,
		reconnectDelay: reconnectDelay,
		maxRetries:     maxRetries,
		dialer:         websocket.DefaultDialer,
	}
}

// Run connects and consumes messages until the context is cancelled. It
// returns only after the socket is closed and no further callback can fire.
func (c *PushClient) Run(ctx context.Context) {
	attempts := 0
	for {
		err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			log.Println("Push client shutting down.")
			return
		}
		if err != nil {
			log.Printf("Push connection lost: %v", err)
		}
		c.store.SetConnectionStatus(store.Disconnected)
		attempts++
		if c.maxRetries > 0 && attempts >= c.maxRetries {
			log.Printf("Push client giving up after %d attempts", attempts)
			return
		}

		select {
		case <-ctx.Done():
			log.Println("Push client shutting down.")
			return
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *PushClient) connectAndRead(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.store.SetConnectionStatus(store.Connected)

	// Unblock the read loop when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleMessage(data)
	}
}

// handleMessage applies one push frame. Malformed payloads are logged and
// dropped; they never take down the ingestion loop.
func (c *PushClient) handleMessage(data []byte) {
	var msg PushMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Dropping malformed push message: %v", err)
		return
	}

	for _, entry := range msg.ChartUpdate {
		sample, err := entry.sample()
		if err != nil {
			log.Printf("Dropping invalid chart update: %v", err)
			continue
		}
		c.store.AppendChartSample(sample)
	}

	for _, entry := range msg.DataUpdate {
		slot, patch, err := entry.patch()
		if err != nil {
			log.Printf("Dropping invalid data update: %v", err)
			continue
		}
		c.store.UpdateTransmitter(slot, patch)
	}

	if msg.GroupUpdate != nil {
		c.store.SetGroups(msg.GroupUpdate)
	}
}

package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rfboard/internal/store"
)

// Client talks to the hardware backend: the read path (/data.json) and the
// write path (/api/config, /api/slot, /api/group). It never interprets
// responses beyond success/failure; the backend owns all persistence.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WSURL returns the push-channel endpoint derived from the base URL.
func (c *Client) WSURL() string {
	url := c.baseURL + "/ws"
	if strings.HasPrefix(url, "https://") {
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	return "ws://" + strings.TrimPrefix(url, "http://")
}

// FetchSnapshot retrieves the full-state snapshot from /data.json.
func (c *Client) FetchSnapshot(ctx context.Context) (*SnapshotPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data.json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var snap SnapshotPayload
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// SaveConfig replaces the backend's configured slot list.
func (c *Client) SaveConfig(ctx context.Context, slots []store.SlotConfig) error {
	return c.post(ctx, "/api/config", slots)
}

// SaveSlots applies extended-name overrides.
func (c *Client) SaveSlots(ctx context.Context, updates []SlotUpdate) error {
	return c.post(ctx, "/api/slot", updates)
}

// SaveGroup stores one group definition.
func (c *Client) SaveGroup(ctx context.Context, g store.Group) error {
	return c.post(ctx, "/api/group", g)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend rejected %s: status %d", path, resp.StatusCode)
	}
	return nil
}

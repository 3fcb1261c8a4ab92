package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfboard/internal/store"
)

func startHubServer(t *testing.T) (*store.Store, *Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.New()
	hub := NewHub(s)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", hub.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return s, hub, srv, cancel
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BatchesStoreChangesIntoFrames(t *testing.T) {
	s, _, srv, cancel := startHubServer(t)
	defer cancel()

	conn := dialHub(t, srv)

	// Keep feeding samples until one lands after the subscription is live.
	feedDone := make(chan struct{})
	defer close(feedDone)
	go func() {
		for {
			select {
			case <-feedDone:
				return
			case <-time.After(25 * time.Millisecond):
				audio, rf := 40, 70
				s.AppendChartSample(store.ChartSample{Slot: 1, AudioLevel: &audio, RFLevel: &rf})
				name := "VOX 1"
				s.UpdateTransmitter(1, store.TransmitterPatch{Name: &name})
			}
		}
	}()

	// The first frame may have caught only part of a feeder iteration, so
	// read until one carries both kinds.
	var frame struct {
		ChartUpdate []store.ChartSample `json:"chart-update"`
		DataUpdate  []store.Transmitter `json:"data-update"`
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for len(frame.ChartUpdate) == 0 || len(frame.DataUpdate) == 0 {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &frame))
	}

	require.NotNil(t, frame.ChartUpdate[0].AudioLevel)
	assert.Equal(t, 40, *frame.ChartUpdate[0].AudioLevel)
	require.Len(t, frame.DataUpdate, 1, "repeated updates to one slot coalesce into the latest record")
	assert.Equal(t, "VOX 1", frame.DataUpdate[0].Name)
}

func TestHub_GroupUpdatesRelayed(t *testing.T) {
	s, _, srv, cancel := startHubServer(t)
	defer cancel()

	conn := dialHub(t, srv)

	feedDone := make(chan struct{})
	defer close(feedDone)
	go func() {
		for {
			select {
			case <-feedDone:
				return
			case <-time.After(25 * time.Millisecond):
				s.SetGroup(store.Group{Group: 3, Title: "Band", Slots: []int{5, 6}})
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		GroupUpdate []store.Group `json:"group-update"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	require.Len(t, frame.GroupUpdate, 1)
	assert.Equal(t, "Band", frame.GroupUpdate[0].Title)
}

func TestHub_TeardownDisconnectsClients(t *testing.T) {
	_, hub, srv, cancel := startHubServer(t)

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	cancel()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHub_RefusesClientsAfterShutdown(t *testing.T) {
	_, hub, srv, cancel := startHubServer(t)

	cancel()

	// Once Run has exited, new connections are refused rather than
	// registered into a hub that will never serve them.
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/ws")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	}, time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	_, hub, srv, cancel := startHubServer(t)
	defer cancel()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestHub_HandleRejectsPlainHTTP(t *testing.T) {
	_, _, srv, cancel := startHubServer(t)
	defer cancel()

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

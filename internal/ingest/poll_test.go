package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfboard/internal/store"
)

// recordingWriter is a StateWriter that records every mutation.
type recordingWriter struct {
	mu          sync.Mutex
	replaced    []map[int]store.TransmitterPatch
	updated     []store.TransmitterPatch
	samples     []store.ChartSample
	config      [][]store.SlotConfig
	groups      [][]store.Group
	discovered  [][]store.DiscoveredDevice
	rxStatus    []map[store.ReceiverKey]string
	connections []store.ConnectionState
	mutations   int
}

func (w *recordingWriter) UpdateTransmitter(slot int, p store.TransmitterPatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updated = append(w.updated, p)
	w.mutations++
}

func (w *recordingWriter) ReplaceTransmitters(patches map[int]store.TransmitterPatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaced = append(w.replaced, patches)
	w.mutations++
}

func (w *recordingWriter) AppendChartSample(sample store.ChartSample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, sample)
	w.mutations++
}

func (w *recordingWriter) SetConfig(slots []store.SlotConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.config = append(w.config, slots)
	w.mutations++
}

func (w *recordingWriter) SetGroups(groups []store.Group) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groups = append(w.groups, groups)
	w.mutations++
}

func (w *recordingWriter) SetDiscovered(devices []store.DiscoveredDevice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.discovered = append(w.discovered, devices)
	w.mutations++
}

func (w *recordingWriter) SetReceiverStatuses(statuses map[store.ReceiverKey]string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rxStatus = append(w.rxStatus, statuses)
	w.mutations++
}

func (w *recordingWriter) SetMedia(media store.MediaLists, url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mutations++
}

func (w *recordingWriter) SetConnectionStatus(state store.ConnectionState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connections = append(w.connections, state)
	w.mutations++
}

func (w *recordingWriter) mutationCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mutations
}

const snapshotJSON = `{
	"config": {
		"slots": [
			{"slot": 1, "type": "qlxd", "ip": "10.0.0.9", "channel": 1},
			{"slot": 2, "type": "qlxd", "ip": "10.0.0.9", "channel": 2}
		],
		"groups": [
			{"group": 1, "title": "FOH", "hide_charts": false, "slots": [1, 2]}
		]
	},
	"discovered": [
		{"ip": "10.0.0.20", "type": "ulxd", "channels": 4, "name": "ULXD4Q"}
	],
	"receivers": [
		{
			"ip": "10.0.0.9",
			"type": "qlxd",
			"status": "CONNECTED",
			"tx": [
				{"slot": 1, "name": "Pastor", "battery": 4, "status": "GOOD", "frequency": "470125"},
				{"slot": 2, "name": "Worship", "battery": 255, "status": "UNASSIGNED"},
				{"name": "no-slot-field"}
			]
		}
	],
	"jpg": ["stage.jpg"],
	"mp4": [],
	"url": "http://10.0.0.5:8058"
}`

func TestPoller_PollOnceMergesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data.json", r.URL.Path)
		w.Write([]byte(snapshotJSON))
	}))
	defer server.Close()

	writer := &recordingWriter{}
	poller := NewPoller(NewClient(server.URL), writer, time.Second)

	poller.PollOnce(context.Background())

	require.Len(t, writer.replaced, 1)
	patches := writer.replaced[0]
	require.Len(t, patches, 2, "invalid record must be dropped, valid ones kept")

	require.NotNil(t, patches[1].Name)
	assert.Equal(t, "Pastor", *patches[1].Name)
	require.NotNil(t, patches[1].IP)
	assert.Equal(t, "10.0.0.9", *patches[1].IP, "receiver ip is attached to its transmitters")
	require.NotNil(t, patches[1].Type)
	assert.Equal(t, store.TypeQLXD, *patches[1].Type)
	assert.Nil(t, patches[1].AudioLevel, "fields the payload does not carry stay out of the patch")

	require.NotNil(t, patches[2].Battery)
	assert.Equal(t, store.ValueUnknown, *patches[2].Battery)

	require.Len(t, writer.config, 1)
	assert.Len(t, writer.config[0], 2)
	require.Len(t, writer.groups, 1)
	require.Len(t, writer.discovered, 1)
	assert.Equal(t, store.TypeULXD, writer.discovered[0][0].Type)

	require.Len(t, writer.rxStatus, 1)
	assert.Equal(t, "CONNECTED", writer.rxStatus[0][store.ReceiverKey{IP: "10.0.0.9", Type: store.TypeQLXD}])

	require.NotEmpty(t, writer.connections)
	assert.Equal(t, store.Connected, writer.connections[len(writer.connections)-1])
}

func TestPoller_FetchFailureOnlyFlipsConnectionState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	writer := &recordingWriter{}
	poller := NewPoller(NewClient(server.URL), writer, time.Second)

	poller.PollOnce(context.Background())

	assert.Empty(t, writer.replaced, "a failed poll must not touch telemetry")
	assert.Empty(t, writer.config)
	require.Len(t, writer.connections, 1)
	assert.Equal(t, store.Disconnected, writer.connections[0])
}

func TestPoller_RecoveryAfterFailure(t *testing.T) {
	var fail bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(snapshotJSON))
	}))
	defer server.Close()

	writer := &recordingWriter{}
	poller := NewPoller(NewClient(server.URL), writer, time.Second)

	poller.PollOnce(context.Background())
	fail = true
	poller.PollOnce(context.Background())
	fail = false
	poller.PollOnce(context.Background())

	var states []store.ConnectionState
	states = append(states, writer.connections...)
	assert.Equal(t, []store.ConnectionState{store.Connected, store.Disconnected, store.Connected}, states)
	assert.Len(t, writer.replaced, 2, "telemetry merged only on the successful polls")
}

func TestPoller_NoCallbacksAfterTeardown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(snapshotJSON))
	}))
	defer server.Close()

	writer := &recordingWriter{}
	poller := NewPoller(NewClient(server.URL), writer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()
	<-done

	count := writer.mutationCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, writer.mutationCount(), "no mutation may land after Run returns")
}

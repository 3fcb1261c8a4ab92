package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfboard/internal/ingest"
	"rfboard/internal/store"
)

// stubBackend records saves and can be told to fail.
type stubBackend struct {
	failSave    bool
	savedConfig []store.SlotConfig
	savedGroup  *store.Group
	savedSlots  []ingest.SlotUpdate
}

func (b *stubBackend) SaveConfig(_ context.Context, slots []store.SlotConfig) error {
	if b.failSave {
		return errors.New("backend unavailable")
	}
	b.savedConfig = slots
	return nil
}

func (b *stubBackend) SaveSlots(_ context.Context, updates []ingest.SlotUpdate) error {
	if b.failSave {
		return errors.New("backend unavailable")
	}
	b.savedSlots = updates
	return nil
}

func (b *stubBackend) SaveGroup(_ context.Context, g store.Group) error {
	if b.failSave {
		return errors.New("backend unavailable")
	}
	b.savedGroup = &g
	return nil
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestPostConfig_SavesAndClosesEditor(t *testing.T) {
	s := store.New()
	backend := &stubBackend{}
	router := setupRouter(s, backend, false)

	w := postJSON(router, "/api/config", `[
		{"slot":1,"type":"ulxd","ip":"10.0.0.20","channel":1},
		{"slot":2,"type":"offline","ip":"10.9.9.9"}
	]`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.ModeNone, s.Mode())
	require.Len(t, backend.savedConfig, 2)
	assert.Empty(t, backend.savedConfig[1].IP, "offline slots persist without an address")
	assert.Len(t, s.Config(), 2)
}

func TestPostConfig_InvalidNumberingRejected(t *testing.T) {
	s := store.New()
	backend := &stubBackend{}
	router := setupRouter(s, backend, false)

	w := postJSON(router, "/api/config", `[{"slot":2,"type":"offline"}]`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, backend.savedConfig)
}

func TestPostConfig_BackendFailureLeavesEditorOpen(t *testing.T) {
	s := store.New()
	s.SetConnectionStatus(store.Connected)
	router := setupRouter(s, &stubBackend{failSave: true}, false)

	w := postJSON(router, "/api/config", `[{"slot":1,"type":"offline"}]`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, store.ModeConfig, s.Mode(), "editor stays open for retry or cancel")
	assert.Equal(t, store.Connected, s.ConnectionStatus())
	assert.Empty(t, s.Config(), "store config untouched on failure")
}

func TestPostGroup_SavesAndReflects(t *testing.T) {
	s := store.New()
	backend := &stubBackend{}
	router := setupRouter(s, backend, false)

	w := postJSON(router, "/api/group", `{"group":2,"title":"IEM","slots":[3,4]}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, backend.savedGroup)
	g, ok := s.Group(2)
	require.True(t, ok)
	assert.Equal(t, []int{3, 4}, g.Slots)
}

func TestPostGroup_RejectsGroupZero(t *testing.T) {
	router := setupRouter(store.New(), &stubBackend{}, false)

	w := postJSON(router, "/api/group", `{"group":0,"title":"All"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostSlots_AppliesOverrides(t *testing.T) {
	s := store.New()
	s.SetConfig([]store.SlotConfig{{Slot: 3, Type: store.TypeQLXD}})
	backend := &stubBackend{}
	router := setupRouter(s, backend, false)

	w := postJSON(router, "/api/slot", `[{"slot":3,"extended_id":"HH3","extended_name":"Lead Vox"}]`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, backend.savedSlots, 1)
	assert.Equal(t, "Lead Vox", s.Config()[0].ExtendedName)
}

func TestSettingsLifecycleEndpoints(t *testing.T) {
	s := store.New()
	router := setupRouter(s, &stubBackend{failSave: true}, false)

	// A failed save leaves CONFIG open; cancel closes it.
	postJSON(router, "/api/config", `[{"slot":1,"type":"offline"}]`)
	require.Equal(t, store.ModeConfig, s.Mode())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/settings", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mode":"CONFIG"}`, w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/settings", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, store.ModeNone, s.Mode())
}

package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"rfboard/internal/display"
	"rfboard/internal/reconcile"
	"rfboard/internal/store"
)

// snapshotResponse mirrors the backend's /data.json wire shape so UI clients
// can point at either endpoint, plus the dashboard's own connection and
// editor state.
type snapshotResponse struct {
	Config struct {
		Slots  []store.SlotConfig `json:"slots"`
		Groups []store.Group      `json:"groups"`
	} `json:"config"`
	Discovered []store.DiscoveredDevice `json:"discovered"`
	Receivers  []receiverResponse       `json:"receivers"`
	JPG        []string                 `json:"jpg"`
	MP4        []string                 `json:"mp4"`
	URL        string                   `json:"url"`
	Connection store.ConnectionState    `json:"connection"`
	Mode       store.SettingsMode       `json:"mode"`
}

// receiverResponse is one physical unit: its transmitter records grouped by
// the ip/type pair they report, with the status the backend attributed to it.
type receiverResponse struct {
	IP     string              `json:"ip"`
	Type   store.DeviceType    `json:"type"`
	Status string              `json:"status"`
	Tx     []store.Transmitter `json:"tx"`
}

// GetSnapshot handles the GET /data.json request.
func (h *Handler) GetSnapshot(c *gin.Context) {
	snap := h.store.Snapshot()

	resp := snapshotResponse{
		Discovered: snap.Discovered,
		Receivers:  groupReceivers(snap.Transmitters, snap.ReceiverStatus, string(snap.Connection)),
		JPG:        snap.Media.JPG,
		MP4:        snap.Media.MP4,
		URL:        snap.URL,
		Connection: snap.Connection,
		Mode:       snap.Mode,
	}
	resp.Config.Slots = snap.Config
	resp.Config.Groups = snap.Groups

	c.JSON(http.StatusOK, resp)
}

// groupReceivers folds the flat slot records back into per-receiver lists,
// keyed by the ip/type pair, with slots in ascending order. Records without
// an address (offline or demo slots) share one synthetic receiver. Units the
// poll never attributed a status to fall back to the engine's own connection
// state.
func groupReceivers(txs map[int]store.Transmitter, statuses map[store.ReceiverKey]string, fallback string) []receiverResponse {
	byReceiver := make(map[store.ReceiverKey][]store.Transmitter)
	for _, tx := range txs {
		k := store.ReceiverKey{IP: tx.IP, Type: tx.Type}
		byReceiver[k] = append(byReceiver[k], tx)
	}

	receivers := make([]receiverResponse, 0, len(byReceiver))
	for k, list := range byReceiver {
		sort.Slice(list, func(i, j int) bool { return list[i].Slot < list[j].Slot })
		status, ok := statuses[k]
		if !ok {
			status = fallback
		}
		receivers = append(receivers, receiverResponse{IP: k.IP, Type: k.Type, Status: status, Tx: list})
	}
	sort.Slice(receivers, func(i, j int) bool {
		if receivers[i].IP != receivers[j].IP {
			return receivers[i].IP < receivers[j].IP
		}
		return receivers[i].Type < receivers[j].Type
	})
	return receivers
}

// GetDisplayList handles the GET /api/display/{group} request.
func (h *Handler) GetDisplayList(c *gin.Context) {
	group, err := strconv.Atoi(c.Param("group"))
	if err != nil || group < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid group number"})
		return
	}

	slots := display.ListFor(group, h.store.Config(), h.store.Groups(), h.demo)
	c.JSON(http.StatusOK, gin.H{"group": group, "slots": slots})
}

// GetChartHistory handles the GET /api/charts/{slot} request.
func (h *Handler) GetChartHistory(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slot < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid slot number"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"slot": slot, "samples": h.store.ChartHistory(slot)})
}

// GetDiscovered handles the GET /api/discovered request: the scan results
// not yet present in the configuration, fanned out per channel.
func (h *Handler) GetDiscovered(c *gin.Context) {
	candidates := reconcile.Unconfigured(h.store.Discovered(), h.store.Config())
	c.JSON(http.StatusOK, candidates)
}

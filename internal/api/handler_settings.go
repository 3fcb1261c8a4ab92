package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rfboard/internal/ingest"
	"rfboard/internal/reconcile"
	"rfboard/internal/store"
)

// GetSettings handles the GET /api/settings request.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.store.Mode()})
}

// CancelSettings handles the DELETE /api/settings request: discard whatever
// editor is open and return to NONE.
func (h *Handler) CancelSettings(c *gin.Context) {
	h.session.Cancel()
	c.Status(http.StatusNoContent)
}

// PostConfig handles the POST /api/config request. The body is the full
// edited slot list; it replaces the configuration atomically. A backend
// failure leaves the editor open so the client can retry or cancel.
func (h *Handler) PostConfig(c *gin.Context) {
	var working []store.SlotConfig
	if err := c.ShouldBindJSON(&working); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid slot list payload"})
		return
	}
	if err := reconcile.Validate(working); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.session.OpenConfig()
	if err := h.session.SaveConfig(c.Request.Context(), working); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to persist configuration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PostSlots handles the POST /api/slot request: extended-name overrides.
// Empty strings clear the override for that slot.
func (h *Handler) PostSlots(c *gin.Context) {
	var updates []ingest.SlotUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid slot update payload"})
		return
	}
	for _, u := range updates {
		if u.Slot < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid slot number"})
			return
		}
	}

	h.session.OpenExtended()
	if err := h.session.SaveExtended(c.Request.Context(), updates); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to persist slot overrides"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PostGroup handles the POST /api/group request: one group definition.
func (h *Handler) PostGroup(c *gin.Context) {
	var g store.Group
	if err := c.ShouldBindJSON(&g); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid group payload"})
		return
	}
	if g.Group < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Group number must be positive"})
		return
	}

	h.session.OpenGroup(g.Group)
	if err := h.session.SaveGroup(c.Request.Context(), g); err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to persist group"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handlers

import (
	"net/http"

	"github.com/bobbycar-reinvented/bobby-websocket/internal/hub"
	"github.com/bobbycar-reinvented/bobby-websocket/internal/model"
	"github.com/gin-gonic/gin"
)

// InventoryHandler serves the read-only device inventory.
type InventoryHandler struct {
	registry *hub.Registry
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(registry *hub.Registry) *InventoryHandler {
	return &InventoryHandler{registry: registry}
}

// List handles GET /listAvailable - the current registry as a JSON array.
// The projection includes the pairing password; the dashboard consumes it to
// bootstrap pairing on the closed LAN this runs on.
func (h *InventoryHandler) List(c *gin.Context) {
	devices := h.registry.Devices()
	entries := make([]model.InventoryEntry, 0, len(devices))
	for _, d := range devices {
		entries = append(entries, model.InventoryEntry{
			Name: d.Name,
			IP:   d.IP,
			Res:  d.Res,
			Pass: d.Pass,
		})
	}
	c.JSON(http.StatusOK, entries)
}

// RegisterRoutes registers the inventory route on a gin engine.
func (h *InventoryHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/listAvailable", h.List)
}

// Package handlers provides the gin handlers for the relay upgrade route and
// the read-only inventory API.
package handlers

import (
	"github.com/bobbycar-reinvented/bobby-websocket/internal/hub"
	"github.com/gin-gonic/gin"
)

// RelayHandler upgrades inbound connections into relay sessions.
type RelayHandler struct {
	hub *hub.Handler
}

// NewRelayHandler creates a new RelayHandler.
func NewRelayHandler(h *hub.Handler) *RelayHandler {
	return &RelayHandler{hub: h}
}

// Serve handles GET / on the relay listener.
func (h *RelayHandler) Serve(c *gin.Context) {
	// The upgrade error, if any, has already been written to the response.
	h.hub.HandleConnection(c.Writer, c.Request)
}

// RegisterRoutes registers the relay route on a gin engine.
func (h *RelayHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Serve)
}

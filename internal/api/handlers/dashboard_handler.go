package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/oilchain/internal/dashboard"
)

// DashboardHandler serves the process-wide dashboard figures
type DashboardHandler struct {
	hub *dashboard.Hub
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(hub *dashboard.Hub) *DashboardHandler {
	return &DashboardHandler{hub: hub}
}

// RegisterRoutes registers the handler's routes
func (h *DashboardHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/dashboard", h.HandleGetDashboard)
	group.POST("/dashboard/refresh", h.HandleRefresh)
}

// HandleGetDashboard returns the last figures, loading them on first use.
// Figures older than a failed resync are served with a stale flag.
func (h *DashboardHandler) HandleGetDashboard(c *gin.Context) {
	d, ok := h.hub.Snapshot()
	if !ok {
		if err := h.hub.Refresh(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		d, _ = h.hub.Snapshot()
	}
	c.JSON(http.StatusOK, gin.H{"dashboard": d, "stale": h.hub.LastError() != nil})
}

// HandleRefresh reloads the figures now
func (h *DashboardHandler) HandleRefresh(c *gin.Context) {
	if err := h.hub.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	d, _ := h.hub.Snapshot()
	c.JSON(http.StatusOK, gin.H{"dashboard": d, "stale": false})
}

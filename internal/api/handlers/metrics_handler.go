package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"example.com/oilchain/internal/metrics"
)

// MetricsHandler handles metrics-related HTTP requests
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

// RegisterRoutes registers the handler's routes
func (h *MetricsHandler) RegisterRoutes(router gin.IRoutes, withMetrics bool) {
	router.GET("/health", h.HandleGetHealthCheck)
	if withMetrics {
		router.GET("/metrics", h.HandleGetMetrics)
	}
}

// HandleGetMetrics returns all metrics
func (h *MetricsHandler) HandleGetMetrics(c *gin.Context) {
	h.metrics.SetGauge("goroutines", int64(runtime.NumGoroutine()))
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// HandleGetHealthCheck reports 503 while any registered component is down
func (h *MetricsHandler) HandleGetHealthCheck(c *gin.Context) {
	snap := h.metrics.Snapshot()
	status := http.StatusOK
	if !h.metrics.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":  status == http.StatusOK,
		"details": snap.HealthChecks,
	})
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/repositories"
	"example.com/oilchain/internal/services"
)

// SearchHandler serves cross-entity search and the bulk report trail
type SearchHandler struct {
	listing *services.ListingService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(listing *services.ListingService) *SearchHandler {
	return &SearchHandler{listing: listing}
}

// RegisterRoutes registers the handler's routes
func (h *SearchHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/entities", h.HandleListEntities)
	group.GET("/search", h.HandleSearch)
	group.GET("/reports", h.HandleListReports)
}

// HandleListEntities lists the registered entities
func (h *SearchHandler) HandleListEntities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entities": catalog.Names()})
}

// HandleSearch queries every entity at once
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		respondError(c, backend.NewValidationError("", map[string]string{"q": "champ obligatoire"}))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	hits, err := h.listing.Search(c.Request.Context(), term, c.Query("entity"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "total": len(hits)})
}

// HandleListReports lists bulk run reports, most recent first
func (h *SearchHandler) HandleListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := repositories.ReportFilter{
		SessionID: c.Query("session_id"),
		Entity:    c.Query("entity"),
		Limit:     limit,
	}
	reports, err := h.listing.Reports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

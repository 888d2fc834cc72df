package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/listview"
	"example.com/oilchain/internal/models"
	"example.com/oilchain/internal/services"
)

// SessionHeader identifies the client session owning the list views
const SessionHeader = "X-Session-ID"

// ViewHandler serves the list views of every entity
type ViewHandler struct {
	listing *services.ListingService
}

// NewViewHandler creates a new view handler
func NewViewHandler(listing *services.ListingService) *ViewHandler {
	return &ViewHandler{listing: listing}
}

// RegisterRoutes registers the handler's routes
func (h *ViewHandler) RegisterRoutes(group *gin.RouterGroup) {
	views := group.Group("/views/:entity")
	{
		views.GET("", h.HandleGetView)
		views.POST("/refresh", h.HandleRefresh)
		views.PUT("/mode", h.HandleSetMode)

		views.POST("/records", h.HandleCreate)
		views.PUT("/records/:id", h.HandleUpdate)
		views.DELETE("/records/:id", h.HandleDelete)
		views.POST("/records/:id/transitions/:action", h.HandleTransition)

		views.POST("/selection/all", h.HandleSelectAll)
		views.POST("/selection/:id", h.HandleToggle)
		views.DELETE("/selection", h.HandleClearSelection)

		views.POST("/bulk/:action", h.HandleBulk)
		views.GET("/export.pdf", h.HandleExport)
	}
}

func session(c *gin.Context) string {
	return c.GetHeader(SessionHeader)
}

func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"notification": Notification{
			Level: LevelError, Code: "INVALID_REQUEST", Message: "identifiant invalide",
		}})
		return 0, false
	}
	return id, true
}

func transitionPayload(c *gin.Context) (models.TransitionPayload, error) {
	var payload models.TransitionPayload
	if c.Request.ContentLength == 0 {
		return payload, nil
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		return payload, backend.NewValidationError("corps de requête invalide", nil)
	}
	return payload, nil
}

// HandleGetView opens the view; search and mode query parameters, when
// present, replace the current filter.
func (h *ViewHandler) HandleGetView(c *gin.Context) {
	ctx := c.Request.Context()
	entity := c.Param("entity")

	resp, err := h.listing.Open(ctx, session(c), entity)
	if err != nil {
		respondError(c, err)
		return
	}

	search, hasSearch := c.GetQuery("search")
	mode, hasMode := c.GetQuery("mode")
	if hasSearch || hasMode {
		q, err := h.listing.CurrentQuery(session(c), entity)
		if err != nil {
			respondError(c, err)
			return
		}
		if hasSearch {
			q.Search = search
		}
		if hasMode {
			q.Partition = listview.Status(mode)
		}
		if resp, err = h.listing.Query(ctx, session(c), entity, q); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRefresh reloads the view from the backend
func (h *ViewHandler) HandleRefresh(c *gin.Context) {
	resp, err := h.listing.Refresh(c.Request.Context(), session(c), c.Param("entity"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ModeRequest changes the view-mode
type ModeRequest struct {
	Mode string `json:"mode"`
}

// HandleSetMode changes and remembers the view-mode
func (h *ViewHandler) HandleSetMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, backend.NewValidationError("corps de requête invalide", nil))
		return
	}
	resp, err := h.listing.SetMode(c.Request.Context(), session(c), c.Param("entity"), listview.Status(req.Mode))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCreate creates a record
func (h *ViewHandler) HandleCreate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, errors.Wrap(err, "failed to read request body"))
		return
	}
	m, err := h.listing.Create(c.Request.Context(), session(c), c.Param("entity"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": m.Record, "notification": success("Enregistrement créé")})
}

// HandleUpdate replaces a record
func (h *ViewHandler) HandleUpdate(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, errors.Wrap(err, "failed to read request body"))
		return
	}
	m, err := h.listing.Update(c.Request.Context(), session(c), c.Param("entity"), id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": m.Record, "notification": success("Enregistrement modifié")})
}

// HandleDelete deletes a record
func (h *ViewHandler) HandleDelete(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	if err := h.listing.Delete(c.Request.Context(), session(c), c.Param("entity"), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": success("Enregistrement supprimé")})
}

// HandleTransition runs a status action on one record
func (h *ViewHandler) HandleTransition(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	payload, err := transitionPayload(c)
	if err != nil {
		respondError(c, err)
		return
	}
	m, err := h.listing.Transition(c.Request.Context(), session(c), c.Param("entity"), id, c.Param("action"), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": m.Record, "status": m.Status, "notification": success("Statut mis à jour")})
}

// HandleToggle flips the selection of one record
func (h *ViewHandler) HandleToggle(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	ids, err := h.listing.Toggle(session(c), c.Param("entity"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_ids": ids})
}

// HandleSelectAll selects every visible selectable record
func (h *ViewHandler) HandleSelectAll(c *gin.Context) {
	ids, err := h.listing.SelectAll(session(c), c.Param("entity"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_ids": ids})
}

// HandleClearSelection empties the selection
func (h *ViewHandler) HandleClearSelection(c *gin.Context) {
	if err := h.listing.ClearSelection(session(c), c.Param("entity")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected_ids": []int64{}})
}

// HandleBulk runs an action over the selection. A partially failed run
// answers 207 with the report.
func (h *ViewHandler) HandleBulk(c *gin.Context) {
	payload, err := transitionPayload(c)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := h.listing.Bulk(c.Request.Context(), session(c), c.Param("entity"), c.Param("action"), payload)
	if err != nil {
		var partial *listview.PartialBatchFailure
		if !errors.As(err, &partial) {
			respondError(c, err)
			return
		}
		status, n := Classify(err)
		c.JSON(status, gin.H{"report": report, "notification": n})
		return
	}
	n := success(strconv.Itoa(len(report.Succeeded)) + " enregistrement(s) traité(s)")
	if len(report.Requested) == 0 {
		n = Notification{Level: LevelInfo, Message: "Aucun enregistrement sélectionné"}
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "notification": n})
}

// HandleExport renders the visible or selected records as a PDF
func (h *ViewHandler) HandleExport(c *gin.Context) {
	scope := listview.Scope(strings.ToLower(c.DefaultQuery("scope", string(listview.ScopeVisible))))
	if scope != listview.ScopeVisible && scope != listview.ScopeSelected {
		respondError(c, backend.NewValidationError("portée d'export invalide", map[string]string{"scope": "visible ou selected"}))
		return
	}

	entity := c.Param("entity")
	var buf bytes.Buffer
	if err := h.listing.Export(c.Request.Context(), session(c), entity, scope, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+entity+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

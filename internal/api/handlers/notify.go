package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/oilchain/internal/backend"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/listview"
	"example.com/oilchain/internal/services"
)

// Notification levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notification is the user-facing outcome of an operation. Refresh asks the
// client to reload the list because its copy may be stale.
type Notification struct {
	Level   string            `json:"level"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Refresh bool              `json:"refresh,omitempty"`
}

// Classify maps an error to its HTTP status and notification.
func Classify(err error) (int, Notification) {
	var (
		validationErr *backend.ValidationError
		notFoundErr   *backend.NotFoundError
		networkErr    *backend.NetworkError
		fetchErr      *listview.FetchError
		partialErr    *listview.PartialBatchFailure
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, Notification{
			Level:   LevelError,
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Error(),
			Fields:  validationErr.Fields,
		}
	case errors.As(err, &partialErr):
		return http.StatusMultiStatus, Notification{
			Level:   LevelWarning,
			Code:    "PARTIAL_BATCH_FAILURE",
			Message: partialErr.Error(),
		}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, Notification{
			Level:   LevelError,
			Code:    "NOT_FOUND",
			Message: "L'enregistrement n'existe plus. Actualisez la liste.",
			Refresh: true,
		}
	case errors.Is(err, backend.ErrCircuitOpen):
		return http.StatusServiceUnavailable, Notification{
			Level:   LevelError,
			Code:    "BACKEND_UNAVAILABLE",
			Message: "Le serveur est momentanément indisponible. Réessayez plus tard.",
			Refresh: true,
		}
	case errors.As(err, &fetchErr), errors.As(err, &networkErr):
		return http.StatusBadGateway, Notification{
			Level:   LevelError,
			Code:    "NETWORK_ERROR",
			Message: "Erreur de connexion au serveur. Actualisez la liste.",
			Refresh: true,
		}
	case errors.Is(err, catalog.ErrUnknownEntity), errors.Is(err, listview.ErrNotFound):
		return http.StatusNotFound, Notification{Level: LevelError, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, listview.ErrNotSelectable), errors.Is(err, listview.ErrTransitionNotOffered),
		errors.Is(err, listview.ErrTransitionInFlight):
		return http.StatusConflict, Notification{Level: LevelWarning, Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, listview.ErrInvalidPartition), errors.Is(err, services.ErrSessionRequired):
		return http.StatusBadRequest, Notification{Level: LevelError, Code: "INVALID_REQUEST", Message: err.Error()}
	}

	return http.StatusInternalServerError, Notification{
		Level:   LevelError,
		Code:    "INTERNAL_ERROR",
		Message: "Erreur interne",
	}
}

// respondError writes the notification of err and logs server-side failures.
func respondError(c *gin.Context, err error) {
	status, n := Classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"notification": n})
}

func success(message string) Notification {
	return Notification{Level: LevelSuccess, Message: message}
}

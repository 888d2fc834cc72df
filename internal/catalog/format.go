package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"example.com/oilchain/internal/models"
)

var statusLabels = map[models.Status]string{
	models.StatusPending:           "En attente",
	models.StatusInProgress:        "En cours",
	models.StatusCompleted:         "Terminée",
	models.StatusReceived:          "Reçue",
	models.StatusPendingValidation: "À valider",
	models.StatusValidated:         "Validée",
	models.StatusRejected:          "Rejetée",
	models.StatusPaid:              "Payée",
}

// StatusLabel returns the display label of a status
func StatusLabel(s models.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fullName(nom string, prenom *string) string {
	return strings.TrimSpace(nom + " " + str(prenom))
}

func number(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func money(v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	return v.StringFixed(2)
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

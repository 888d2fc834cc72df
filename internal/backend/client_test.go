package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/oilchain/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second, BreakerThreshold: 3})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestListDecodesRawArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/expeditions/", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": 1, "numero_bordereau": "BL-1", "statut": "pending"},
			{"id": 2, "numero_bordereau": "BL-2", "statut": "received"},
		})
	})

	records, err := NewResource[models.Expedition](client, "expeditions").List(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "BL-2", records[1].NumeroBordereau)
	assert.Equal(t, models.StatusReceived, records[1].Statut)
}

func TestListDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{{"id": 7, "nom": "Rakoto", "contact": "034"}},
		})
	})

	records, err := NewResource[models.Fournisseur](client, "fournisseurs").List(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].ID)
}

func TestListEmptyIsNotNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": nil})
	})

	records, err := NewResource[models.Fournisseur](client, "fournisseurs").List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSuccessFalseIsValidationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "Expédition déjà reçue",
		})
	})

	_, err := NewResource[models.Expedition](client, "expeditions").Transition(context.Background(), 3, "receive", nil)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Expédition déjà reçue", valErr.Message)
	assert.False(t, IsNetworkClass(err))
}

func TestBadRequestCarriesFieldErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"nom":     []string{"Ce champ est obligatoire."},
			"contact": "Numéro invalide",
		})
	})

	_, err := NewResource[models.Destinataire](client, "destinataires").Create(context.Background(), models.DestinatairePayload{})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Ce champ est obligatoire.", valErr.Fields["nom"])
	assert.Equal(t, "contact: Numéro invalide; nom: Ce champ est obligatoire.", valErr.Joined())
}

func TestNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := NewResource[models.Destinataire](client, "destinataires").Delete(context.Background(), 42)

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "/destinataires/42/", notFound.Path)
	assert.True(t, IsNetworkClass(err))
}

func TestServerErrorIsNetworkError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := NewResource[models.Reception](client, "receptions").List(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusBadGateway, netErr.Status)
}

func TestUnreachableBackendIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := NewClient(Options{BaseURL: url, Timeout: time.Second})

	_, err := NewResource[models.Reception](client, "receptions").List(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Zero(t, netErr.Status)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	res := NewResource[models.Reception](client, "receptions")

	for i := 0; i < 3; i++ {
		_, err := res.List(context.Background())
		require.Error(t, err)
	}
	_, err := res.List(context.Background())

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsNetworkClass(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestValidationErrorsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"success": false, "message": "invalide"})
	})
	res := NewResource[models.Reception](client, "receptions")

	for i := 0; i < 5; i++ {
		_, err := res.Create(context.Background(), map[string]string{})
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
	}
}

func TestTransitionPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agregages/5/validate/", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": 5, "statut": "validated", "prix_unitaire": "125000.00"},
		})
	})

	a, err := NewResource[models.Agregage](client, "agregages").Transition(context.Background(), 5, "validate", nil)

	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, a.Statut)
	require.NotNil(t, a.PrixUnitaire)
	assert.True(t, decimal.NewFromInt(125000).Equal(*a.PrixUnitaire))
}

func TestRawRecordWithDataFieldIsNotAnEnvelope(t *testing.T) {
	body := []byte(`{"id": 9, "data": "x"}`)

	_, ok := parseEnvelope(body)

	assert.False(t, ok)
}

func TestDashboardFetchesAllParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dashboard/solde/":
			writeJSON(w, http.StatusOK, map[string]interface{}{"solde": "1500.50", "total_entree": "2000", "total_sortie": "499.50"})
		case "/dashboard/stock/":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": []map[string]interface{}{{"produit": "ylang", "quantite": 12.5}}})
		case "/dashboard/stats/":
			writeJSON(w, http.StatusOK, map[string]interface{}{"expeditions": 4, "expeditions_en_attente": 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	d, err := client.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "1500.5", d.Solde.Solde.String())
	require.Len(t, d.Stock, 1)
	assert.Equal(t, 12.5, d.Stock[0].Quantite)
	assert.Equal(t, 1, d.Stats.ExpeditionsPending)
	assert.False(t, d.FetchedAt.IsZero())
}

func TestDashboardFailsWhenOnePartFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dashboard/stock/" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	})

	_, err := client.Dashboard(context.Background())

	assert.True(t, IsNetworkClass(err))
}

func TestCreateWithSuccessOnlyReplyIsErrNoRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "message": "Destinataire créé"})
	})

	_, err := NewResource[models.Destinataire](client, "destinataires").Create(context.Background(), models.DestinatairePayload{})

	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestTransitionWithSuccessOnlyReplyFetchesRecord(t *testing.T) {
	var gets int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/expeditions/3/receive/":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Réception confirmée"})
		case r.Method == http.MethodGet && r.URL.Path == "/expeditions/3/":
			atomic.AddInt32(&gets, 1)
			writeJSON(w, http.StatusOK, map[string]interface{}{"id": 3, "statut": "received"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	e, err := NewResource[models.Expedition](client, "expeditions").Transition(context.Background(), 3, "receive", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(3), e.ID)
	assert.Equal(t, models.StatusReceived, e.Statut)
	assert.Equal(t, int32(1), atomic.LoadInt32(&gets))
}

func TestUpdateWithSuccessOnlyReplyFetchesRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 7, "nom": "Rakoto", "contact": "034"})
	})

	f, err := NewResource[models.Fournisseur](client, "fournisseurs").Update(context.Background(), 7, models.FournisseurPayload{})

	require.NoError(t, err)
	assert.Equal(t, int64(7), f.ID)
	assert.Equal(t, "Rakoto", f.Nom)
}

func TestGetRejectsRecordWithOtherID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	_, err := NewResource[models.Fournisseur](client, "fournisseurs").Get(context.Background(), 7)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

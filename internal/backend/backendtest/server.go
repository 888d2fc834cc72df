// Package backendtest provides an in-memory business backend for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"example.com/oilchain/internal/backend"
)

var actionTargets = map[string]string{
	"start":    "in_progress",
	"complete": "completed",
	"receive":  "received",
	"validate": "validated",
	"reject":   "rejected",
	"pay":      "paid",
}

var initialStatus = map[string]string{
	"distillations": "pending",
	"expeditions":   "pending",
	"receptions":    "pending",
	"agregages":     "pending_validation",
}

// Server is a fake REST backend keeping collections of JSON objects
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string][]map[string]interface{}
	failures    map[string]int
	bare        map[string]bool
	delays      map[string]time.Duration
	calls       map[string]int
	nextID      int64
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		collections: make(map[string][]map[string]interface{}),
		failures:    make(map[string]int),
		bare:        make(map[string]bool),
		delays:      make(map[string]time.Duration),
		calls:       make(map[string]int),
		nextID:      1000,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Client returns a backend client pointed at the server
func (s *Server) Client() *backend.Client {
	return backend.NewClient(backend.Options{BaseURL: s.URL, Timeout: 2 * time.Second, BreakerThreshold: 100})
}

// Seed appends records to a collection
func (s *Server) Seed(entity string, records ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[entity] = append(s.collections[entity], records...)
}

// Fail makes every request matching method and path answer with status
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// SucceedBare makes requests matching method and path take effect but answer
// with a success flag and a message only.
func (s *Server) SucceedBare(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bare[method+" "+path] = true
}

// Delay holds the answer of requests matching method and path for d, or
// until the client gives up.
func (s *Server) Delay(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[method+" "+path] = d
}

// Calls returns how many requests hit method and path
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	s.mu.Lock()
	delay := s.delays[key]
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[key]++
	if status, ok := s.failures[key]; ok {
		writeJSON(w, status, map[string]interface{}{"success": false, "message": "échec simulé"})
		return
	}
	if s.bare[key] {
		rec := httptest.NewRecorder()
		s.route(rec, r)
		if rec.Code >= 300 {
			copyResponse(w, rec)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Opération effectuée"})
		return
	}
	s.route(w, r)
}

func copyResponse(w http.ResponseWriter, rec *httptest.ResponseRecorder) {
	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if parts[0] == "dashboard" {
		s.dashboard(w, parts)
		return
	}

	entity := parts[0]
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		records := s.collections[entity]
		if records == nil {
			records = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, records)
	case len(parts) == 1 && r.Method == http.MethodPost:
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
			return
		}
		s.nextID++
		body["id"] = s.nextID
		if st, ok := initialStatus[entity]; ok {
			body["statut"] = st
		}
		s.collections[entity] = append(s.collections[entity], body)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": body})
	case len(parts) >= 2:
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid id"})
			return
		}
		idx := s.find(entity, id)
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
			return
		}
		s.item(w, r, entity, idx, parts[2:])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) item(w http.ResponseWriter, r *http.Request, entity string, idx int, rest []string) {
	record := s.collections[entity][idx]
	switch {
	case len(rest) == 1 && r.Method == http.MethodPost:
		target, ok := actionTargets[rest[0]]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "unknown action"})
			return
		}
		record["statut"] = target
		writeJSON(w, http.StatusOK, record)
	case r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, record)
	case r.Method == http.MethodPut:
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
			return
		}
		for k, v := range body {
			record[k] = v
		}
		writeJSON(w, http.StatusOK, record)
	case r.Method == http.MethodDelete:
		list := s.collections[entity]
		s.collections[entity] = append(list[:idx:idx], list[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) find(entity string, id int64) int {
	for i, rec := range s.collections[entity] {
		if toInt(rec["id"]) == id {
			return i
		}
	}
	return -1
}

func (s *Server) dashboard(w http.ResponseWriter, parts []string) {
	if len(parts) < 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch parts[1] {
	case "solde":
		writeJSON(w, http.StatusOK, map[string]interface{}{"solde": "1500.00", "total_entree": "2000.00", "total_sortie": "500.00"})
	case "stock":
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"produit": "huile essentielle", "quantite": float64(len(s.collections["agregages"]))},
		})
	case "stats":
		pending := 0
		for _, rec := range s.collections["expeditions"] {
			if rec["statut"] == "pending" {
				pending++
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"expeditions_en_attente": pending})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package search

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/oilchain/config"
	"example.com/oilchain/internal/catalog"
	"example.com/oilchain/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type fakeElastic struct {
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if f.respond != nil {
		f.respond(w, r)
		return
	}
	_, _ = w.Write([]byte(`{"result":"created"}`))
}

func newTestClient(t *testing.T, fake *fakeElastic) *ElasticClient {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client, err := NewElasticClient(config.ElasticConfig{URL: srv.URL, Prefix: "oilchain", Index: "records"})
	require.NoError(t, err)
	return client
}

func TestBuildDocument(t *testing.T) {
	notes := "lot premium"
	doc := BuildDocument(catalog.ExpeditionSpec(), models.Expedition{
		ID:              12,
		NumeroBordereau: "BL-12",
		TypeProduit:     "ylang",
		Observations:    &notes,
		Statut:          models.StatusPending,
	})

	assert.Equal(t, "expeditions-12", doc.ID())
	assert.Equal(t, "BL-12", doc.Title)
	assert.Equal(t, "BL-12 | ylang | lot premium", doc.Text)
	assert.Equal(t, "pending", doc.Status)
}

func TestIndexDocument(t *testing.T) {
	fake := &fakeElastic{}
	client := newTestClient(t, fake)

	err := client.IndexDocument(context.Background(), Document{Entity: "receptions", RecordID: 3, Title: "REC-3"})

	require.NoError(t, err)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, http.MethodPut, fake.requests[0].Method)
	assert.Equal(t, "/oilchain-records/_doc/receptions-3", fake.requests[0].Path)
	assert.Contains(t, fake.requests[0].Body, `"title":"REC-3"`)
}

func TestDeleteMissingDocumentIsIgnored(t *testing.T) {
	fake := &fakeElastic{respond: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	}}
	client := newTestClient(t, fake)

	assert.NoError(t, client.DeleteDocument(context.Background(), "receptions", 3))
}

func TestBulkIndexWritesNDJSON(t *testing.T) {
	fake := &fakeElastic{respond: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	}}
	client := newTestClient(t, fake)

	err := client.BulkIndex(context.Background(), []Document{
		{Entity: "agregages", RecordID: 1},
		{Entity: "agregages", RecordID: 2},
	})

	require.NoError(t, err)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "/oilchain-records/_bulk", fake.requests[0].Path)

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(fake.requests[0].Body))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_id":"agregages-2"}}`, lines[2])
}

func TestBulkIndexReportsItemErrors(t *testing.T) {
	fake := &fakeElastic{respond: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":true,"items":[]}`))
	}}
	client := newTestClient(t, fake)

	err := client.BulkIndex(context.Background(), []Document{{Entity: "agregages", RecordID: 1}})

	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	fake := &fakeElastic{respond: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_score":2.5,"_source":{"entity":"fournisseurs","record_id":7,"title":"Rakoto"}},
			{"_score":1.1,"_source":{"entity":"receptions","record_id":3,"title":"REC-3"}}
		]}}`))
	}}
	client := newTestClient(t, fake)

	hits, err := client.Search(context.Background(), "rakoto", "fournisseurs", 0)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Rakoto", hits[0].Title)
	assert.Equal(t, 2.5, hits[0].Score)

	var query map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(fake.requests[0].Body), &query))
	assert.EqualValues(t, 20, query["size"])
	assert.Contains(t, fake.requests[0].Body, `"entity":"fournisseurs"`)
}

func TestSearchError(t *testing.T) {
	fake := &fakeElastic{respond: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception"}}`))
	}}
	client := newTestClient(t, fake)

	_, err := client.Search(context.Background(), "x", "", 5)

	assert.ErrorContains(t, err, "parsing_exception")
}

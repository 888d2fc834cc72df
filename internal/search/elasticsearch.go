package search

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/oilchain/config"
)

// Hit is one search result
type Hit struct {
	Document
	Score float64 `json:"score"`
}

// ElasticClient maintains the cross-entity record index
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

func (c *ElasticClient) index() string {
	return config.FormatIndex(c.config, c.config.Index)
}

// IndexDocument adds or replaces one document
func (c *ElasticClient) IndexDocument(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal search document")
	}

	req := esapi.IndexRequest{
		Index:      c.index(),
		DocumentID: doc.ID(),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index", res)
	}

	log.Debug().Str("document", doc.ID()).Msg("Record indexed")
	return nil
}

// DeleteDocument removes a record from the index. Missing documents are ignored.
func (c *ElasticClient) DeleteDocument(ctx context.Context, entity string, id int64) error {
	req := esapi.DeleteRequest{
		Index:      c.index(),
		DocumentID: DocumentID(entity, id),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

// BulkIndex replaces the given documents in one request
func (c *ElasticClient) BulkIndex(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": doc.ID()}}
		if err := enc.Encode(meta); err != nil {
			return errors.Wrap(err, "failed to encode bulk action")
		}
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "failed to encode bulk document")
		}
	}

	req := esapi.BulkRequest{
		Index:   c.index(),
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch bulk request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("bulk", res)
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return errors.Wrap(err, "failed to parse Elasticsearch bulk response")
	}
	if result.Errors {
		return errors.New("Elasticsearch bulk request reported item errors")
	}

	log.Info().Int("documents", len(docs)).Msg("Records reindexed")
	return nil
}

// Search runs a free-text query across entities. entity narrows the search when set.
func (c *ElasticClient) Search(ctx context.Context, term, entity string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"match": map[string]interface{}{
						"text": map[string]interface{}{
							"query":     term,
							"operator":  "and",
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": entityFilter(entity),
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.index()},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Score  float64  `json:"_score"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits := make([]Hit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, Hit{Document: h.Source, Score: h.Score})
	}
	return hits, nil
}

func entityFilter(entity string) []interface{} {
	if entity == "" {
		return []interface{}{}
	}
	return []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"entity": entity}},
	}
}

func responseError(op string, res *esapi.Response) error {
	var e map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		return errors.Wrapf(err, "failed to parse Elasticsearch %s error response", op)
	}
	return errors.Errorf("Elasticsearch %s error [%d]: %v", op, res.StatusCode, e)
}

// Package elasticsearch implements the search backend contract on top
// of an Elasticsearch cluster. Each logical index maps to one ES index
// created lazily with a dynamic string mapping (text plus keyword
// subfield), so the same client serves books, authors and reviews.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sony/gobreaker/v2"

	"github.com/HadesXChaos/WebBookRate/internal/search"
)

// indexAttrs holds the attribute configuration declared for one index.
// Searchable attributes drive the multi_match field list; filterable
// and sortable sets are validated at query-build time.
type indexAttrs struct {
	searchable []string
	filterable []string
	sortable   []string
}

// Client is an Elasticsearch-backed implementation of search.Client.
// Read queries go through a circuit breaker so a flapping cluster
// fails fast instead of holding request goroutines on timeouts. Index
// writes stay direct; the consumer's retry and DLQ path already covers
// them.
type Client struct {
	es      *elasticsearch.Client
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[*search.Result]

	mu      sync.Mutex
	ensured map[string]bool
	attrs   map[string]*indexAttrs
}

// esSearchResponse decodes Elasticsearch search responses.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source search.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse decodes Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// esErrorResponse decodes Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a client connected to the given URL.
func New(esURL string, logger *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[*search.Result](gobreaker.Settings{
		Name:        "elasticsearch-search",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("search circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		es:      es,
		logger:  logger,
		breaker: breaker,
		ensured: make(map[string]bool),
		attrs:   make(map[string]*indexAttrs),
	}, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// getAttrs returns the attribute configuration for an index, creating
// an empty one if needed. Caller must hold c.mu.
func (c *Client) getAttrs(index string) *indexAttrs {
	a, ok := c.attrs[index]
	if !ok {
		a = &indexAttrs{}
		c.attrs[index] = a
	}
	return a
}

// ensureIndex creates the ES index with the dynamic mapping when it
// does not exist yet. Results are cached per index name.
func (c *Client) ensureIndex(ctx context.Context, index string) error {
	c.mu.Lock()
	done := c.ensured[index]
	c.mu.Unlock()
	if done {
		return nil
	}

	res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()

	if res.StatusCode != 200 {
		res, err = c.es.Indices.Create(
			index,
			c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
			c.es.Indices.Create.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		defer func() { _ = res.Body.Close() }()

		if res.IsError() {
			var errResp esErrorResponse
			if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "resource_already_exists_exception" {
				return fmt.Errorf("create index: %s: %s", errResp.Error.Type, errResp.Error.Reason)
			}
		}
		c.logger.Info("elasticsearch index ensured", "index", index)
	}

	c.mu.Lock()
	c.ensured[index] = true
	c.mu.Unlock()
	return nil
}

// AddDocuments adds or replaces documents via the bulk NDJSON API.
func (c *Client) AddDocuments(ctx context.Context, index string, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := c.ensureIndex(ctx, index); err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]any{"_index": index, "_id": doc.ID()},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("bulk add: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("bulk add: encode document: %w", err)
		}
	}

	return c.bulk(ctx, index, &buf, "bulk add")
}

// DeleteDocuments removes documents by ID via the bulk API.
// Missing documents (404 per item) are not an error.
func (c *Client) DeleteDocuments(ctx context.Context, index string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.ensureIndex(ctx, index); err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, id := range ids {
		action := map[string]any{
			"delete": map[string]any{"_index": index, "_id": id},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("bulk delete: encode action: %w", err)
		}
	}

	return c.bulk(ctx, index, &buf, "bulk delete")
}

// bulk executes a bulk request and surfaces per-item failures,
// ignoring 404s from delete actions.
func (c *Client) bulk(ctx context.Context, index string, body *bytes.Buffer, op string) error {
	res, err := c.es.Bulk(
		bytes.NewReader(body.Bytes()),
		c.es.Bulk.WithIndex(index),
		c.es.Bulk.WithRefresh("true"),
		c.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("%s: unexpected status %s", op, res.Status())
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	if bulkResp.Errors {
		var errMsgs []string
		for _, item := range bulkResp.Items {
			for _, result := range item {
				if result.Error.Type != "" && result.Status != 404 {
					errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s: %s", result.ID, result.Error.Type, result.Error.Reason))
				}
			}
		}
		if len(errMsgs) > 0 {
			return fmt.Errorf("%s: partial errors: %s", op, strings.Join(errMsgs, "; "))
		}
	}

	return nil
}

// UpdateSearchableAttributes declares the full-text match fields.
// The configuration is held client-side and applied at query time, so
// repeating the call is a no-op.
func (c *Client) UpdateSearchableAttributes(ctx context.Context, index string, attrs []string) error {
	if err := c.ensureIndex(ctx, index); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getAttrs(index).searchable = attrs
	return nil
}

// UpdateFilterableAttributes declares the filterable fields.
func (c *Client) UpdateFilterableAttributes(ctx context.Context, index string, attrs []string) error {
	if err := c.ensureIndex(ctx, index); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getAttrs(index).filterable = attrs
	return nil
}

// UpdateSortableAttributes declares the sortable fields.
func (c *Client) UpdateSortableAttributes(ctx context.Context, index string, attrs []string) error {
	if err := c.ensureIndex(ctx, index); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getAttrs(index).sortable = attrs
	return nil
}

// Search runs a multi_match query over the declared searchable
// attributes. An empty attribute set matches all fields.
func (c *Client) Search(ctx context.Context, index, query string, opts search.Options) (*search.Result, error) {
	if err := c.ensureIndex(ctx, index); err != nil {
		return nil, err
	}

	c.mu.Lock()
	fields := c.getAttrs(index).searchable
	c.mu.Unlock()
	if len(fields) == 0 {
		fields = []string{"*"}
	}

	esQuery := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    fields,
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
		"from":             opts.Offset,
		"size":             pageSize(opts.Limit),
		"track_total_hits": true,
	}
	if sortClause := buildSort(opts.Sort); sortClause != nil {
		esQuery["sort"] = sortClause
	}

	return c.runQuery(ctx, index, esQuery)
}

// GetDocuments lists documents with match_all (browse mode).
func (c *Client) GetDocuments(ctx context.Context, index string, opts search.Options) (*search.Result, error) {
	if err := c.ensureIndex(ctx, index); err != nil {
		return nil, err
	}

	esQuery := map[string]any{
		"query":            map[string]any{"match_all": map[string]any{}},
		"from":             opts.Offset,
		"size":             pageSize(opts.Limit),
		"track_total_hits": true,
	}
	if sortClause := buildSort(opts.Sort); sortClause != nil {
		esQuery["sort"] = sortClause
	}

	return c.runQuery(ctx, index, esQuery)
}

func (c *Client) runQuery(ctx context.Context, index string, esQuery map[string]any) (*search.Result, error) {
	return c.breaker.Execute(func() (*search.Result, error) {
		return c.doQuery(ctx, index, esQuery)
	})
}

func (c *Client) doQuery(ctx context.Context, index string, esQuery map[string]any) (*search.Result, error) {
	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("search: marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(data)),
		c.es.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return nil, fmt.Errorf("search: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return nil, fmt.Errorf("search: unexpected status %s", res.Status())
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	hits := make([]search.Document, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		hits = append(hits, hit.Source)
	}

	return &search.Result{
		Hits:           hits,
		EstimatedTotal: esResp.Hits.Total.Value,
	}, nil
}

func pageSize(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// buildSort translates "field:direction" expressions into the ES sort
// clause. Unmapped fields sort as keywords rather than failing.
func buildSort(exprs []string) []any {
	if len(exprs) == 0 {
		return nil
	}
	sortClause := make([]any, 0, len(exprs))
	for _, expr := range exprs {
		field, desc := search.ParseSort(expr)
		order := "asc"
		if desc {
			order = "desc"
		}
		sortClause = append(sortClause, map[string]any{
			field: map[string]any{"order": order, "unmapped_type": "keyword"},
		})
	}
	return sortClause
}

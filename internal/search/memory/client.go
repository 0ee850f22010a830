// Package memory provides an in-memory search backend used by tests
// and local development. Matching is case-insensitive substring search
// over the searchable attributes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/HadesXChaos/WebBookRate/internal/search"
)

// index holds the documents and attribute configuration for one
// logical index. Insertion order is preserved for browse mode.
type index struct {
	docs       map[string]search.Document
	order      []string
	searchable []string
	filterable []string
	sortable   []string
}

// Client is an in-memory implementation of search.Client.
// Safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	indexes map[string]*index
}

// New creates an empty in-memory search client.
func New() *Client {
	return &Client{indexes: make(map[string]*index)}
}

// getOrCreate returns the named index, creating it when absent.
// Caller must hold the write lock; read paths use lookup instead.
func (c *Client) getOrCreate(name string) *index {
	idx, ok := c.indexes[name]
	if !ok {
		idx = &index{docs: make(map[string]search.Document)}
		c.indexes[name] = idx
	}
	return idx
}

// lookup is the read-only counterpart of getOrCreate. A missing index
// behaves as an empty one.
func (c *Client) lookup(name string) *index {
	if idx, ok := c.indexes[name]; ok {
		return idx
	}
	return &index{}
}

// AddDocuments adds or replaces documents keyed by their "id" field.
func (c *Client) AddDocuments(_ context.Context, indexName string, docs []search.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.getOrCreate(indexName)
	for _, doc := range docs {
		id := doc.ID()
		if _, exists := idx.docs[id]; !exists {
			idx.order = append(idx.order, id)
		}
		idx.docs[id] = doc
	}
	return nil
}

// DeleteDocuments removes documents by ID. Missing IDs are ignored.
func (c *Client) DeleteDocuments(_ context.Context, indexName string, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.getOrCreate(indexName)
	for _, id := range ids {
		if _, exists := idx.docs[id]; !exists {
			continue
		}
		delete(idx.docs, id)
		for i, ordered := range idx.order {
			if ordered == id {
				idx.order = append(idx.order[:i], idx.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// UpdateSearchableAttributes declares the full-text match fields.
func (c *Client) UpdateSearchableAttributes(_ context.Context, indexName string, attrs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(indexName).searchable = attrs
	return nil
}

// UpdateFilterableAttributes declares the filterable fields.
func (c *Client) UpdateFilterableAttributes(_ context.Context, indexName string, attrs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(indexName).filterable = attrs
	return nil
}

// UpdateSortableAttributes declares the sortable fields.
func (c *Client) UpdateSortableAttributes(_ context.Context, indexName string, attrs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getOrCreate(indexName).sortable = attrs
	return nil
}

// Search runs a substring query over the searchable attributes.
// When no searchable attributes were declared, all string fields match.
func (c *Client) Search(_ context.Context, indexName, query string, opts search.Options) (*search.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.lookup(indexName)
	queryLower := strings.ToLower(query)

	matched := make([]search.Document, 0)
	for _, id := range idx.order {
		doc := idx.docs[id]
		if queryLower == "" || matches(doc, idx.searchable, queryLower) {
			matched = append(matched, doc)
		}
	}

	sortDocs(matched, opts.Sort)
	return paginate(matched, opts), nil
}

// GetDocuments lists documents without a query (browse mode).
func (c *Client) GetDocuments(_ context.Context, indexName string, opts search.Options) (*search.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.lookup(indexName)
	docs := make([]search.Document, 0, len(idx.order))
	for _, id := range idx.order {
		docs = append(docs, idx.docs[id])
	}

	sortDocs(docs, opts.Sort)
	return paginate(docs, opts), nil
}

// Count returns the number of documents in an index (used in tests).
func (c *Client) Count(indexName string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lookup(indexName).docs)
}

func matches(doc search.Document, searchable []string, queryLower string) bool {
	if len(searchable) == 0 {
		for _, v := range doc {
			if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), queryLower) {
				return true
			}
		}
		return false
	}
	for _, attr := range searchable {
		if s, ok := doc[attr].(string); ok && strings.Contains(strings.ToLower(s), queryLower) {
			return true
		}
	}
	return false
}

func sortDocs(docs []search.Document, exprs []string) {
	if len(exprs) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, expr := range exprs {
			field, desc := search.ParseSort(expr)
			cmp := compareValues(docs[i][field], docs[j][field])
			if cmp == 0 {
				continue
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareValues orders JSON-decoded field values. Numbers come out of
// json.Unmarshal as float64.
func compareValues(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs)
}

func paginate(docs []search.Document, opts search.Options) *search.Result {
	total := len(docs)

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &search.Result{
		Hits:           docs[offset:end],
		EstimatedTotal: total,
	}
}

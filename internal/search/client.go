// Package search defines the contract against the external document
// index. Any backend implementing the primitives below is
// substitutable; documents are flat key-value projections owned by the
// indexing pipeline, never the source of truth.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a flat key-value projection of an entity. Every document
// carries a string "id" field used as its primary key in the index.
type Document map[string]any

// NewDocument converts any JSON-marshalable value to a Document.
func NewDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// ID returns the document's "id" field, or "" when absent.
func (d Document) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Options control pagination and ordering for Search and GetDocuments.
type Options struct {
	// Limit is the maximum number of hits per page.
	Limit int
	// Offset is the zero-based number of hits to skip.
	Offset int
	// Sort is an ordered list of "field:asc" / "field:desc" expressions.
	Sort []string
}

// Result is a page of documents plus an estimated total match count.
type Result struct {
	Hits           []Document `json:"hits"`
	EstimatedTotal int        `json:"estimated_total"`
}

// Client is the search backend contract.
//
// Attribute updates are idempotent and safe to repeat; they declare
// which document fields participate in full-text matching, filtering
// and sorting for a given index.
type Client interface {
	// AddDocuments adds or replaces documents in the index, keyed by
	// their "id" field.
	AddDocuments(ctx context.Context, index string, docs []Document) error

	// DeleteDocuments removes documents from the index by ID. Missing
	// documents are not an error.
	DeleteDocuments(ctx context.Context, index string, ids []string) error

	// UpdateSearchableAttributes declares the fields full-text queries
	// match against.
	UpdateSearchableAttributes(ctx context.Context, index string, attrs []string) error

	// UpdateFilterableAttributes declares the fields filters may
	// reference.
	UpdateFilterableAttributes(ctx context.Context, index string, attrs []string) error

	// UpdateSortableAttributes declares the fields sort expressions may
	// reference.
	UpdateSortableAttributes(ctx context.Context, index string, attrs []string) error

	// Search runs a full-text query and returns a page of hits.
	Search(ctx context.Context, index, query string, opts Options) (*Result, error)

	// GetDocuments lists documents without a query (browse mode).
	GetDocuments(ctx context.Context, index string, opts Options) (*Result, error)
}

// ParseSort splits a "field:direction" expression. Direction defaults
// to ascending when omitted or unrecognized.
func ParseSort(expr string) (field string, desc bool) {
	field, dir, found := strings.Cut(expr, ":")
	if found && strings.EqualFold(dir, "desc") {
		return field, true
	}
	return field, false
}

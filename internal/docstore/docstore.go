// Package docstore defines the document store every repository writes to:
// named collections of JSON-shaped documents keyed by string ids, with simple
// filtered queries and live snapshot listeners. Backends live in subpackages.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no document exists at the id.
var ErrNotFound = errors.New("document not found")

// Fields is the body of a document. Values follow encoding/json decoding
// rules: numbers are float64, nested objects are map[string]any.
type Fields map[string]any

// Document is one stored record.
type Document struct {
	ID     string
	Fields Fields
}

// Op is a filter comparison operator.
type Op string

const (
	OpEqual          Op = "=="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
)

// Filter compares a top-level field against a value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where is shorthand for building a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Direction is the sort order of a query.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Query selects documents from a collection. Filters are ANDed. When OrderBy
// is set, documents without that field are excluded. Limit <= 0 means no limit.
type Query struct {
	Filters   []Filter
	OrderBy   string
	Direction Direction
	Limit     int
}

// Listener receives a full snapshot on subscribe and after every change to
// the collection, or an error.
type Listener func(docs []Document, err error)

// Subscription is a live listener registration. Close stops deliveries.
type Subscription interface {
	Close()
}

// Collection is a named set of documents.
type Collection interface {
	Get(ctx context.Context, id string) (Document, error)
	// Set creates or fully replaces the document at id.
	Set(ctx context.Context, id string, fields Fields) error
	// Add stores fields under a backend-generated id and returns it.
	Add(ctx context.Context, fields Fields) (string, error)
	// Delete removes the document; deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Listen(ctx context.Context, q Query, fn Listener) (Subscription, error)
}

// Store opens collections on one backend.
type Store interface {
	Collection(name string) Collection
	Close() error
}

// Versioned is implemented by backends with a migrated SQL schema.
type Versioned interface {
	SchemaVersion(ctx context.Context) (current, latest int, err error)
}

// Normalize round-trips fields through JSON so every backend stores and
// compares the same value shapes.
func Normalize(fields Fields) (Fields, error) {
	if fields == nil {
		return Fields{}, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return Decode(data)
}

// Decode parses a stored JSON body.
func Decode(data []byte) (Fields, error) {
	var out Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if out == nil {
		out = Fields{}
	}
	return out, nil
}

// Encode serializes fields for storage.
func Encode(fields Fields) ([]byte, error) {
	if fields == nil {
		fields = Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// OwnerFilter reports the value of an equality filter on field, letting
// backends that index document owners narrow a scan before matching.
func OwnerFilter(q Query, field string) (string, bool) {
	for _, f := range q.Filters {
		if f.Field != field || f.Op != OpEqual {
			continue
		}
		if s, ok := f.Value.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Package repository translates typed records to store documents. Every
// operation resolves the signed-in user first and scopes reads and writes to
// that user's documents.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// Deps are the collaborators every repository shares.
type Deps struct {
	Store  docstore.Store
	Oracle identity.Oracle
	// Clock stamps creation times and decides "today". Defaults to the wall clock.
	Clock utils.Clock
	// Location is the zone calendar days are computed in. Defaults to time.Local.
	Location *time.Location
}

func (d Deps) clock() utils.Clock {
	if d.Clock == nil {
		return utils.SystemClock
	}
	return d.Clock
}

func (d Deps) location() *time.Location {
	if d.Location == nil {
		return time.Local
	}
	return d.Location
}

// now returns the current instant in the configured zone.
func (d Deps) now() time.Time {
	return d.clock()().In(d.location())
}

// stamp normalises a stored instant: UTC, whole seconds, so RFC 3339 strings
// sort chronologically.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// records holds the user-scoped CRUD shared by every entity.
type records[T any] struct {
	deps  Deps
	name  string
	coll  docstore.Collection
	setID func(*T, string)
}

func newRecords[T any](deps Deps, name string, setID func(*T, string)) records[T] {
	return records[T]{deps: deps, name: name, coll: deps.Store.Collection(name), setID: setID}
}

// uid resolves the current user or fails before any I/O.
func (r records[T]) uid() (string, error) {
	uid, ok := r.deps.Oracle.CurrentUser()
	if !ok {
		return "", apperrors.ErrNotAuthenticated
	}
	return uid, nil
}

// Now is the current instant in the configured zone.
func (r records[T]) Now() time.Time {
	return r.deps.now()
}

// Today is the current date string in the configured zone.
func (r records[T]) Today() string {
	return utils.DateString(r.deps.now())
}

func encode[T any](v T) (docstore.Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields, err := docstore.Decode(data)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

func (r records[T]) decode(doc docstore.Document) (T, error) {
	var v T
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	r.setID(&v, doc.ID)
	return v, nil
}

// decodeAll drops documents that do not decode, logging each at debug.
func (r records[T]) decodeAll(docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := r.decode(doc)
		if err != nil {
			logger.Debug("skipping undecodable document", "collection", r.name, "id", doc.ID, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func owner(doc docstore.Document) string {
	s, _ := doc.Fields[constants.FieldUserID].(string)
	return s
}

// userQuery scopes q to uid.
func userQuery(uid string, q docstore.Query) docstore.Query {
	filters := make([]docstore.Filter, 0, len(q.Filters)+1)
	filters = append(filters, docstore.Where(constants.FieldUserID, docstore.OpEqual, uid))
	q.Filters = append(filters, q.Filters...)
	return q
}

// get loads id when it belongs to the current user. Other users' documents
// report docstore.ErrNotFound.
func (r records[T]) get(ctx context.Context, id string) (T, error) {
	var zero T
	uid, err := r.uid()
	if err != nil {
		return zero, err
	}
	doc, err := r.coll.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return zero, err
		}
		return zero, apperrors.Store("get", r.name, err)
	}
	if owner(doc) != uid {
		return zero, docstore.ErrNotFound
	}
	v, err := r.decode(doc)
	if err != nil {
		return zero, apperrors.Store("decode", r.name, err)
	}
	return v, nil
}

func (r records[T]) list(ctx context.Context, q docstore.Query) ([]T, error) {
	uid, err := r.uid()
	if err != nil {
		return nil, err
	}
	docs, err := r.coll.Query(ctx, userQuery(uid, q))
	if err != nil {
		return nil, apperrors.Store("query", r.name, err)
	}
	return r.decodeAll(docs), nil
}

// put writes v at id, or at a store-assigned id when id is empty, and
// returns the id used.
func (r records[T]) put(ctx context.Context, id string, v T) (string, error) {
	fields, err := encode(v)
	if err != nil {
		return "", apperrors.Store("encode", r.name, err)
	}
	if id == "" {
		newID, err := r.coll.Add(ctx, fields)
		if err != nil {
			return "", apperrors.Store("add", r.name, err)
		}
		return newID, nil
	}
	if err := r.coll.Set(ctx, id, fields); err != nil {
		return "", apperrors.Store("set", r.name, err)
	}
	return id, nil
}

// remove deletes id if it belongs to the current user. Missing ids succeed.
func (r records[T]) remove(ctx context.Context, id string) error {
	uid, err := r.uid()
	if err != nil {
		return err
	}
	doc, err := r.coll.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Store("get", r.name, err)
	}
	if owner(doc) != uid {
		return docstore.ErrNotFound
	}
	if err := r.coll.Delete(ctx, id); err != nil {
		return apperrors.Store("delete", r.name, err)
	}
	return nil
}

func (r records[T]) listen(ctx context.Context, q docstore.Query, fn func([]T, error)) (docstore.Subscription, error) {
	uid, err := r.uid()
	if err != nil {
		return nil, err
	}
	sub, err := r.coll.Listen(ctx, userQuery(uid, q), func(docs []docstore.Document, err error) {
		if err != nil {
			fn(nil, apperrors.Store("listen", r.name, err))
			return
		}
		fn(r.decodeAll(docs), nil)
	})
	if err != nil {
		return nil, apperrors.Store("listen", r.name, err)
	}
	return sub, nil
}

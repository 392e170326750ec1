// Package mongostore maps each logical collection onto a MongoDB collection,
// using the document id as _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/logger"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	hub    *docstore.Hub

	mu       sync.Mutex
	watching map[string]bool
	stop     context.CancelFunc
	watchCtx context.Context
	wg       sync.WaitGroup
}

// Open connects to uri. The database is taken from the URI path and defaults
// to the application name.
func Open(ctx context.Context, uri string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	watchCtx, stop := context.WithCancel(context.Background())
	return &Store{
		client:   client,
		db:       client.Database(DatabaseName(uri)),
		hub:      docstore.NewHub(),
		watching: make(map[string]bool),
		stop:     stop,
		watchCtx: watchCtx,
	}, nil
}

// DatabaseName extracts the database from a mongodb:// URI.
func DatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return constants.AppName
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return constants.AppName
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name, coll: s.db.Collection(name)}
}

func (s *Store) Close() error {
	s.stop()
	s.hub.Close()
	s.wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// watch opens a change stream for the collection. Standalone servers have no
// change streams; listeners then only see writes made through this Store.
func (s *Store) watch(ctx context.Context, c *collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watching[c.name] {
		return
	}
	s.watching[c.name] = true

	cs, err := c.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		logger.Debug("change streams unavailable, using local notifications", "collection", c.name, "error", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cs.Close(context.Background())
		for cs.Next(s.watchCtx) {
			s.hub.Notify(c.name)
		}
		if err := cs.Err(); err != nil && s.watchCtx.Err() == nil {
			logger.Warn("change stream stopped", "collection", c.name, "error", err)
		}
	}()
}

type collection struct {
	store *Store
	name  string
	coll  *mongo.Collection
}

func decode(raw bson.Raw) (string, docstore.Fields, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return "", nil, err
	}
	fields, err := docstore.Decode(data)
	if err != nil {
		return "", nil, err
	}
	id, _ := fields["_id"].(string)
	delete(fields, "_id")
	return id, fields, nil
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	raw, err := c.coll.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	_, fields, err := decode(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

func (c *collection) Set(ctx context.Context, id string, fields docstore.Fields) error {
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}
	doc := bson.M{}
	for k, v := range normalized {
		doc[k] = v
	}
	doc["_id"] = id

	_, err = c.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	c.store.hub.Notify(c.name)
	return nil
}

func (c *collection) Add(ctx context.Context, fields docstore.Fields) (string, error) {
	id := primitive.NewObjectID().Hex()
	if err := c.Set(ctx, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount > 0 {
		c.store.hub.Notify(c.name)
	}
	return nil
}

var mongoOps = map[docstore.Op]string{
	docstore.OpLess:           "$lt",
	docstore.OpLessOrEqual:    "$lte",
	docstore.OpGreater:        "$gt",
	docstore.OpGreaterOrEqual: "$gte",
}

// filterFor translates a query into a Mongo filter document.
func filterFor(q docstore.Query) (bson.D, error) {
	var clauses bson.A
	for _, f := range q.Filters {
		v, err := docstore.NormalizeValue(f.Value)
		if err != nil {
			return nil, err
		}
		if f.Op == docstore.OpEqual {
			clauses = append(clauses, bson.D{{Key: f.Field, Value: v}})
			continue
		}
		clauses = append(clauses, bson.D{{Key: f.Field, Value: bson.D{{Key: mongoOps[f.Op], Value: v}}}})
	}
	if q.OrderBy != "" {
		clauses = append(clauses, bson.D{{Key: q.OrderBy, Value: bson.D{{Key: "$exists", Value: true}}}})
	}
	if len(clauses) == 0 {
		return bson.D{}, nil
	}
	return bson.D{{Key: "$and", Value: clauses}}, nil
}

func (c *collection) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	filter, err := filterFor(q)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Direction == docstore.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: 1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []docstore.Document
	for cur.Next(ctx) {
		id, fields, err := decode(cur.Current)
		if err != nil {
			logger.Debug("skipping undecodable document", "collection", c.name, "error", err)
			continue
		}
		docs = append(docs, docstore.Document{ID: id, Fields: fields})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	// Mongo compares across numeric and string types differently; re-apply
	// the query so results match the other backends exactly.
	return docstore.Apply(docs, q), nil
}

func (c *collection) Listen(ctx context.Context, q docstore.Query, fn docstore.Listener) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c.store.watch(ctx, c)
	return c.store.hub.Subscribe(ctx, c.name, q, c.Query, fn), nil
}

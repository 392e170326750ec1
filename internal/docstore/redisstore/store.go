// Package redisstore keeps each document under its own key, tracks collection
// membership in sets and announces changes over pub/sub.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/logger"
)

const defaultPrefix = constants.AppName + ":"

type Store struct {
	client *redis.Client
	prefix string
	hub    *docstore.Hub

	subOnce sync.Once
	pubsub  *redis.PubSub
	wg      sync.WaitGroup
}

// Open parses a redis:// URL and verifies the server is reachable.
func Open(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client, prefix: defaultPrefix, hub: docstore.NewHub()}
}

func (s *Store) docKey(collection, id string) string {
	return s.prefix + "doc:" + collection + ":" + id
}

func (s *Store) idsKey(collection string) string {
	return s.prefix + "ids:" + collection
}

func (s *Store) ownerKey(collection, owner string) string {
	return s.prefix + "owner:" + collection + ":" + owner
}

func (s *Store) changesChannel() string {
	return s.prefix + "changes"
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) Close() error {
	s.hub.Close()
	if s.pubsub != nil {
		_ = s.pubsub.Close()
	}
	s.wg.Wait()
	return s.client.Close()
}

// subscribe starts relaying change announcements, including those from other
// processes, into the hub.
func (s *Store) subscribe(ctx context.Context) {
	s.subOnce.Do(func() {
		ps := s.client.Subscribe(context.Background(), s.changesChannel())
		// Wait for the subscription to be confirmed so no write is missed.
		if _, err := ps.Receive(ctx); err != nil {
			logger.Warn("failed to subscribe to document changes", "error", err)
			_ = ps.Close()
			return
		}
		s.pubsub = ps

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for msg := range ps.Channel() {
				s.hub.Notify(msg.Payload)
			}
		}()
	})
}

type collection struct {
	store *Store
	name  string
}

func owner(fields docstore.Fields) string {
	if v, ok := fields[constants.FieldUserID].(string); ok {
		return v
	}
	return ""
}

func (c *collection) changed(ctx context.Context) {
	if err := c.store.client.Publish(ctx, c.store.changesChannel(), c.name).Err(); err != nil {
		logger.Debug("publish failed", "collection", c.name, "error", err)
	}
	c.store.hub.Notify(c.name)
}

func (c *collection) load(ctx context.Context, id string) (docstore.Fields, error) {
	data, err := c.store.client.Get(ctx, c.store.docKey(c.name, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, docstore.ErrNotFound
		}
		return nil, err
	}
	return docstore.Decode(data)
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	fields, err := c.load(ctx, id)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{ID: id, Fields: fields}, nil
}

func (c *collection) Set(ctx context.Context, id string, fields docstore.Fields) error {
	body, err := docstore.Encode(fields)
	if err != nil {
		return err
	}

	previousOwner := ""
	if prev, err := c.load(ctx, id); err == nil {
		previousOwner = owner(prev)
	} else if !errors.Is(err, docstore.ErrNotFound) {
		logger.Debug("could not read previous document", "collection", c.name, "id", id, "error", err)
	}
	newOwner := owner(fields)

	_, err = c.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.store.docKey(c.name, id), body, 0)
		pipe.SAdd(ctx, c.store.idsKey(c.name), id)
		if previousOwner != "" && previousOwner != newOwner {
			pipe.SRem(ctx, c.store.ownerKey(c.name, previousOwner), id)
		}
		if newOwner != "" {
			pipe.SAdd(ctx, c.store.ownerKey(c.name, newOwner), id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.changed(ctx)
	return nil
}

func (c *collection) Add(ctx context.Context, fields docstore.Fields) (string, error) {
	id := uuid.NewString()
	if err := c.Set(ctx, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	prev, err := c.load(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = c.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.store.docKey(c.name, id))
		pipe.SRem(ctx, c.store.idsKey(c.name), id)
		if o := owner(prev); o != "" {
			pipe.SRem(ctx, c.store.ownerKey(c.name, o), id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.changed(ctx)
	return nil
}

func (c *collection) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	setKey := c.store.idsKey(c.name)
	if ownerID, ok := docstore.OwnerFilter(q, constants.FieldUserID); ok {
		setKey = c.store.ownerKey(c.name, ownerID)
	}
	ids, err := c.store.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.store.docKey(c.name, id)
	}
	values, err := c.store.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Document, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Set membership outlived the document.
			continue
		}
		fields, err := docstore.Decode([]byte(raw))
		if err != nil {
			logger.Debug("skipping undecodable document", "collection", c.name, "id", ids[i], "error", err)
			continue
		}
		docs = append(docs, docstore.Document{ID: ids[i], Fields: fields})
	}
	return docstore.Apply(docs, q), nil
}

func (c *collection) Listen(ctx context.Context, q docstore.Query, fn docstore.Listener) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c.store.subscribe(ctx)
	return c.store.hub.Subscribe(ctx, c.name, q, c.Query, fn), nil
}

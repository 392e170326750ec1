package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory. It backs tests and the
// "memory:" store DSN.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
	hub  *Hub
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string][]byte),
		hub:  NewHub(),
	}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

func (s *MemoryStore) Close() error {
	s.hub.Close()
	return nil
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	c.store.mu.RLock()
	body, ok := c.store.data[c.name][id]
	c.store.mu.RUnlock()
	if !ok {
		return Document{}, ErrNotFound
	}
	fields, err := Decode(body)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Fields: fields}, nil
}

func (c *memoryCollection) Set(ctx context.Context, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := Encode(fields)
	if err != nil {
		return err
	}
	c.store.mu.Lock()
	if c.store.data[c.name] == nil {
		c.store.data[c.name] = make(map[string][]byte)
	}
	c.store.data[c.name][id] = body
	c.store.mu.Unlock()
	c.store.hub.Notify(c.name)
	return nil
}

func (c *memoryCollection) Add(ctx context.Context, fields Fields) (string, error) {
	id := uuid.NewString()
	if err := c.Set(ctx, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (c *memoryCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.store.mu.Lock()
	_, existed := c.store.data[c.name][id]
	delete(c.store.data[c.name], id)
	c.store.mu.Unlock()
	if existed {
		c.store.hub.Notify(c.name)
	}
	return nil
}

func (c *memoryCollection) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	docs := make([]Document, 0, len(c.store.data[c.name]))
	for id, body := range c.store.data[c.name] {
		fields, err := Decode(body)
		if err != nil {
			continue
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	c.store.mu.RUnlock()
	return Apply(docs, q), nil
}

func (c *memoryCollection) Listen(ctx context.Context, q Query, fn Listener) (Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.store.hub.Subscribe(ctx, c.name, q, c.Query, fn), nil
}

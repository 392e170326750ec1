package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/docstore/docstoretest"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := Open(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestRedisConformance(t *testing.T) {
	store, _ := setupTestRedis(t)
	docstoretest.Run(t, store, "")
}

func TestOpenUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	if _, err := Open(context.Background(), "redis://"+addr); err == nil {
		t.Error("expected error connecting to closed server")
	}
	if _, err := Open(context.Background(), "://bad"); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestOwnerIndexFollowsOwner(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	c := store.Collection("tasks")

	if err := c.Set(ctx, "t1", docstore.Fields{"userId": "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "t1", docstore.Fields{"userId": "u2"}); err != nil {
		t.Fatal(err)
	}

	if ok, _ := mr.SIsMember("modtrackin:owner:tasks:u1", "t1"); ok {
		t.Error("t1 still indexed under previous owner")
	}
	if ok, _ := mr.SIsMember("modtrackin:owner:tasks:u2", "t1"); !ok {
		t.Error("t1 not indexed under new owner")
	}

	if err := c.Delete(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("modtrackin:doc:tasks:t1") {
		t.Error("document key not removed")
	}
	if ok, _ := mr.SIsMember("modtrackin:ids:tasks", "t1"); ok {
		t.Error("id not removed from collection set")
	}
}

func TestQuerySkipsDanglingIDs(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	c := store.Collection("notes")

	if err := c.Set(ctx, "n1", docstore.Fields{"userId": "u1", "title": "kept"}); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.SAdd("modtrackin:ids:notes", "ghost"); err != nil {
		t.Fatal(err)
	}
	if err := mr.Set("modtrackin:doc:notes:broken", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := mr.SAdd("modtrackin:ids:notes", "broken"); err != nil {
		t.Fatal(err)
	}

	docs, err := c.Query(ctx, docstore.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != "n1" {
		t.Errorf("Query() = %+v, want only n1", docs)
	}
}

// Writes from a second client reach listeners through pub/sub.
func TestRemoteWriteNotifiesListener(t *testing.T) {
	reader, mr := setupTestRedis(t)
	writer, err := Open(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Close()
	ctx := context.Background()

	got := make(chan int, 8)
	sub, err := reader.Collection("habits").Listen(ctx, docstore.Query{}, func(docs []docstore.Document, err error) {
		if err == nil {
			got <- len(docs)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	<-got

	if err := writer.Collection("habits").Set(ctx, "h1", docstore.Fields{"userId": "u1"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-got:
			if n == 1 {
				return
			}
		case <-deadline:
			t.Fatal("listener never saw the remote write")
		}
	}
}

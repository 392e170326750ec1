// Package docstoretest holds the behavioural checks every docstore backend
// must pass.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/modtrackin/modtrackin/internal/docstore"
)

// Run exercises store. Collection names are prefixed with prefix so shared
// servers (Redis, Postgres, Mongo) can be reused across runs.
func Run(t *testing.T, store docstore.Store, prefix string) {
	t.Run("GetSetDelete", func(t *testing.T) { testGetSetDelete(t, store.Collection(prefix+"crud")) })
	t.Run("Add", func(t *testing.T) { testAdd(t, store.Collection(prefix+"add")) })
	t.Run("Query", func(t *testing.T) { testQuery(t, store.Collection(prefix+"query")) })
	t.Run("Listen", func(t *testing.T) { testListen(t, store.Collection(prefix+"listen")) })
}

func testGetSetDelete(t *testing.T, c docstore.Collection) {
	ctx := context.Background()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := c.Set(ctx, "a", docstore.Fields{"title": "first", "n": 1, "done": false}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	doc, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.ID != "a" || doc.Fields["title"] != "first" || doc.Fields["n"] != float64(1) || doc.Fields["done"] != false {
		t.Errorf("Get returned %+v", doc)
	}

	// Set replaces the whole document.
	if err := c.Set(ctx, "a", docstore.Fields{"title": "second"}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	doc, err = c.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if doc.Fields["title"] != "second" {
		t.Errorf("title = %v, want second", doc.Fields["title"])
	}
	if _, ok := doc.Fields["n"]; ok {
		t.Errorf("overwrite kept stale field n: %+v", doc.Fields)
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "a"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("deleting a missing document should succeed, got %v", err)
	}
}

func testAdd(t *testing.T, c docstore.Collection) {
	ctx := context.Background()
	id1, err := c.Add(ctx, docstore.Fields{"title": "one"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	id2, err := c.Add(ctx, docstore.Fields{"title": "two"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("Add returned ids %q and %q", id1, id2)
	}
	doc, err := c.Get(ctx, id2)
	if err != nil {
		t.Fatalf("Get(added) failed: %v", err)
	}
	if doc.Fields["title"] != "two" {
		t.Errorf("added doc = %+v", doc)
	}
	_ = c.Delete(ctx, id1)
	_ = c.Delete(ctx, id2)
}

func testQuery(t *testing.T, c docstore.Collection) {
	ctx := context.Background()
	seed := map[string]docstore.Fields{
		"u1_2025-01-01": {"userId": "u1", "dateString": "2025-01-01", "score": 3},
		"u1_2025-01-03": {"userId": "u1", "dateString": "2025-01-03", "score": 5},
		"u1_2025-01-02": {"userId": "u1", "dateString": "2025-01-02", "score": 1},
		"u2_2025-01-02": {"userId": "u2", "dateString": "2025-01-02", "score": 4},
		"u1_nodate":     {"userId": "u1", "score": 2},
	}
	for id, f := range seed {
		if err := c.Set(ctx, id, f); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	t.Cleanup(func() {
		for id := range seed {
			_ = c.Delete(context.Background(), id)
		}
	})

	tests := []struct {
		name  string
		query docstore.Query
		want  []string
	}{
		{
			name: "equality with descending order",
			query: docstore.Query{
				Filters:   []docstore.Filter{docstore.Where("userId", docstore.OpEqual, "u1")},
				OrderBy:   "dateString",
				Direction: docstore.Descending,
			},
			want: []string{"u1_2025-01-03", "u1_2025-01-02", "u1_2025-01-01"},
		},
		{
			name: "limit",
			query: docstore.Query{
				Filters:   []docstore.Filter{docstore.Where("userId", docstore.OpEqual, "u1")},
				OrderBy:   "dateString",
				Direction: docstore.Descending,
				Limit:     2,
			},
			want: []string{"u1_2025-01-03", "u1_2025-01-02"},
		},
		{
			name: "numeric range",
			query: docstore.Query{
				Filters: []docstore.Filter{
					docstore.Where("score", docstore.OpGreaterOrEqual, 3),
					docstore.Where("score", docstore.OpLess, 5),
				},
				OrderBy: "score",
			},
			want: []string{"u1_2025-01-01", "u2_2025-01-02"},
		},
		{
			name: "string range",
			query: docstore.Query{
				Filters: []docstore.Filter{
					docstore.Where("userId", docstore.OpEqual, "u1"),
					docstore.Where("dateString", docstore.OpGreater, "2025-01-01"),
					docstore.Where("dateString", docstore.OpLessOrEqual, "2025-01-02"),
				},
			},
			want: []string{"u1_2025-01-02"},
		},
		{
			name: "no filters without order returns everything",
			query: docstore.Query{
				Filters: []docstore.Filter{docstore.Where("userId", docstore.OpEqual, "u2")},
			},
			want: []string{"u2_2025-01-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := c.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if got := ids(docs); fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Query ids = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := c.Query(ctx, docstore.Query{Filters: []docstore.Filter{{Field: "x", Op: "!=", Value: 1}}}); err == nil {
		t.Error("expected error for unsupported operator")
	}
}

func testListen(t *testing.T, c docstore.Collection) {
	ctx := context.Background()
	snapshots := make(chan []docstore.Document, 16)
	sub, err := c.Listen(ctx, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("userId", docstore.OpEqual, "u1")},
		OrderBy: "title",
	}, func(docs []docstore.Document, err error) {
		if err != nil {
			t.Errorf("listener error: %v", err)
			return
		}
		snapshots <- docs
	})
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer sub.Close()

	if got := waitFor(t, snapshots, 0); len(got) != 0 {
		t.Fatalf("initial snapshot = %v, want empty", ids(got))
	}

	if err := c.Set(ctx, "l1", docstore.Fields{"userId": "u1", "title": "b"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, snapshots, 1)

	if err := c.Set(ctx, "l2", docstore.Fields{"userId": "u1", "title": "a"}); err != nil {
		t.Fatal(err)
	}
	got := waitFor(t, snapshots, 2)
	if fmt.Sprint(ids(got)) != "[l2 l1]" {
		t.Errorf("snapshot order = %v, want [l2 l1]", ids(got))
	}

	if err := c.Delete(ctx, "l1"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, snapshots, 1)

	sub.Close()
	_ = c.Delete(ctx, "l2")
}

// waitFor drains snapshots until one has n documents.
func waitFor(t *testing.T, ch <-chan []docstore.Document, n int) []docstore.Document {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case docs := <-ch:
			if len(docs) == n {
				return docs
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot with %d documents", n)
			return nil
		}
	}
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

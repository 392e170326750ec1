package docstore_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/docstore/docstoretest"
)

func TestMemoryStore(t *testing.T) {
	store := docstore.NewMemory()
	defer store.Close()
	docstoretest.Run(t, store, "")
}

func TestMatchesMixedKinds(t *testing.T) {
	fields := docstore.Fields{"n": float64(3), "s": "3", "b": true}
	tests := []struct {
		name string
		f    docstore.Filter
		want bool
	}{
		{"int against float", docstore.Where("n", docstore.OpEqual, 3), true},
		{"string against number", docstore.Where("s", docstore.OpEqual, 3), false},
		{"bool equality", docstore.Where("b", docstore.OpEqual, true), true},
		{"bool ordering", docstore.Where("b", docstore.OpGreater, false), true},
		{"missing field", docstore.Where("x", docstore.OpEqual, nil), false},
		{"time value", docstore.Where("s", docstore.OpGreater, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := docstore.Query{Filters: []docstore.Filter{tt.f}}
			if got := q.Matches(fields); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyExcludesDocsWithoutOrderField(t *testing.T) {
	docs := []docstore.Document{
		{ID: "b", Fields: docstore.Fields{"k": "2"}},
		{ID: "a", Fields: docstore.Fields{}},
		{ID: "c", Fields: docstore.Fields{"k": "1"}},
	}
	got := docstore.Apply(docs, docstore.Query{OrderBy: "k"})
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("Apply() = %+v", got)
	}
}

func TestOwnerFilter(t *testing.T) {
	q := docstore.Query{Filters: []docstore.Filter{
		docstore.Where("userId", docstore.OpGreater, "a"),
		docstore.Where("userId", docstore.OpEqual, "u1"),
	}}
	if owner, ok := docstore.OwnerFilter(q, "userId"); !ok || owner != "u1" {
		t.Errorf("OwnerFilter() = %q, %v", owner, ok)
	}
	if _, ok := docstore.OwnerFilter(docstore.Query{}, "userId"); ok {
		t.Error("expected no owner filter")
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	store := docstore.NewMemory()
	defer store.Close()
	c := store.Collection("things")
	ctx := context.Background()

	var calls atomic.Int32
	first := make(chan struct{}, 1)
	sub, err := c.Listen(ctx, docstore.Query{}, func([]docstore.Document, error) {
		calls.Add(1)
		select {
		case first <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	<-first
	sub.Close()
	sub.Close()

	before := calls.Load()
	if err := c.Set(ctx, "x", docstore.Fields{"a": 1}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != before {
		t.Errorf("listener called after Close: %d -> %d", before, calls.Load())
	}
}

func TestNormalize(t *testing.T) {
	got, err := docstore.Normalize(docstore.Fields{
		"n":    7,
		"when": time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		"m":    map[string]int{"2025-01-01": 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got["n"] != float64(7) {
		t.Errorf("n = %#v", got["n"])
	}
	if got["when"] != "2025-01-02T03:04:05Z" {
		t.Errorf("when = %#v", got["when"])
	}
	m, ok := got["m"].(map[string]any)
	if !ok || m["2025-01-01"] != float64(5) {
		t.Errorf("m = %#v", got["m"])
	}
	if _, err := docstore.Normalize(docstore.Fields{"bad": make(chan int)}); err == nil {
		t.Error("expected error for unencodable value")
	}
}

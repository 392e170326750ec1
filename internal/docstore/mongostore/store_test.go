package mongostore

import (
	"context"
	"os"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/docstore/docstoretest"
)

// Set MONGO_TEST_URL to run, e.g. MONGO_TEST_URL="mongodb://localhost:27017/modtrackin_test"
func setupMongoTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URL")
	if uri == "" {
		t.Skip("MONGO_TEST_URL not set, skipping MongoDB integration test")
	}
	store, err := Open(context.Background(), uri)
	if err != nil {
		t.Fatalf("failed to open mongo store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		store.Close()
	})
	return store
}

func TestMongoConformance(t *testing.T) {
	docstoretest.Run(t, setupMongoTestStore(t), "test_")
}

func TestDatabaseName(t *testing.T) {
	tests := map[string]string{
		"mongodb://localhost:27017/tracker":                            "tracker",
		"mongodb://localhost:27017":                                    "modtrackin",
		"mongodb://localhost:27017/":                                   "modtrackin",
		"mongodb+srv://user@cluster.example.net/prod?retryWrites=true": "prod",
	}
	for uri, want := range tests {
		if got := DatabaseName(uri); got != want {
			t.Errorf("DatabaseName(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestFilterFor(t *testing.T) {
	q := docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("userId", docstore.OpEqual, "u1"),
			docstore.Where("score", docstore.OpGreaterOrEqual, 3),
		},
		OrderBy: "dateString",
	}
	got, err := filterFor(q)
	if err != nil {
		t.Fatal(err)
	}
	want := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "userId", Value: "u1"}},
		bson.D{{Key: "score", Value: bson.D{{Key: "$gte", Value: float64(3)}}}},
		bson.D{{Key: "dateString", Value: bson.D{{Key: "$exists", Value: true}}}},
	}}}

	gotJSON, _ := bson.MarshalExtJSON(got, false, false)
	wantJSON, _ := bson.MarshalExtJSON(want, false, false)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("filterFor() = %s, want %s", gotJSON, wantJSON)
	}

	empty, err := filterFor(docstore.Query{})
	if err != nil || len(empty) != 0 {
		t.Errorf("filterFor(empty) = %v, %v", empty, err)
	}
}

func TestDecodeStripsID(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": "abc", "title": "x", "n": int32(2)})
	if err != nil {
		t.Fatal(err)
	}
	id, fields, err := decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if id != "abc" {
		t.Errorf("id = %q", id)
	}
	if _, ok := fields["_id"]; ok {
		t.Error("_id left in fields")
	}
	if fields["title"] != "x" || fields["n"] != float64(2) {
		t.Errorf("fields = %#v", fields)
	}
}

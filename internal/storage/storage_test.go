package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/docstore/redisstore"
	"github.com/modtrackin/modtrackin/internal/docstore/sqlite"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		dsn  string
		want Kind
	}{
		{"memory:", KindMemory},
		{"/home/me/.config/modtrackin/modtrackin.db", KindSQLite},
		{"sqlite:///tmp/x.db", KindSQLite},
		{"postgres://me@localhost/db", KindPostgres},
		{"postgresql://me@localhost/db", KindPostgres},
		{"host=localhost user=me dbname=db", KindPostgres},
		{"redis://localhost:6379/0", KindRedis},
		{"rediss://cache.example.com:6380", KindRedis},
		{"mongodb://localhost:27017/modtrackin", KindMongo},
		{"mongodb+srv://cluster.example.net/db", KindMongo},
	}
	for _, tt := range tests {
		if got := KindOf(tt.dsn); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestDescribeHidesCredentials(t *testing.T) {
	if got := Describe("redis://:secret@localhost:6379"); got != "redis" {
		t.Errorf("Describe(redis) = %q", got)
	}
	if got := Describe("sqlite:///tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("Describe(sqlite) = %q", got)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, MemoryDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Close()
	if _, ok := mem.(*docstore.MemoryStore); !ok {
		t.Errorf("memory DSN opened %T", mem)
	}

	lite, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "x.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer lite.Close()
	if _, ok := lite.(*sqlite.Store); !ok {
		t.Errorf("sqlite DSN opened %T", lite)
	}

	mr := miniredis.RunT(t)
	rs, err := Open(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()
	if _, ok := rs.(*redisstore.Store); !ok {
		t.Errorf("redis DSN opened %T", rs)
	}

	if _, err := Open(ctx, "sqlite://"); err == nil {
		t.Error("expected error for empty sqlite path")
	}
}

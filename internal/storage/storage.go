// Package storage selects and opens the document store backend named by a
// store DSN.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/docstore/mongostore"
	"github.com/modtrackin/modtrackin/internal/docstore/postgres"
	"github.com/modtrackin/modtrackin/internal/docstore/redisstore"
	"github.com/modtrackin/modtrackin/internal/docstore/sqlite"
	"github.com/modtrackin/modtrackin/internal/logger"
)

// Kind identifies a backend.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
	KindMongo    Kind = "mongo"
)

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory:"

// KindOf classifies dsn. Anything without a recognised scheme is a SQLite
// file path.
func KindOf(dsn string) Kind {
	switch {
	case dsn == MemoryDSN:
		return KindMemory
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return KindPostgres
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return KindRedis
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return KindMongo
	case strings.Contains(dsn, "host=") && strings.Contains(dsn, "="):
		// key=value PostgreSQL DSN
		return KindPostgres
	default:
		return KindSQLite
	}
}

// Open connects to the backend for dsn.
func Open(ctx context.Context, dsn string) (docstore.Store, error) {
	kind := KindOf(dsn)
	logger.Debug("opening document store", "kind", kind, "target", Describe(dsn))

	var (
		store docstore.Store
		err   error
	)
	switch kind {
	case KindMemory:
		return docstore.NewMemory(), nil
	case KindPostgres:
		store, err = asStore(postgres.Open(ctx, dsn))
	case KindRedis:
		store, err = asStore(redisstore.Open(ctx, dsn))
	case KindMongo:
		store, err = asStore(mongostore.Open(ctx, dsn))
	default:
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("empty sqlite path")
		}
		store, err = asStore(sqlite.Open(ctx, filepath.Clean(path)))
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", kind, err)
	}
	return store, nil
}

// asStore keeps a typed nil from a failed open out of the interface.
func asStore[S docstore.Store](s S, err error) (docstore.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Describe returns a non-sensitive label for dsn, safe to print or log.
func Describe(dsn string) string {
	switch KindOf(dsn) {
	case KindMemory:
		return "memory"
	case KindSQLite:
		return strings.TrimPrefix(dsn, "sqlite://")
	default:
		return string(KindOf(dsn))
	}
}

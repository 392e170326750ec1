// Package sqlite stores documents in a single SQLite table, one JSON body per
// row, with the owning user id broken out for indexed lookups.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/migration"
	"github.com/modtrackin/modtrackin/migrations"
)

type Store struct {
	path string
	db   *sql.DB
	hub  *docstore.Hub
}

// Open creates the database file if needed and brings the schema up to date.
func Open(ctx context.Context, path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{path: path, db: db, hub: docstore.NewHub()}
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.DriverSQLite), nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(ctx, func(msg string) {
		logger.Debug(msg, "store", "sqlite")
	})
	return err
}

// SchemaVersion reports the applied and the newest known schema versions.
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	runner, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	if current, err = runner.CurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	latest, err = runner.LatestVersion()
	return current, latest, err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) Close() error {
	s.hub.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
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

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	var body string
	err := c.store.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?", c.name, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	fields, err := docstore.Decode([]byte(body))
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
	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, owner, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			owner = excluded.owner,
			body = excluded.body,
			updated_at = excluded.updated_at
	`, c.name, id, owner(fields), string(body), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	c.store.hub.Notify(c.name)
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
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?", c.name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		c.store.hub.Notify(c.name)
	}
	return nil
}

func (c *collection) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	if ownerID, ok := docstore.OwnerFilter(q, constants.FieldUserID); ok {
		rows, err = c.store.db.QueryContext(ctx,
			"SELECT id, body FROM documents WHERE collection = ? AND owner = ?", c.name, ownerID)
	} else {
		rows, err = c.store.db.QueryContext(ctx,
			"SELECT id, body FROM documents WHERE collection = ?", c.name)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		fields, err := docstore.Decode([]byte(body))
		if err != nil {
			logger.Debug("skipping undecodable row", "collection", c.name, "id", id, "error", err)
			continue
		}
		docs = append(docs, docstore.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docstore.Apply(docs, q), nil
}

func (c *collection) Listen(ctx context.Context, q docstore.Query, fn docstore.Listener) (docstore.Subscription, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.store.hub.Subscribe(ctx, c.name, q, c.Query, fn), nil
}

// Package postgres stores documents as JSONB rows and relays changes between
// processes with LISTEN/NOTIFY.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	pq "github.com/lib/pq"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/migration"
	"github.com/modtrackin/modtrackin/migrations"
)

// NotifyChannel is the LISTEN/NOTIFY channel; the payload is the collection name.
const NotifyChannel = constants.AppName + "_documents"

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

type Store struct {
	connStr string
	db      *sql.DB
	hub     *docstore.Hub

	listenOnce sync.Once
	listener   *pq.Listener
	stop       chan struct{}
	wg         sync.WaitGroup
}

// Open connects, creates the application schema and applies migrations.
func Open(ctx context.Context, connStr string) (*Store, error) {
	s := &Store{
		connStr: withSearchPath(connStr),
		hub:     docstore.NewHub(),
		stop:    make(chan struct{}),
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(connStr) {
			return nil, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	runner, err := s.runner()
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := runner.Apply(ctx, func(msg string) { logger.Debug(msg, "store", "postgres") }); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, migration.DriverPostgres), nil
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

// withSearchPath pins unqualified table names to the application schema.
func withSearchPath(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("failed to parse postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", constants.AppName)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], "search_path") {
			return connStr
		}
	}
	return strings.TrimSpace(connStr) + " search_path=" + constants.AppName
}

func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], "sslmode") {
			return true
		}
	}
	return false
}

// ValidateConnString checks that connStr parses as a PostgreSQL URI or DSN and
// carries no password. Passwords belong in the keyring or ~/.pgpass.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}

	for _, pair := range strings.Fields(connStr) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), "password") {
			return ErrEmbeddedCredentials
		}
	}
	return nil
}

func (s *Store) Collection(name string) docstore.Collection {
	return &collection{store: s, name: name}
}

func (s *Store) Close() error {
	close(s.stop)
	s.hub.Close()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	return s.db.Close()
}

// startListener subscribes to NotifyChannel the first time anything listens.
// A failure leaves local notifications working; remote writes are then only
// seen on the next local change.
func (s *Store) startListener() {
	s.listenOnce.Do(func() {
		events := func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventDisconnected:
				logger.Warn("postgres listener disconnected", "error", err)
			case pq.ListenerEventReconnected:
				logger.Debug("postgres listener reconnected")
			case pq.ListenerEventConnectionAttemptFailed:
				logger.Debug("postgres listener connection attempt failed", "error", err)
			}
		}
		l := pq.NewListener(s.connStr, 10*time.Second, time.Minute, events)
		if err := l.Listen(NotifyChannel); err != nil {
			logger.Warn("failed to LISTEN for document changes", "error", err)
			_ = l.Close()
			return
		}
		s.listener = l

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.stop:
					return
				case n, ok := <-l.Notify:
					if !ok {
						return
					}
					// nil marks a reconnect; events may have been missed.
					if n == nil {
						s.hub.NotifyAll()
						continue
					}
					s.hub.Notify(n.Extra)
				case <-time.After(90 * time.Second):
					go func() { _ = l.Ping() }()
				}
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
	if _, err := c.store.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", NotifyChannel, c.name); err != nil {
		logger.Debug("pg_notify failed", "collection", c.name, "error", err)
	}
	c.store.hub.Notify(c.name)
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	var body []byte
	err := c.store.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = $1 AND id = $2", c.name, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	fields, err := docstore.Decode(body)
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
		VALUES ($1, $2, $3, $4::jsonb, $5)
		ON CONFLICT (collection, id) DO UPDATE SET
			owner = EXCLUDED.owner,
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at
	`, c.name, id, owner(fields), string(body), time.Now().UTC())
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
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = $1 AND id = $2", c.name, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		c.changed(ctx)
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
			"SELECT id, body FROM documents WHERE collection = $1 AND owner = $2", c.name, ownerID)
	} else {
		rows, err = c.store.db.QueryContext(ctx,
			"SELECT id, body FROM documents WHERE collection = $1", c.name)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		fields, err := docstore.Decode(body)
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
	c.store.startListener()
	return c.store.hub.Subscribe(ctx, c.name, q, c.Query, fn), nil
}

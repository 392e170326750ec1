package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// LocalOracle authenticates against bcrypt credential records kept in the
// accounts collection of the document store. The signed-in session survives
// restarts as an HS256 token in a SessionStore.
type LocalOracle struct {
	accounts docstore.Collection
	sessions SessionStore
	clock    utils.Clock
	ttl      time.Duration

	mu        sync.Mutex
	uid       string
	listeners map[int]AuthStateListener
	nextID    int
}

// Option configures a LocalOracle.
type Option func(*LocalOracle)

// WithClock replaces the wall clock used to issue and verify sessions.
func WithClock(c utils.Clock) Option {
	return func(o *LocalOracle) { o.clock = c }
}

// WithSessionTTL sets how long a sign-in stays valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *LocalOracle) { o.ttl = ttl }
}

// NewLocalOracle restores any saved, unexpired session.
func NewLocalOracle(accounts docstore.Collection, sessions SessionStore, opts ...Option) *LocalOracle {
	o := &LocalOracle{
		accounts:  accounts,
		sessions:  sessions,
		clock:     utils.SystemClock,
		ttl:       constants.SessionTTL,
		listeners: make(map[int]AuthStateListener),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.restore()
	return o
}

func (o *LocalOracle) restore() {
	tok, err := o.sessions.Token()
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.Warn("could not read saved session", "error", err)
		}
		return
	}
	key, err := o.sessions.SigningKey()
	if err != nil {
		logger.Warn("could not read session signing key", "error", err)
		return
	}
	claims, err := parseToken(key, tok, o.clock)
	if err != nil {
		logger.Debug("discarding saved session", "error", err)
		_ = o.sessions.ClearToken()
		return
	}
	o.uid = claims.Subject
}

// NormalizeEmail is the account key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (o *LocalOracle) CurrentUser() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.uid, o.uid != ""
}

func (o *LocalOracle) SignIn(ctx context.Context, email, password string) error {
	key := NormalizeEmail(email)
	if key == "" || password == "" {
		return ErrInvalidCredentials
	}

	doc, err := o.accounts.Get(ctx, key)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	hash, _ := doc.Fields["passwordHash"].(string)
	uid, _ := doc.Fields["uid"].(string)
	if uid == "" || !CheckPassword(hash, password) {
		return ErrInvalidCredentials
	}
	return o.startSession(uid, key)
}

func (o *LocalOracle) CreateUser(ctx context.Context, email, password string) (string, error) {
	key := NormalizeEmail(email)
	if key == "" || !strings.Contains(key, "@") {
		return "", ErrInvalidEmail
	}
	if len(password) < constants.MinPasswordLength {
		return "", ErrWeakPassword
	}

	if _, err := o.accounts.Get(ctx, key); err == nil {
		return "", ErrEmailInUse
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return "", fmt.Errorf("failed to check account: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	uid := uuid.NewString()
	err = o.accounts.Set(ctx, key, docstore.Fields{
		"uid":          uid,
		"email":        key,
		"passwordHash": hash,
		"createdAt":    o.clock().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save account: %w", err)
	}

	if err := o.startSession(uid, key); err != nil {
		return "", err
	}
	return uid, nil
}

func (o *LocalOracle) startSession(uid, email string) error {
	key, err := o.sessions.SigningKey()
	if err != nil {
		return fmt.Errorf("failed to load session key: %w", err)
	}
	tok, err := issueToken(key, uid, email, o.clock(), o.ttl)
	if err != nil {
		return fmt.Errorf("failed to issue session: %w", err)
	}
	if err := o.sessions.SaveToken(tok); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	o.setUser(uid)
	return nil
}

func (o *LocalOracle) SignOut() error {
	if err := o.sessions.ClearToken(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	o.setUser("")
	return nil
}

func (o *LocalOracle) setUser(uid string) {
	o.mu.Lock()
	o.uid = uid
	fns := make([]AuthStateListener, 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(uid)
	}
}

func (o *LocalOracle) OnAuthStateChange(fn AuthStateListener) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

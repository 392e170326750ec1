package identity

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/keyring"
)

// ErrNoSession is returned by SessionStore.Token when nothing is saved.
var ErrNoSession = errors.New("no saved session")

// SessionStore persists the session token between runs and owns the key
// tokens are signed with.
type SessionStore interface {
	Token() (string, error)
	SaveToken(token string) error
	ClearToken() error
	SigningKey() ([]byte, error)
}

// KeyringSessions keeps both secrets in the OS keyring.
type KeyringSessions struct{}

func (KeyringSessions) Token() (string, error) {
	tok, err := keyring.Get(constants.SessionKeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSession
	}
	return tok, err
}

func (KeyringSessions) SaveToken(token string) error {
	return keyring.Set(constants.SessionKeyringUser, token)
}

func (KeyringSessions) ClearToken() error {
	err := keyring.Delete(constants.SessionKeyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// SigningKey returns the stored key, generating and saving one on first use.
func (KeyringSessions) SigningKey() ([]byte, error) {
	encoded, err := keyring.Get(constants.SigningKeyringUser)
	if err == nil {
		return base64.StdEncoding.DecodeString(encoded)
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, err
	}
	key, err := newSigningKey()
	if err != nil {
		return nil, err
	}
	if err := keyring.Set(constants.SigningKeyringUser, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// MemorySessions keeps secrets for the life of the process.
type MemorySessions struct {
	mu    sync.Mutex
	token string
	key   []byte
}

func (m *MemorySessions) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

func (m *MemorySessions) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemorySessions) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *MemorySessions) SigningKey() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		key, err := newSigningKey()
		if err != nil {
			return nil, err
		}
		m.key = key
	}
	return m.key, nil
}

func newSigningKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return key, nil
}

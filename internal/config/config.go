// Package config resolves where modtrackin keeps its data.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore/postgres"
	"github.com/modtrackin/modtrackin/internal/keyring"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/storage"
)

// EnvStore names the environment variable consulted after the --store flag.
const EnvStore = "MODTRACKIN_STORE"

// Source says where a store DSN came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceDefault Source = "default"
)

// Store is a resolved store location.
type Store struct {
	DSN    string
	Source Source
}

var (
	getenv        = os.Getenv
	userHomeDir   = os.UserHomeDir
	keyringLookup = keyring.GetConnectionString
)

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir expands dir, falling back to the default config directory.
func ConfigDir(dir string) (string, error) {
	if dir == "" {
		dir = constants.DefaultConfigDir
	}
	return ExpandPath(dir)
}

// ResolveStore picks the store DSN from, in order, the --store flag, the
// MODTRACKIN_STORE variable, the OS keyring and the default SQLite file in
// configDir. PostgreSQL connection strings carrying a password are only
// accepted from the keyring.
func ResolveStore(flagValue, configDir string) (Store, error) {
	if flagValue != "" {
		return checked(flagValue, SourceFlag)
	}
	if env := getenv(EnvStore); env != "" {
		return checked(env, SourceEnv)
	}

	dsn, err := keyringLookup()
	switch {
	case err == nil && dsn != "":
		return Store{DSN: dsn, Source: SourceKeyring}, nil
	case err != nil && !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("keyring lookup failed", "error", err)
	}

	dir, err := ConfigDir(configDir)
	if err != nil {
		return Store{}, err
	}
	return Store{DSN: filepath.Join(dir, constants.DefaultStoreFile), Source: SourceDefault}, nil
}

func checked(dsn string, source Source) (Store, error) {
	if storage.KindOf(dsn) == storage.KindPostgres {
		if err := postgres.ValidateConnString(dsn); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return Store{}, fmt.Errorf("%w: store the connection string with 'modtrackin config set-store' instead", err)
			}
			return Store{}, err
		}
	}
	if storage.KindOf(dsn) == storage.KindSQLite {
		path, err := ExpandPath(strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return Store{}, err
		}
		dsn = path
	}
	return Store{DSN: dsn, Source: source}, nil
}

// MaskPassword hides the password in URL-style connection strings.
func MaskPassword(dsn string) string {
	idx := strings.Index(dsn, "://")
	if idx == -1 {
		return dsn
	}
	rest := dsn[idx+3:]
	at := strings.LastIndex(rest, "@")
	if at == -1 {
		return dsn
	}
	userInfo := rest[:at]
	colon := strings.Index(userInfo, ":")
	if colon == -1 {
		return dsn
	}
	return dsn[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
}

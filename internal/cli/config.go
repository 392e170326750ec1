package cli

import (
	"errors"
	"fmt"

	"github.com/modtrackin/modtrackin/internal/config"
	"github.com/modtrackin/modtrackin/internal/docstore/postgres"
	"github.com/modtrackin/modtrackin/internal/keyring"
	"github.com/modtrackin/modtrackin/internal/storage"
)

// ConfigCmd manages where data is stored. Its subcommands run without
// opening the store.
type ConfigCmd struct {
	SetStore   ConfigSetStoreCmd   `cmd:"" help:"Save a store connection string in the OS keyring."`
	ClearStore ConfigClearStoreCmd `cmd:"" help:"Remove the saved connection string."`
	Show       ConfigShowCmd       `cmd:"" help:"Show the store in use and where it was configured."`
}

type ConfigSetStoreCmd struct {
	DSN string `arg:"" name:"dsn" help:"Store location: a SQLite path or a postgres://, redis:// or mongodb:// URL."`
}

func (cmd *ConfigSetStoreCmd) Run(ctx *Context) error {
	kind := storage.KindOf(cmd.DSN)
	if kind == storage.KindMemory {
		return errors.New("the in-memory store cannot be saved")
	}
	if kind == storage.KindPostgres {
		if err := postgres.ValidateConnString(cmd.DSN); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			// The keyring is encrypted, so embedded credentials are accepted here.
			ctx.println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.SetConnectionString(cmd.DSN); err != nil {
		return fmt.Errorf("failed to store connection string in keyring: %w", err)
	}
	ctx.printf("✓ %s store saved in OS keyring\n", kind)
	ctx.printf("  It is used whenever --store and %s are unset\n", config.EnvStore)
	return nil
}

type ConfigClearStoreCmd struct{}

func (cmd *ConfigClearStoreCmd) Run(ctx *Context) error {
	err := keyring.DeleteConnectionString()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no connection string found in keyring")
	}
	if err != nil {
		return fmt.Errorf("failed to delete connection string from keyring: %w", err)
	}
	ctx.println("✓ Connection string deleted from OS keyring")
	return nil
}

type ConfigShowCmd struct{}

func (cmd *ConfigShowCmd) Run(ctx *Context) error {
	ctx.printf("Config directory: %s\n", ctx.ConfigDir)
	ctx.printf("Store:            %s (%s)\n", config.MaskPassword(ctx.Store.DSN), storage.KindOf(ctx.Store.DSN))
	ctx.printf("Configured by:    %s\n", ctx.Store.Source)

	if !keyring.IsAvailable() {
		ctx.println("Keyring:          unavailable")
		return nil
	}
	if _, err := keyring.GetConnectionString(); err == nil {
		ctx.println("Keyring:          connection string saved")
	} else {
		ctx.println("Keyring:          no connection string")
	}
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/keyring"
	"github.com/modtrackin/modtrackin/internal/storage"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	storeReachable := false

	if err := checkStoreReachable(ctx); err != nil {
		ctx.printf("❌ Store reachable: FAIL\n")
		ctx.printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.printf("✓ Store reachable (%s): OK\n", storage.KindOf(ctx.Store.DSN))
		storeReachable = true
	}

	if err := checkSchemaVersion(ctx); err != nil {
		ctx.printf("❌ Schema version: FAIL\n")
		ctx.printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.printf("✓ Schema version: OK\n")
	}

	if _, ok := ctx.Oracle.CurrentUser(); ok {
		ctx.printf("✓ Signed in: OK\n")
	} else {
		ctx.printf("⚠ Signed in: WARNING\n")
		ctx.printf("   Not signed in - run 'modtrackin login'\n")
	}

	if keyring.IsAvailable() {
		ctx.printf("✓ OS keyring: OK\n")
	} else {
		ctx.printf("⚠ OS keyring: WARNING\n")
		ctx.printf("   Keyring unavailable - sessions will not persist between runs\n")
	}

	if err := checkBackupsPresent(ctx); err != nil {
		ctx.printf("⚠ Backups present: WARNING\n")
		ctx.printf("   %v\n", err)
	} else {
		ctx.printf("✓ Backups present: OK\n")
	}

	_, signedIn := ctx.Oracle.CurrentUser()
	switch {
	case !storeReachable:
		ctx.printf("⊘ Data validation: SKIPPED (store not reachable)\n")
	case !signedIn:
		ctx.printf("⊘ Data validation: SKIPPED (not signed in)\n")
	default:
		res, err := validateAll(ctx)
		switch {
		case err != nil:
			ctx.printf("❌ Data validation: FAIL\n")
			ctx.printf("   Error: %v\n", err)
			hasError = true
		case res.HasConflicts():
			ctx.printf("❌ Data validation: FAIL\n")
			ctx.printf("   %d problems found - run 'modtrackin validate' for details\n", len(res.Conflicts))
			hasError = true
		default:
			ctx.printf("✓ Data validation: OK\n")
		}
	}

	if err := checkClockTimezone(ctx); err != nil {
		ctx.printf("❌ Clock/timezone: FAIL\n")
		ctx.printf("   Error: %v\n", err)
		hasError = true
	} else {
		ctx.printf("✓ Clock/timezone: OK\n")
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	_, err := ctx.Docs.Collection(constants.CollectionUsers).Query(ctx.Ctx, docstore.Query{Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to query store: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	versioned, ok := ctx.Docs.(docstore.Versioned)
	if !ok {
		// Schemaless backends have nothing to migrate.
		return nil
	}
	current, latest, err := versioned.SchemaVersion(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("store schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	backups, err := ctx.backups().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'modtrackin backup create'")
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	// Calendar days follow the local zone; note when that is UTC.
	if _, offset := now.In(ctx.location()).Zone(); offset == 0 {
		ctx.printf("   Note: timezone is UTC\n")
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modtrackin/modtrackin/internal/backup"
	"github.com/modtrackin/modtrackin/internal/constants"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Export your data to a backup file."`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore your data from a backup."`
}

func (ctx *Context) backups() *backup.Manager {
	return backup.NewManager(ctx.Docs, ctx.Oracle, ctx.ConfigDir)
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	backupPath, err := ctx.backups().CreateBackup(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.printf("✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr := ctx.backups()
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.println("No backups found.")
		ctx.printf("Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	ctx.printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		timestamp := b.Timestamp.Format("2006-01-02 15:04:05")
		filename := filepath.Base(b.Path)
		ctx.printf("  %s  %s  (%.1f KB)\n", timestamp, filename, sizeKB)
	}
	ctx.printf("\nBackup directory: %s\n", mgr.GetBackupDir())

	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}
	mgr := ctx.backups()

	backupPath := c.BackupFile
	if !filepath.IsAbs(backupPath) {
		possiblePath := filepath.Join(mgr.GetBackupDir(), c.BackupFile)
		if _, err := os.Stat(possiblePath); err == nil {
			backupPath = possiblePath
		}
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	if !c.Yes {
		ctx.println("⚠️  WARNING: Records in the backup will overwrite their current versions.")
		ctx.println("Records created since the backup are kept. A backup of your current data is made first.")
		ctx.printf("\nRestore from: %s\n", filepath.Base(backupPath))
	}
	ok, err := confirm("Continue?", c.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Restore cancelled.")
		return nil
	}

	n, safety, err := mgr.RestoreBackup(ctx.Ctx, backupPath)
	if errors.Is(err, backup.ErrForeignBackup) {
		return fmt.Errorf("restore failed: %w (sign in as the account that created it)", err)
	}
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.printf("✓ Restored %d records.\n", n)
	if safety != "" {
		ctx.printf("Previous data saved to %s\n", filepath.Base(safety))
	}
	return nil
}

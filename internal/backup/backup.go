// Package backup exports a user's documents to JSON files and restores them.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// FormatVersion is written into every backup file.
const FormatVersion = 1

var ErrForeignBackup = errors.New("backup belongs to another user")

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// File is the on-disk backup document.
type File struct {
	Version     int                 `json:"version"`
	CreatedAt   time.Time           `json:"createdAt"`
	UserID      string              `json:"userId"`
	Collections map[string][]Record `json:"collections"`
}

type Record struct {
	ID     string          `json:"id"`
	Fields docstore.Fields `json:"fields"`
}

// Manager handles backup operations
type Manager struct {
	store     docstore.Store
	oracle    identity.Oracle
	backupDir string
	clock     utils.Clock
}

// NewManager keeps backups under <configDir>/backups.
func NewManager(store docstore.Store, oracle identity.Oracle, configDir string) *Manager {
	return &Manager{
		store:     store,
		oracle:    oracle,
		backupDir: filepath.Join(configDir, constants.BackupDirName),
		clock:     utils.SystemClock,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

func (m *Manager) uid() (string, error) {
	uid, ok := m.oracle.CurrentUser()
	if !ok {
		return "", apperrors.ErrNotAuthenticated
	}
	return uid, nil
}

// Export collects every document the signed-in user owns.
func (m *Manager) Export(ctx context.Context) (File, error) {
	uid, err := m.uid()
	if err != nil {
		return File{}, err
	}
	f := File{
		Version:     FormatVersion,
		CreatedAt:   m.clock().UTC().Truncate(time.Second),
		UserID:      uid,
		Collections: make(map[string][]Record, len(constants.EntityCollections)),
	}
	q := docstore.Query{Filters: []docstore.Filter{docstore.Where(constants.FieldUserID, docstore.OpEqual, uid)}}
	for _, name := range constants.EntityCollections {
		docs, err := m.store.Collection(name).Query(ctx, q)
		if err != nil {
			return File{}, apperrors.Store("export", name, err)
		}
		records := make([]Record, 0, len(docs))
		for _, d := range docs {
			records = append(records, Record{ID: d.ID, Fields: d.Fields})
		}
		sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
		f.Collections[name] = records
	}
	return f, nil
}

// CreateBackup writes a new backup file and prunes old ones.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	return m.createBackup(ctx, false)
}

// createBackup skips rotation for the safety copy taken before a restore.
func (m *Manager) createBackup(ctx context.Context, skipRotation bool) (string, error) {
	f, err := m.Export(ctx)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupPath, err := m.nextPath()
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}
	tempPath := backupPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tempPath, backupPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("failed to rotate old backups", "error", err)
		}
	}
	return backupPath, nil
}

// nextPath names the file after the current minute, adding seconds and then
// a counter when that name is taken.
func (m *Manager) nextPath() (string, error) {
	now := m.clock()
	name := func(stamp string) string {
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+constants.BackupFileSuffix)
	}

	path := name(now.Format("20060102-1504"))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	stamp := now.Format("20060102-150405")
	path = name(stamp)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", errors.New("failed to generate unique backup filename")
		}
		path = name(fmt.Sprintf("%s-%d", stamp, counter))
	}
}

// ListBackups returns a list of all available backups, sorted by timestamp (newest first)
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}
		timestamp, ok := parseStamp(strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix))
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseStamp reads YYYYMMDD-HHMM or YYYYMMDD-HHMMSS with an optional -N counter.
func parseStamp(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		s = parts[0] + "-" + parts[1]
	}
	for _, layout := range []string{"20060102-1504", "20060102-150405"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// ReadBackup loads and checks a backup file.
func ReadBackup(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("backup file does not exist: %s", path)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	if f.Version != FormatVersion {
		return File{}, fmt.Errorf("unsupported backup version %d", f.Version)
	}
	return f, nil
}

// RestoreBackup writes every record in the file back to the store after
// saving a copy of the current data. Records are upserted, so documents
// created since the backup are kept.
func (m *Manager) RestoreBackup(ctx context.Context, path string) (int, string, error) {
	uid, err := m.uid()
	if err != nil {
		return 0, "", err
	}
	f, err := ReadBackup(path)
	if err != nil {
		return 0, "", err
	}
	if f.UserID != uid {
		return 0, "", ErrForeignBackup
	}

	safety, err := m.createBackup(ctx, true)
	if err != nil {
		return 0, "", fmt.Errorf("failed to backup current data before restore: %w", err)
	}

	restored := 0
	for _, name := range constants.EntityCollections {
		coll := m.store.Collection(name)
		for _, rec := range f.Collections[name] {
			fields := docstore.Fields{}
			for k, v := range rec.Fields {
				fields[k] = v
			}
			fields[constants.FieldUserID] = uid
			if err := coll.Set(ctx, rec.ID, fields); err != nil {
				return restored, safety, apperrors.Store("restore", name, err)
			}
			restored++
		}
	}
	return restored, safety, nil
}

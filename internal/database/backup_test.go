package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"turnero/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	dbPath := filepath.Join(t.TempDir(), "source.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.CreateAppointment(context.Background(), testAppointment("2026-09-07", "14:00")))

	backupDir := t.TempDir()
	svc := NewBackupService(dbPath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, &logger)

	require.NoError(t, svc.PerformBackup())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The snapshot is a valid database with the data in it.
	snapshot, err := NewDB(filepath.Join(backupDir, entries[0].Name()), &logger)
	require.NoError(t, err)
	defer snapshot.Close()

	appts, err := snapshot.ListAppointmentsByDate(context.Background(), "2026-09-07")
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestCleanupOldBackupsRespectsRetention(t *testing.T) {
	logger := zerolog.New(zerolog.NewConsoleWriter())
	backupDir := t.TempDir()

	stale := filepath.Join(backupDir, "backup_20200101_000000.db")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(backupDir, "backup_20260901_000000.db")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	svc := NewBackupService("unused.db", config.BackupConfig{
		Enabled:       true,
		RetentionDays: 14,
		StoragePath:   backupDir,
	}, &logger)
	svc.CleanupOldBackups()

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "backup_20260901_000000.db", entries[0].Name())
}

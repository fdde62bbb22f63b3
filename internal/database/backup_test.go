package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slotdesk/internal/config"
	"slotdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")
	logger := zerolog.Nop()

	db, err := NewDB(filepath.Join(tempDir, "source.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SaveSlotSettings(ctx, 1, models.SlotSettings{DefaultDuration: 30}))

	s := NewBackupService(db, config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}, &logger)
	s.now = func() time.Time { return time.Date(2024, 5, 6, 3, 0, 0, 0, time.UTC) }

	var snapshot string
	t.Run("Snapshot", func(t *testing.T) {
		snapshot, err = s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "slotdesk_20240506_030000.db", filepath.Base(snapshot))

		restored, err := NewDB(snapshot, &logger)
		require.NoError(t, err)
		defer restored.Close()

		got, err := restored.GetSlotSettings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 30, got.DefaultDuration)
	})

	t.Run("Prune", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "slotdesk_20240101_000000.db")
		foreign := filepath.Join(storagePath, "keep-me.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))

		oldTime := s.now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))
		// Snapshot was written "now" by the wall clock, which is after s.now().
		removed, err := s.Prune()
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		entries, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.ElementsMatch(t, []string{filepath.Base(snapshot), "keep-me.db"}, names)
		for _, n := range names {
			assert.False(t, strings.HasPrefix(n, "slotdesk_20240101"))
		}
	})
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(setupTestDB(t), config.BackupConfig{Enabled: false}, &logger)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled backup service should return immediately")
	}
}

func TestBackupService_RunStopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()
	s := NewBackupService(setupTestDB(t), config.BackupConfig{
		Enabled:     true,
		Schedule:    "1h",
		StoragePath: dir,
	}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		entries, _ := os.ReadDir(dir)
		return len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slotdesk/internal/config"

	"github.com/rs/zerolog"
)

const backupPrefix = "slotdesk_"

// BackupService periodically snapshots the schedule database and removes
// snapshots older than the retention period.
type BackupService struct {
	db     *DB
	config config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupService(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupService {
	return &BackupService{
		db:     db,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run blocks until ctx is done, taking a snapshot immediately and then on
// every tick of the configured schedule (a Go duration, 24h by default).
func (s *BackupService) Run(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return
	}

	interval := 24 * time.Hour
	if s.config.Schedule != "" {
		if d, err := time.ParseDuration(s.config.Schedule); err == nil && d > 0 {
			interval = d
		} else {
			s.logger.Warn().Err(err).Str("schedule", s.config.Schedule).Msg("Failed to parse backup schedule, using default 24h")
		}
	}

	s.logger.Info().Dur("interval", interval).Msg("Backup service started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *BackupService) cycle(ctx context.Context) {
	if _, err := s.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled backup failed")
	}
	if removed, err := s.Prune(); err != nil {
		s.logger.Error().Err(err).Msg("Backup cleanup failed")
	} else if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Old backups deleted")
	}
}

// Snapshot writes a consistent copy of the database and returns its path.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s%s.db", backupPrefix, s.now().Format("20060102_150405"))
	target := filepath.Join(s.config.StoragePath, name)

	// Use VACUUM INTO for a safe online backup
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, target); err != nil {
		s.logger.Warn().Err(err).Msg("VACUUM INTO failed, falling back to file copy")
		if err := s.copyFile(target); err != nil {
			return "", err
		}
	}

	s.logger.Info().Str("path", target).Msg("Backup completed")
	return target, nil
}

func (s *BackupService) copyFile(target string) error {
	if strings.HasPrefix(s.db.Path(), ":memory:") {
		return errors.New("in-memory database cannot be copied")
	}

	source, err := os.Open(s.db.Path())
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(target)
	if err != nil {
		return err
	}
	defer destination.Close()

	// Not atomic for SQLite: concurrent writes may leave the copy inconsistent.
	_, err = io.Copy(destination, source)
	return err
}

// Prune deletes snapshots older than the retention period and reports how
// many were removed. Files not created by Snapshot are left alone.
func (s *BackupService) Prune() (int, error) {
	if s.config.RetentionDays <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.config.StoragePath, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to delete old backup")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotdesk/internal/models"
)

// GetWeeklySchedule returns the stored working hours of a provider or
// ErrNotFound when none were ever saved.
func (db *DB) GetWeeklySchedule(ctx context.Context, providerID int64) (models.WeeklySchedule, error) {
	query := `SELECT weekday, is_open, start_time, end_time, break_start, break_end
              FROM working_hours WHERE provider_id = ? ORDER BY weekday`
	rows, err := db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get working hours: %w", err)
	}
	defer rows.Close()

	weekly := make(models.WeeklySchedule)
	for rows.Next() {
		var weekday int
		var day models.WorkingDay
		if err := rows.Scan(&weekday, &day.IsOpen, &day.StartTime, &day.EndTime, &day.BreakStart, &day.BreakEnd); err != nil {
			return nil, fmt.Errorf("failed to scan working hours: %w", err)
		}
		weekly[models.Weekday(weekday)] = day
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(weekly) == 0 {
		return nil, ErrNotFound
	}
	return weekly, nil
}

// SaveWeeklySchedule replaces all working hours of a provider. Weekdays
// absent from weekly are stored as closed.
func (db *DB) SaveWeeklySchedule(ctx context.Context, providerID int64, weekly models.WeeklySchedule) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM working_hours WHERE provider_id = ?`, providerID); err != nil {
		return fmt.Errorf("failed to clear working hours: %w", err)
	}

	query := `INSERT INTO working_hours (
                provider_id, weekday, is_open, start_time, end_time, break_start, break_end, updated_at
              ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	for _, d := range models.Weekdays() {
		day := weekly.Day(d)
		if _, err := tx.ExecContext(ctx, query,
			providerID, int(d), day.IsOpen, day.StartTime, day.EndTime, day.BreakStart, day.BreakEnd, now,
		); err != nil {
			return fmt.Errorf("failed to save %s: %w", d, err)
		}
	}

	return tx.Commit()
}

// GetSlotSettings returns ErrNotFound when the provider has no stored settings.
func (db *DB) GetSlotSettings(ctx context.Context, providerID int64) (models.SlotSettings, error) {
	var s models.SlotSettings
	query := `SELECT default_duration, buffer_time FROM slot_settings WHERE provider_id = ?`
	err := db.QueryRowContext(ctx, query, providerID).Scan(&s.DefaultDuration, &s.BufferTime)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	if err != nil {
		return s, fmt.Errorf("failed to get slot settings: %w", err)
	}
	return s, nil
}

func (db *DB) SaveSlotSettings(ctx context.Context, providerID int64, s models.SlotSettings) error {
	query := `INSERT INTO slot_settings (provider_id, default_duration, buffer_time, updated_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(provider_id) DO UPDATE SET
                default_duration = excluded.default_duration,
                buffer_time = excluded.buffer_time,
                updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, providerID, s.DefaultDuration, s.BufferTime, time.Now()); err != nil {
		return fmt.Errorf("failed to save slot settings: %w", err)
	}
	return nil
}

// AddBlockedDate closes a whole date. Blocking an already blocked date
// updates the reason.
func (db *DB) AddBlockedDate(ctx context.Context, bd models.BlockedDate) error {
	query := `INSERT INTO blocked_dates (provider_id, date, reason, created_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(provider_id, date) DO UPDATE SET reason = excluded.reason`
	if _, err := db.ExecContext(ctx, query, bd.ProviderID, bd.Date, bd.Reason, time.Now()); err != nil {
		return fmt.Errorf("failed to block date: %w", err)
	}
	return nil
}

func (db *DB) RemoveBlockedDate(ctx context.Context, providerID int64, date string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM blocked_dates WHERE provider_id = ? AND date = ?`, providerID, date)
	if err != nil {
		return fmt.Errorf("failed to unblock date: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) IsDateBlocked(ctx context.Context, providerID int64, date string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM blocked_dates WHERE provider_id = ? AND date = ?`
	if err := db.QueryRowContext(ctx, query, providerID, date).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check blocked date: %w", err)
	}
	return count > 0, nil
}

// ListBlockedDates returns blocked dates in [from, to]. Empty bounds are open.
func (db *DB) ListBlockedDates(ctx context.Context, providerID int64, from, to string) ([]models.BlockedDate, error) {
	if to == "" {
		to = "9999-12-31"
	}
	query := `SELECT provider_id, date, reason FROM blocked_dates
              WHERE provider_id = ? AND date >= ? AND date <= ? ORDER BY date`
	rows, err := db.QueryContext(ctx, query, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked dates: %w", err)
	}
	defer rows.Close()

	dates := []models.BlockedDate{}
	for rows.Next() {
		var bd models.BlockedDate
		if err := rows.Scan(&bd.ProviderID, &bd.Date, &bd.Reason); err != nil {
			return nil, err
		}
		dates = append(dates, bd)
	}
	return dates, rows.Err()
}

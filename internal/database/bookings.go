package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotdesk/internal/models"
)

const bookingColumns = `id, reference, provider_id, date, start_time, end_time, customer_name,
                 customer_phone, vehicle, service_type, notes, status, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.Reference, &b.ProviderID, &b.Date, &b.StartTime, &b.EndTime, &b.CustomerName,
		&b.CustomerPhone, &b.Vehicle, &b.ServiceType, &b.Notes, &b.Status, &b.Version,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBookingWithLock inserts the booking unless an active booking of the
// same provider and date already overlaps its time range.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Check overlap inside transaction. HH:MM strings compare like minutes.
	var taken int
	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE provider_id = ? AND date = ? AND status != ?
                   AND start_time < ? AND end_time > ?`
	err = tx.QueryRowContext(ctx, queryCount,
		booking.ProviderID, booking.Date, models.StatusCancelled, booking.EndTime, booking.StartTime,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if taken > 0 {
		return ErrSlotTaken
	}

	// 2. Create booking
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	queryInsert := `INSERT INTO bookings (
                reference, provider_id, date, start_time, end_time, customer_name,
                customer_phone, vehicle, service_type, notes, status, version, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.Reference,
		booking.ProviderID,
		booking.Date,
		booking.StartTime,
		booking.EndTime,
		booking.CustomerName,
		booking.CustomerPhone,
		booking.Vehicle,
		booking.ServiceType,
		booking.Notes,
		booking.Status,
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// ListBookingsForDate returns every booking of a provider's date, cancelled
// ones included, ordered by start time.
func (db *DB) ListBookingsForDate(ctx context.Context, providerID int64, date string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE provider_id = ? AND date = ? ORDER BY start_time, id`
	rows, err := db.QueryContext(ctx, query, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingStatusWithVersion changes the status only if the stored
// version still equals fromVersion.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

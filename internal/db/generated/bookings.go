package dbgen

import (
	"context"
	"database/sql"
	"time"
)

const bookingColumns = `id, community_id, court, booking_date, start_minute, end_minute,
    owner_id, created_by, status, created_at, cancelled_at, reminded_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (Booking, error) {
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.CommunityID,
		&i.Court,
		&i.BookingDate,
		&i.StartMinute,
		&i.EndMinute,
		&i.OwnerID,
		&i.CreatedBy,
		&i.Status,
		&i.CreatedAt,
		&i.CancelledAt,
		&i.RemindedAt,
	)
	return i, err
}

func (q *Queries) listBookings(ctx context.Context, query string, args ...interface{}) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		i, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getBooking = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE id = ?
`

func (q *Queries) GetBooking(ctx context.Context, id int64) (Booking, error) {
	row := q.db.QueryRowContext(ctx, getBooking, id)
	return scanBooking(row)
}

const listCourtBookings = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE community_id = ?
  AND court = ?
  AND booking_date = ?
  AND status <> 'cancelled'
ORDER BY start_minute
`

type ListCourtBookingsParams struct {
	CommunityID int64
	Court       int64
	BookingDate string
}

func (q *Queries) ListCourtBookings(ctx context.Context, arg ListCourtBookingsParams) ([]Booking, error) {
	return q.listBookings(ctx, listCourtBookings, arg.CommunityID, arg.Court, arg.BookingDate)
}

const countOverlappingBookings = `
SELECT COUNT(*)
FROM bookings
WHERE community_id = ?
  AND court = ?
  AND booking_date = ?
  AND status <> 'cancelled'
  AND start_minute < ?
  AND ? < end_minute
`

type CountOverlappingBookingsParams struct {
	CommunityID int64
	Court       int64
	BookingDate string
	StartMinute int64
	EndMinute   int64
}

func (q *Queries) CountOverlappingBookings(ctx context.Context, arg CountOverlappingBookingsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOverlappingBookings,
		arg.CommunityID,
		arg.Court,
		arg.BookingDate,
		arg.EndMinute,
		arg.StartMinute,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createBooking = `
INSERT INTO bookings (
    community_id, court, booking_date, start_minute, end_minute,
    owner_id, created_by, status, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateBookingParams struct {
	CommunityID int64
	Court       int64
	BookingDate string
	StartMinute int64
	EndMinute   int64
	OwnerID     string
	CreatedBy   string
	Status      string
	CreatedAt   time.Time
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx, createBooking,
		arg.CommunityID,
		arg.Court,
		arg.BookingDate,
		arg.StartMinute,
		arg.EndMinute,
		arg.OwnerID,
		arg.CreatedBy,
		arg.Status,
		arg.CreatedAt,
	)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, err
	}
	return q.GetBooking(ctx, id)
}

const countActiveOwnerBookingsSince = `
SELECT COUNT(*)
FROM bookings
WHERE owner_id = ?
  AND community_id = ?
  AND booking_date >= ?
  AND status <> 'cancelled'
`

type CountActiveOwnerBookingsSinceParams struct {
	OwnerID     string
	CommunityID int64
	Since       string
}

func (q *Queries) CountActiveOwnerBookingsSince(ctx context.Context, arg CountActiveOwnerBookingsSinceParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActiveOwnerBookingsSince, arg.OwnerID, arg.CommunityID, arg.Since)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countOwnerBookingsOnDate = `
SELECT COUNT(*)
FROM bookings
WHERE owner_id = ?
  AND community_id = ?
  AND booking_date = ?
  AND status <> 'cancelled'
`

type CountOwnerBookingsOnDateParams struct {
	OwnerID     string
	CommunityID int64
	BookingDate string
}

func (q *Queries) CountOwnerBookingsOnDate(ctx context.Context, arg CountOwnerBookingsOnDateParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOwnerBookingsOnDate, arg.OwnerID, arg.CommunityID, arg.BookingDate)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const cancelBooking = `
UPDATE bookings
SET status = 'cancelled',
    cancelled_at = ?
WHERE id = ?
  AND status <> 'cancelled'
`

type CancelBookingParams struct {
	ID          int64
	CancelledAt time.Time
}

// CancelBooking returns sql.ErrNoRows when the booking does not exist or is
// already cancelled.
func (q *Queries) CancelBooking(ctx context.Context, arg CancelBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx, cancelBooking, arg.CancelledAt, arg.ID)
	if err != nil {
		return Booking{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Booking{}, err
	}
	if affected == 0 {
		return Booking{}, sql.ErrNoRows
	}
	return q.GetBooking(ctx, arg.ID)
}

const listUnremindedBookingsOnDate = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE booking_date = ?
  AND status <> 'cancelled'
  AND reminded_at IS NULL
ORDER BY community_id, court, start_minute
`

func (q *Queries) ListUnremindedBookingsOnDate(ctx context.Context, bookingDate string) ([]Booking, error) {
	return q.listBookings(ctx, listUnremindedBookingsOnDate, bookingDate)
}

const markBookingReminded = `
UPDATE bookings
SET reminded_at = ?
WHERE id = ?
`

type MarkBookingRemindedParams struct {
	ID         int64
	RemindedAt time.Time
}

func (q *Queries) MarkBookingReminded(ctx context.Context, arg MarkBookingRemindedParams) error {
	_, err := q.db.ExecContext(ctx, markBookingReminded, arg.RemindedAt, arg.ID)
	return err
}

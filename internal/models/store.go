// internal/models/store.go
package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
)

// overlapTriggerMessage is raised by the bookings_no_overlap trigger.
const overlapTriggerMessage = "booking_overlap"

// Store is the SQLite implementation of the booking engine's ports.
type Store struct {
	db *db.DB
}

var (
	_ booking.ReservationStore     = (*Store)(nil)
	_ booking.CommunityProvider    = (*Store)(nil)
	_ booking.ProfileProvider      = (*Store)(nil)
	_ booking.SubscriptionProvider = (*Store)(nil)
)

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) GetCommunity(ctx context.Context, id int64) (booking.Community, error) {
	row, err := s.db.Queries.GetCommunity(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Community{}, booking.ErrCommunityNotFound
		}
		return booking.Community{}, fmt.Errorf("query community %d: %w", id, err)
	}
	durations, err := s.db.Queries.ListCommunityDurations(ctx, id)
	if err != nil {
		return booking.Community{}, fmt.Errorf("query durations for community %d: %w", id, err)
	}
	return toCommunity(row, durations), nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (booking.Profile, error) {
	row, err := s.db.Queries.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Profile{}, booking.ErrProfileNotFound
		}
		return booking.Profile{}, fmt.Errorf("query profile %q: %w", userID, err)
	}
	profile := booking.Profile{UserID: row.UserID, Email: row.Email}
	if row.CommunityID.Valid {
		communityID := row.CommunityID.Int64
		profile.CommunityID = &communityID
	}
	if row.GroupOwnerID.Valid && strings.TrimSpace(row.GroupOwnerID.String) != "" {
		ownerID := row.GroupOwnerID.String
		profile.GroupOwnerID = &ownerID
	}
	return profile, nil
}

func (s *Store) GetSubscriptionState(ctx context.Context, communityID int64) (booking.SubscriptionState, error) {
	row, err := s.db.Queries.GetSubscription(ctx, communityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.SubscriptionState{}, booking.ErrSubscriptionNotFound
		}
		return booking.SubscriptionState{}, fmt.Errorf("query subscription for community %d: %w", communityID, err)
	}
	state := booking.SubscriptionState{
		CommunityID: row.CommunityID,
		Active:      row.Active,
		ProductTier: row.ProductTier,
	}
	if row.ExpiresAt.Valid {
		expiresAt := row.ExpiresAt.Time
		state.ExpiresAt = &expiresAt
	}
	return state, nil
}

func (s *Store) ListBookings(ctx context.Context, communityID int64, court int, date booking.Date) ([]booking.Booking, error) {
	rows, err := s.db.Queries.ListCourtBookings(ctx, dbgen.ListCourtBookingsParams{
		CommunityID: communityID,
		Court:       int64(court),
		BookingDate: date.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("query bookings for court %d on %s: %w", court, date, err)
	}
	return toBookings(rows)
}

// InsertIfNoOverlap commits b unless a non-cancelled booking on the same
// court and date overlaps it. The probe and the insert share one immediate
// transaction, and the bookings_no_overlap trigger rejects any insert that
// slips past the probe.
func (s *Store) InsertIfNoOverlap(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	status := b.Status
	if status == "" {
		status = booking.StatusPending
	}
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var created dbgen.Booking
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		overlapping, err := tx.Queries.CountOverlappingBookings(ctx, dbgen.CountOverlappingBookingsParams{
			CommunityID: b.CommunityID,
			Court:       int64(b.Court),
			BookingDate: b.Date.String(),
			StartMinute: int64(b.Start),
			EndMinute:   int64(b.End),
		})
		if err != nil {
			return fmt.Errorf("probe overlapping bookings: %w", err)
		}
		if overlapping > 0 {
			return booking.ErrBookingConflict
		}

		created, err = tx.Queries.CreateBooking(ctx, dbgen.CreateBookingParams{
			CommunityID: b.CommunityID,
			Court:       int64(b.Court),
			BookingDate: b.Date.String(),
			StartMinute: int64(b.Start),
			EndMinute:   int64(b.End),
			OwnerID:     b.OwnerID,
			CreatedBy:   b.CreatedBy,
			Status:      string(status),
			CreatedAt:   createdAt,
		})
		if err != nil {
			if isOverlapViolation(err) {
				return booking.ErrBookingConflict
			}
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		if isOverlapViolation(err) {
			return booking.Booking{}, booking.ErrBookingConflict
		}
		return booking.Booking{}, err
	}
	return toBooking(created)
}

func (s *Store) CountActiveBookings(ctx context.Context, ownerID string, communityID int64, since booking.Date) (int, error) {
	count, err := s.db.Queries.CountActiveOwnerBookingsSince(ctx, dbgen.CountActiveOwnerBookingsSinceParams{
		OwnerID:     ownerID,
		CommunityID: communityID,
		Since:       since.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("count bookings for owner %q: %w", ownerID, err)
	}
	return int(count), nil
}

func (s *Store) HasBookingOnDate(ctx context.Context, ownerID string, communityID int64, date booking.Date) (bool, error) {
	count, err := s.db.Queries.CountOwnerBookingsOnDate(ctx, dbgen.CountOwnerBookingsOnDateParams{
		OwnerID:     ownerID,
		CommunityID: communityID,
		BookingDate: date.String(),
	})
	if err != nil {
		return false, fmt.Errorf("count bookings for owner %q on %s: %w", ownerID, date, err)
	}
	return count > 0, nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (booking.Booking, error) {
	row, err := s.db.Queries.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Booking{}, booking.ErrBookingNotFound
		}
		return booking.Booking{}, fmt.Errorf("query booking %d: %w", id, err)
	}
	return toBooking(row)
}

// CancelBooking marks the booking cancelled, freeing its interval. Missing
// and already cancelled bookings yield booking.ErrBookingNotFound.
func (s *Store) CancelBooking(ctx context.Context, id int64, at time.Time) (booking.Booking, error) {
	row, err := s.db.Queries.CancelBooking(ctx, dbgen.CancelBookingParams{ID: id, CancelledAt: at.UTC()})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Booking{}, booking.ErrBookingNotFound
		}
		return booking.Booking{}, fmt.Errorf("cancel booking %d: %w", id, err)
	}
	return toBooking(row)
}

// ListUnremindedBookings returns the active bookings on date that have not
// had a reminder sent.
func (s *Store) ListUnremindedBookings(ctx context.Context, date booking.Date) ([]booking.Booking, error) {
	rows, err := s.db.Queries.ListUnremindedBookingsOnDate(ctx, date.String())
	if err != nil {
		return nil, fmt.Errorf("query unreminded bookings on %s: %w", date, err)
	}
	return toBookings(rows)
}

func (s *Store) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	if err := s.db.Queries.MarkBookingReminded(ctx, dbgen.MarkBookingRemindedParams{ID: id, RemindedAt: at.UTC()}); err != nil {
		return fmt.Errorf("mark booking %d reminded: %w", id, err)
	}
	return nil
}

func isOverlapViolation(err error) bool {
	if errors.Is(err, booking.ErrBookingConflict) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintTrigger {
			return true
		}
		return strings.Contains(sqliteErr.Error(), overlapTriggerMessage)
	}
	return strings.Contains(err.Error(), overlapTriggerMessage)
}

func toCommunity(row dbgen.Community, durations []int64) booking.Community {
	allowed := make([]booking.Minutes, 0, len(durations))
	for _, d := range durations {
		allowed = append(allowed, booking.Minutes(d))
	}
	return booking.Community{
		ID:                        row.ID,
		Name:                      row.Name,
		CourtCount:                int(row.CourtCount),
		OpenTime:                  booking.TimeOfDay(row.OpenMinute),
		CloseTime:                 booking.TimeOfDay(row.CloseMinute),
		AllowedDurations:          allowed,
		DefaultDuration:           booking.Minutes(row.DefaultDuration),
		MaxConcurrentBookings:     int(row.MaxConcurrentBookings),
		AllowSimultaneousBookings: row.AllowSimultaneousBookings,
		Timezone:                  row.Timezone,
	}
}

func toBooking(row dbgen.Booking) (booking.Booking, error) {
	date, err := booking.ParseDate(row.BookingDate)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("booking %d has invalid date %q: %w", row.ID, row.BookingDate, err)
	}
	return booking.Booking{
		ID:          row.ID,
		CommunityID: row.CommunityID,
		Court:       int(row.Court),
		Date:        date,
		Start:       booking.TimeOfDay(row.StartMinute),
		End:         booking.TimeOfDay(row.EndMinute),
		OwnerID:     row.OwnerID,
		CreatedBy:   row.CreatedBy,
		Status:      booking.BookingStatus(row.Status),
		CreatedAt:   row.CreatedAt,
	}, nil
}

func toBookings(rows []dbgen.Booking) ([]booking.Booking, error) {
	out := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := toBooking(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

package booking

import (
	"context"
	"errors"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking is a committed reservation of one court for one interval on one day.
type Booking struct {
	ID          int64         `json:"id"`
	CommunityID int64         `json:"community_id"`
	Court       int           `json:"court"`
	Date        Date          `json:"date"`
	Start       TimeOfDay     `json:"start"`
	End         TimeOfDay     `json:"end"`
	OwnerID     string        `json:"owner_id"`
	CreatedBy   string        `json:"created_by"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (b Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// Active reports whether b still occupies its court.
func (b Booking) Active() bool {
	return b.Status != StatusCancelled
}

// Profile is the part of a user profile the engine consults.
type Profile struct {
	UserID       string  `json:"user_id"`
	CommunityID  *int64  `json:"community_id,omitempty"`
	GroupOwnerID *string `json:"group_owner_id,omitempty"`
	Email        string  `json:"email,omitempty"`
}

// SubscriptionState describes a community's purchase: a recurring
// subscription (Active) or a one-time purchase valid until ExpiresAt.
type SubscriptionState struct {
	CommunityID int64      `json:"community_id"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ProductTier string     `json:"product_tier"`
}

// ValidAt reports whether the purchase is in force at now.
func (s SubscriptionState) ValidAt(now time.Time) bool {
	if s.Active {
		return true
	}
	return s.ExpiresAt != nil && now.Before(*s.ExpiresAt)
}

var (
	ErrCommunityNotFound    = errors.New("community not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrBookingNotFound      = errors.New("booking not found")

	// ErrBookingConflict is returned by ReservationStore.InsertIfNoOverlap
	// when another non-cancelled booking already occupies the interval.
	ErrBookingConflict = errors.New("booking overlaps an existing booking")
)

// ReservationStore reads and writes bookings. InsertIfNoOverlap must be
// atomic with respect to concurrent inserts for the same community, court
// and date.
type ReservationStore interface {
	ListBookings(ctx context.Context, communityID int64, court int, date Date) ([]Booking, error)
	InsertIfNoOverlap(ctx context.Context, b Booking) (Booking, error)
	CountActiveBookings(ctx context.Context, ownerID string, communityID int64, since Date) (int, error)
	HasBookingOnDate(ctx context.Context, ownerID string, communityID int64, date Date) (bool, error)
}

type CommunityProvider interface {
	GetCommunity(ctx context.Context, id int64) (Community, error)
}

type ProfileProvider interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
}

type SubscriptionProvider interface {
	GetSubscriptionState(ctx context.Context, communityID int64) (SubscriptionState, error)
}

// AdmissionListener is notified after a booking has been committed.
// Implementations must not block for long; failures are theirs to log.
type AdmissionListener interface {
	BookingAdmitted(ctx context.Context, b Booking)
}

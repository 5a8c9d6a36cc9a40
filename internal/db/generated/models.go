package dbgen

import (
	"database/sql"
	"time"
)

type Community struct {
	ID                        int64
	Name                      string
	CourtCount                int64
	OpenMinute                int64
	CloseMinute               int64
	DefaultDuration           int64
	MaxConcurrentBookings     int64
	AllowSimultaneousBookings bool
	Timezone                  string
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

type Profile struct {
	UserID       string
	CommunityID  sql.NullInt64
	GroupOwnerID sql.NullString
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Subscription struct {
	CommunityID int64
	Active      bool
	ExpiresAt   sql.NullTime
	ProductTier string
	UpdatedAt   time.Time
}

type Booking struct {
	ID          int64
	CommunityID int64
	Court       int64
	BookingDate string
	StartMinute int64
	EndMinute   int64
	OwnerID     string
	CreatedBy   string
	Status      string
	CreatedAt   time.Time
	CancelledAt sql.NullTime
	RemindedAt  sql.NullTime
}

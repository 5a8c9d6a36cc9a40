package dbgen

import (
	"context"
)

type Querier interface {
	AddCommunityDuration(ctx context.Context, arg AddCommunityDurationParams) error
	CancelBooking(ctx context.Context, arg CancelBookingParams) (Booking, error)
	CountActiveOwnerBookingsSince(ctx context.Context, arg CountActiveOwnerBookingsSinceParams) (int64, error)
	CountOverlappingBookings(ctx context.Context, arg CountOverlappingBookingsParams) (int64, error)
	CountOwnerBookingsOnDate(ctx context.Context, arg CountOwnerBookingsOnDateParams) (int64, error)
	CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error)
	CreateCommunity(ctx context.Context, arg CreateCommunityParams) (Community, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	GetCommunity(ctx context.Context, id int64) (Community, error)
	GetProfile(ctx context.Context, userID string) (Profile, error)
	GetSubscription(ctx context.Context, communityID int64) (Subscription, error)
	ListCommunityDurations(ctx context.Context, communityID int64) ([]int64, error)
	ListCourtBookings(ctx context.Context, arg ListCourtBookingsParams) ([]Booking, error)
	ListUnremindedBookingsOnDate(ctx context.Context, bookingDate string) ([]Booking, error)
	MarkBookingReminded(ctx context.Context, arg MarkBookingRemindedParams) error
	UpsertProfile(ctx context.Context, arg UpsertProfileParams) (Profile, error)
	UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (Subscription, error)
}

var _ Querier = (*Queries)(nil)

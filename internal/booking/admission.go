package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AdmissionRequest asks for court on date from Start for Duration minutes.
type AdmissionRequest struct {
	CommunityID      int64
	Court            int
	Date             Date
	Start            TimeOfDay
	Duration         Minutes
	RequestingUserID string
}

func (r AdmissionRequest) Interval() Interval {
	return NewInterval(r.Start, r.Duration)
}

type admissionState string

const (
	stateRequesting         admissionState = "requesting"
	stateEligibilityChecked admissionState = "eligibility_checked"
	stateOwnerResolved      admissionState = "owner_resolved"
	stateQuotaChecked       admissionState = "quota_checked"
	stateExclusivityChecked admissionState = "exclusivity_checked"
	stateSlotRevalidated    admissionState = "slot_revalidated"
	stateCommitted          admissionState = "committed"
	stateRejected           admissionState = "rejected"
)

// Controller turns a selected slot into a committed Booking. Every gate is
// re-evaluated at admission time; nothing the caller saw earlier is trusted.
type Controller struct {
	communities CommunityProvider
	store       ReservationStore
	gate        *Gate
	resolver    *Resolver
	evaluator   *Evaluator
	listeners   []AdmissionListener
}

func NewController(communities CommunityProvider, store ReservationStore, gate *Gate, resolver *Resolver, listeners ...AdmissionListener) *Controller {
	return &Controller{
		communities: communities,
		store:       store,
		gate:        gate,
		resolver:    resolver,
		evaluator:   NewEvaluator(store),
		listeners:   listeners,
	}
}

// Admit runs the admission gates in order and commits the booking with
// status pending. Rejections are returned as errors matching the sentinels in
// errors.go; any other error is an infrastructure failure.
func (c *Controller) Admit(ctx context.Context, req AdmissionRequest, now time.Time) (Booking, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "admission").
		Int64("community_id", req.CommunityID).
		Int("court", req.Court).
		Str("date", req.Date.String()).
		Str("interval", req.Interval().String()).
		Str("user_id", req.RequestingUserID).
		Logger()
	transition(&logger, stateRequesting)

	community, err := c.communities.GetCommunity(ctx, req.CommunityID)
	if err != nil {
		return Booking{}, fmt.Errorf("load community %d: %w", req.CommunityID, err)
	}
	if err := community.Validate(); err != nil {
		return Booking{}, fmt.Errorf("%w: %v", errInvalidCommunity, err)
	}

	eligibility, err := c.gate.Check(ctx, req.RequestingUserID, now)
	if err != nil {
		return Booking{}, err
	}
	if !eligibility.Eligible {
		return Booking{}, reject(&logger, eligibility.Err())
	}
	if eligibility.CommunityID == nil || *eligibility.CommunityID != community.ID {
		return Booking{}, reject(&logger, EligibilityError{Reason: ReasonNotAMember})
	}
	transition(&logger, stateEligibilityChecked)

	ownerID, err := c.resolver.EffectiveOwner(ctx, req.RequestingUserID)
	if err != nil {
		if errors.Is(err, ErrDelegationChain) {
			return Booking{}, reject(&logger, err)
		}
		return Booking{}, err
	}
	logger = logger.With().Str("owner_id", ownerID).Logger()
	transition(&logger, stateOwnerResolved)

	today, _ := community.LocalNow(now)
	active, err := c.store.CountActiveBookings(ctx, ownerID, community.ID, today)
	if err != nil {
		return Booking{}, fmt.Errorf("count active bookings: %w", err)
	}
	if active >= community.MaxConcurrentBookings {
		return Booking{}, reject(&logger, QuotaError{Current: active, Limit: community.MaxConcurrentBookings})
	}
	transition(&logger, stateQuotaChecked)

	if !community.AllowSimultaneousBookings {
		taken, err := c.store.HasBookingOnDate(ctx, ownerID, community.ID, req.Date)
		if err != nil {
			return Booking{}, fmt.Errorf("check bookings on date: %w", err)
		}
		if taken {
			return Booking{}, reject(&logger, ErrSameDayConflict)
		}
	}
	transition(&logger, stateExclusivityChecked)

	if err := validateRequest(community, req); err != nil {
		return Booking{}, reject(&logger, err)
	}
	bookings, err := c.store.ListBookings(ctx, community.ID, req.Court, req.Date)
	if err != nil {
		return Booking{}, fmt.Errorf("load bookings for revalidation: %w", err)
	}
	if state := ClassifyAgainst(community, req.Court, req.Date, req.Start, req.Duration, now, bookings); state != SlotAvailable {
		return Booking{}, reject(&logger, SlotError{State: state})
	}
	transition(&logger, stateSlotRevalidated)

	created, err := c.store.InsertIfNoOverlap(ctx, Booking{
		CommunityID: community.ID,
		Court:       req.Court,
		Date:        req.Date,
		Start:       req.Start,
		End:         req.Start.Add(req.Duration),
		OwnerID:     ownerID,
		CreatedBy:   req.RequestingUserID,
		Status:      StatusPending,
		CreatedAt:   now.UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrBookingConflict) {
			return Booking{}, reject(&logger, conflictError{err: err})
		}
		return Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	logger.Info().Int64("booking_id", created.ID).Str("state", string(stateCommitted)).Msg("Booking admitted")

	for _, listener := range c.listeners {
		listener.BookingAdmitted(ctx, created)
	}
	return created, nil
}

// validateRequest rejects slots that could never be admitted regardless of
// the current bookings. It runs after the user gates so that ineligible or
// over-quota owners learn that first.
func validateRequest(c Community, req AdmissionRequest) error {
	if !c.HasCourt(req.Court) {
		return fmt.Errorf("%w: court %d (community has %d)", ErrInvalidCourt, req.Court, c.CourtCount)
	}
	if !c.AllowsDuration(req.Duration) {
		return fmt.Errorf("%w: %d minutes", ErrInvalidDuration, req.Duration)
	}
	slot := req.Interval()
	if slot.Start < c.OpenTime || slot.End > c.CloseTime {
		return fmt.Errorf("%w: %s not within %s", ErrOutOfHours, slot, c.Hours())
	}
	if !OnGrid(c, req.Start) {
		return fmt.Errorf("%w: %s is not a slot start", ErrOutOfHours, req.Start)
	}
	return nil
}

func transition(logger *zerolog.Logger, state admissionState) {
	logger.Debug().Str("state", string(state)).Msg("Admission state")
}

func reject(logger *zerolog.Logger, err error) error {
	logger.Info().Err(err).Str("state", string(stateRejected)).Msg("Booking rejected")
	return err
}

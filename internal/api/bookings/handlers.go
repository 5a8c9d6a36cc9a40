// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/ratelimit"
)

const requestTimeout = 5 * time.Second

// Engine is the part of booking.Engine the handlers use.
type Engine interface {
	Community(ctx context.Context, id int64) (booking.Community, error)
	Eligibility(ctx context.Context, userID string, now time.Time) (booking.EligibilityResult, error)
	EffectiveOwner(ctx context.Context, userID string) (string, error)
	Slots(ctx context.Context, communityID int64, date booking.Date, duration booking.Minutes, now time.Time) (booking.SlotTable, error)
	Admit(ctx context.Context, req booking.AdmissionRequest, now time.Time) (booking.Booking, error)
}

type Store interface {
	GetBooking(ctx context.Context, id int64) (booking.Booking, error)
	CancelBooking(ctx context.Context, id int64, at time.Time) (booking.Booking, error)
}

// CancellationListener is told about cancelled bookings after the store
// has committed the cancellation.
type CancellationListener interface {
	BookingCancelled(ctx context.Context, b booking.Booking) error
}

type Config struct {
	Engine Engine
	Store  Store
	// Limiter throttles admission attempts; nil disables rate limiting.
	Limiter    *ratelimit.Limiter
	TrustProxy bool
	Listeners  []CancellationListener
	// Now defaults to time.Now.
	Now func() time.Time
}

type Handler struct {
	engine     Engine
	store      Store
	limiter    *ratelimit.Limiter
	trustProxy bool
	listeners  []CancellationListener
	now        func() time.Time
}

func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Engine == nil || cfg.Store == nil {
		return nil, errors.New("booking handlers require an engine and a store")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		engine:     cfg.Engine,
		store:      cfg.Store,
		limiter:    cfg.Limiter,
		trustProxy: cfg.TrustProxy,
		listeners:  cfg.Listeners,
		now:        now,
	}, nil
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/eligibility", h.HandleEligibility)
	mux.HandleFunc("GET /api/v1/communities/{communityID}/slots", h.HandleSlots)
	mux.HandleFunc("POST /api/v1/communities/{communityID}/bookings", h.HandleBookingCreate)
	mux.HandleFunc("GET /api/v1/bookings/{bookingID}", h.HandleBookingGet)
	mux.HandleFunc("DELETE /api/v1/bookings/{bookingID}", h.HandleBookingCancel)
}

// GET /api/v1/eligibility
func (h *Handler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.engine.Eligibility(ctx, user.ID, h.now())
	if err != nil {
		apiutil.WriteError(w, r, fmt.Errorf("check eligibility: %w", err))
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// GET /api/v1/communities/{communityID}/slots?date=YYYY-MM-DD&duration=60
func (h *Handler) HandleSlots(w http.ResponseWriter, r *http.Request) {
	if apiutil.RequireUser(w, r) == nil {
		return
	}

	communityID, err := apiutil.PathID(r, "communityID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := booking.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "date", Reason: "must be YYYY-MM-DD"})
		return
	}
	duration, err := apiutil.ParseOptionalPositiveInt(r.URL.Query().Get("duration"), "duration")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	table, err := h.engine.Slots(ctx, communityID, date, booking.Minutes(duration), h.now())
	if err != nil {
		apiutil.WriteError(w, r, communityError(communityID, err))
		return
	}
	writeJSON(w, r, http.StatusOK, table)
}

type createBookingRequest struct {
	Court    int               `json:"court"`
	Date     booking.Date      `json:"date"`
	Start    booking.TimeOfDay `json:"start"`
	Duration booking.Minutes   `json:"duration"`
}

// POST /api/v1/communities/{communityID}/bookings
func (h *Handler) HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	user := apiutil.RequireUser(w, r)
	if user == nil {
		return
	}

	communityID, err := apiutil.PathID(r, "communityID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body: " + err.Error(), Code: "invalid_request", Err: err})
		return
	}
	if req.Date.IsZero() {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "date", Reason: "is required"})
		return
	}

	ip := ratelimit.GetClientIP(r, h.trustProxy)
	if h.limiter != nil {
		if result := h.limiter.CheckAdmission(user.ID, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), user.ID, ip, result)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			apiutil.WriteError(w, r, apiutil.HandlerError{
				Status:  http.StatusTooManyRequests,
				Message: "Too many booking attempts",
				Code:    "rate_limited",
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if req.Duration == 0 {
		community, err := h.engine.Community(ctx, communityID)
		if err != nil {
			apiutil.WriteError(w, r, communityError(communityID, err))
			return
		}
		req.Duration = community.DefaultDuration
	}

	created, err := h.engine.Admit(ctx, booking.AdmissionRequest{
		CommunityID:      communityID,
		Court:            req.Court,
		Date:             req.Date,
		Start:            req.Start,
		Duration:         req.Duration,
		RequestingUserID: user.ID,
	}, h.now())
	rejected := booking.IsRejection(err)
	if h.limiter != nil && (err == nil || rejected) {
		if h.limiter.RecordAdmission(user.ID, ip, rejected) {
			logger.Warn().Str("ip", ip).Msg("Booking attempts locked out after repeated rejections")
		}
	}
	if err != nil {
		if rejected {
			apiutil.WriteError(w, r, rejectionError(err))
			return
		}
		apiutil.WriteError(w, r, communityError(communityID, err))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/bookings/%d", created.ID))
	writeJSON(w, r, http.StatusCreated, created)
}

// GET /api/v1/bookings/{bookingID}
func (h *Handler) HandleBookingGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	b, ok := h.loadOwnedBooking(ctx, w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, b)
}

// DELETE /api/v1/bookings/{bookingID}
func (h *Handler) HandleBookingCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	b, ok := h.loadOwnedBooking(ctx, w, r)
	if !ok {
		return
	}
	if !b.Active() {
		apiutil.WriteError(w, r, alreadyCancelled(b.ID))
		return
	}

	cancelled, err := h.store.CancelBooking(ctx, b.ID, h.now())
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			apiutil.WriteError(w, r, alreadyCancelled(b.ID))
			return
		}
		apiutil.WriteError(w, r, fmt.Errorf("cancel booking %d: %w", b.ID, err))
		return
	}
	logger.Info().Int64("booking_id", cancelled.ID).Str("owner_id", cancelled.OwnerID).Msg("Booking cancelled")

	for _, listener := range h.listeners {
		if err := listener.BookingCancelled(ctx, cancelled); err != nil {
			logger.Error().Err(err).Int64("booking_id", cancelled.ID).Msg("Cancellation listener failed")
		}
	}
	writeJSON(w, r, http.StatusOK, cancelled)
}

// loadOwnedBooking fetches the booking named by the path and checks that
// the caller's effective owner owns it. It writes the error response itself.
func (h *Handler) loadOwnedBooking(ctx context.Context, w http.ResponseWriter, r *http.Request) (booking.Booking, bool) {
	user := apiutil.RequireUser(w, r)
	if user == nil {
		return booking.Booking{}, false
	}
	bookingID, err := apiutil.PathID(r, "bookingID")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return booking.Booking{}, false
	}

	b, err := h.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found", Code: "not_found", Err: err})
			return booking.Booking{}, false
		}
		apiutil.WriteError(w, r, fmt.Errorf("load booking %d: %w", bookingID, err))
		return booking.Booking{}, false
	}

	owner, err := h.engine.EffectiveOwner(ctx, user.ID)
	if err != nil && !errors.Is(err, booking.ErrDelegationChain) {
		apiutil.WriteError(w, r, fmt.Errorf("resolve owner for %q: %w", user.ID, err))
		return booking.Booking{}, false
	}
	if err := authz.RequireBookingOwner(r.Context(), owner, b.OwnerID); err != nil {
		log.Ctx(r.Context()).Warn().Int64("booking_id", b.ID).Msg("Booking access denied: forbidden")
		// Hide other owners' bookings.
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found", Code: "not_found", Err: err})
		return booking.Booking{}, false
	}
	return b, true
}

func alreadyCancelled(id int64) apiutil.HandlerError {
	return apiutil.HandlerError{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("Booking %d is already cancelled", id),
		Code:    "already_cancelled",
	}
}

func communityError(communityID int64, err error) error {
	if errors.Is(err, booking.ErrCommunityNotFound) {
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Community not found", Code: "not_found", Err: err}
	}
	return fmt.Errorf("community %d: %w", communityID, err)
}

// rejectionError maps an admission rejection to its HTTP response.
func rejectionError(err error) apiutil.HandlerError {
	code := booking.RejectionCode(err)
	status := http.StatusConflict
	switch code {
	case "not_eligible", "delegation_chain":
		status = http.StatusForbidden
	case "invalid_duration", "out_of_hours", "invalid_court":
		status = http.StatusUnprocessableEntity
	}
	return apiutil.HandlerError{Status: status, Message: err.Error(), Code: code, Err: err}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write response")
	}
}

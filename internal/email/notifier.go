package email

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/booking"
)

const defaultSendTimeout = 5 * time.Second

// Notifier emails booking owners about their reservations. It receives
// admissions as a booking.AdmissionListener and sends confirmations in the
// background; reminders and cancellations are sent synchronously.
type Notifier struct {
	sender       EmailSender
	profiles     booking.ProfileProvider
	communities  booking.CommunityProvider
	reminderFrom string
	sendTimeout  time.Duration
	inFlight     sync.WaitGroup
}

var _ booking.AdmissionListener = (*Notifier)(nil)

type NotifierOption func(*Notifier)

// WithReminderSender overrides the From address used for reminders.
func WithReminderSender(from string) NotifierOption {
	return func(n *Notifier) { n.reminderFrom = strings.TrimSpace(from) }
}

func WithSendTimeout(timeout time.Duration) NotifierOption {
	return func(n *Notifier) {
		if timeout > 0 {
			n.sendTimeout = timeout
		}
	}
}

func NewNotifier(sender EmailSender, profiles booking.ProfileProvider, communities booking.CommunityProvider, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		sender:      sender,
		profiles:    profiles,
		communities: communities,
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// BookingAdmitted sends the confirmation email without blocking admission.
// The send outlives the caller's context.
func (n *Notifier) BookingAdmitted(ctx context.Context, b booking.Booking) {
	if n == nil || n.sender == nil {
		return
	}
	logger := log.Ctx(ctx).With().Str("component", "email").Int64("booking_id", b.ID).Logger()

	recipient, details, err := n.prepare(ctx, b)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to prepare confirmation email")
		return
	}
	if recipient == "" {
		logger.Debug().Str("owner_id", b.OwnerID).Msg("Owner has no email address, skipping confirmation")
		return
	}
	message := BuildBookingConfirmation(details)

	n.inFlight.Add(1)
	go func() {
		defer n.inFlight.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.sendTimeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, recipient, message.Subject, message.Body); err != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send confirmation email")
		}
	}()
}

// SendReminder emails the owner of b about the upcoming booking. A missing
// address is not an error.
func (n *Notifier) SendReminder(ctx context.Context, b booking.Booking) (bool, error) {
	return n.sendNow(ctx, b, BuildBookingReminder, n.reminderFrom)
}

// SendCancellation emails the owner of b that the booking was cancelled.
func (n *Notifier) SendCancellation(ctx context.Context, b booking.Booking) (bool, error) {
	return n.sendNow(ctx, b, BuildBookingCancellation, "")
}

// BookingCancelled sends the cancellation email, dropping the sent flag.
func (n *Notifier) BookingCancelled(ctx context.Context, b booking.Booking) error {
	_, err := n.SendCancellation(ctx, b)
	return err
}

func (n *Notifier) sendNow(ctx context.Context, b booking.Booking, build func(BookingDetails) Message, from string) (bool, error) {
	if n == nil || n.sender == nil {
		return false, nil
	}
	recipient, details, err := n.prepare(ctx, b)
	if err != nil {
		return false, err
	}
	if recipient == "" {
		return false, nil
	}
	message := build(details)

	sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()
	if err := n.sender.SendFrom(sendCtx, recipient, message.Subject, message.Body, from); err != nil {
		return false, err
	}
	return true, nil
}

// Wait blocks until background sends have finished.
func (n *Notifier) Wait() {
	n.inFlight.Wait()
}

func (n *Notifier) prepare(ctx context.Context, b booking.Booking) (string, BookingDetails, error) {
	owner, err := n.profiles.GetProfile(ctx, b.OwnerID)
	if err != nil {
		return "", BookingDetails{}, fmt.Errorf("load owner profile %q: %w", b.OwnerID, err)
	}

	details := BookingDetails{
		Date:      FormatDate(b.Date),
		TimeRange: b.Interval().String(),
		Court:     b.Court,
	}
	if b.CreatedBy != "" && b.CreatedBy != b.OwnerID {
		details.BookedBy = b.CreatedBy
	}
	if n.communities != nil {
		community, err := n.communities.GetCommunity(ctx, b.CommunityID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("community_id", b.CommunityID).Msg("Sending booking email without community name")
		} else {
			details.CommunityName = community.Name
		}
	}
	return strings.TrimSpace(owner.Email), details, nil
}

// FormatDate renders a booking date like "Saturday, Jun 1, 2024".
func FormatDate(d booking.Date) string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("Monday, Jan 2, 2006")
}

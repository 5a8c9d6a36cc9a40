package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/booking"
)

const (
	ReminderJobName = "booking_reminders"
	reminderTimeout = 2 * time.Minute
)

// ReminderSource lists bookings that still need a reminder and records sent
// ones.
type ReminderSource interface {
	ListUnremindedBookings(ctx context.Context, date booking.Date) ([]booking.Booking, error)
	MarkReminded(ctx context.Context, id int64, at time.Time) error
}

// Reminder delivers one reminder. sent is false when the owner cannot be
// reached, which is not an error.
type Reminder interface {
	SendReminder(ctx context.Context, b booking.Booking) (sent bool, err error)
}

// ReminderJob reminds owners of the next day's bookings. "Next day" is taken
// in each booking's community timezone.
type ReminderJob struct {
	source      ReminderSource
	communities booking.CommunityProvider
	reminder    Reminder
	now         func() time.Time
}

func NewReminderJob(source ReminderSource, communities booking.CommunityProvider, reminder Reminder, now func() time.Time) *ReminderJob {
	if now == nil {
		now = time.Now
	}
	return &ReminderJob{source: source, communities: communities, reminder: reminder, now: now}
}

// Register schedules the job on svc with cronExpr.
func (j *ReminderJob) Register(svc *Service, cronExpr string) error {
	if j.source == nil || j.communities == nil || j.reminder == nil {
		return fmt.Errorf("reminder job requires a booking source, a community provider and a reminder sender")
	}
	_, err := svc.AddJob(ReminderJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
		defer cancel()
		logger := log.With().Str("component", "booking_reminders_job").Logger()
		ctx = logger.WithContext(ctx)
		if _, err := j.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("Booking reminder run failed")
		}
	})
	return err
}

// Run sends reminders for bookings dated tomorrow in their community's
// timezone and returns how many were sent. A failed send is logged and
// retried on the next run; owners without an address are marked so they are
// not retried.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	logger := log.Ctx(ctx)
	now := j.now().UTC()

	// Local dates never stray more than a day from UTC.
	utcTomorrow := booking.DateOf(now).AddDays(1)
	var candidates []booking.Booking
	for _, date := range []booking.Date{utcTomorrow.AddDays(-1), utcTomorrow, utcTomorrow.AddDays(1)} {
		found, err := j.source.ListUnremindedBookings(ctx, date)
		if err != nil {
			return 0, fmt.Errorf("list bookings due for reminder: %w", err)
		}
		candidates = append(candidates, found...)
	}

	tomorrows := make(map[int64]booking.Date)
	due, sent := 0, 0
	for _, b := range candidates {
		tomorrow, ok := tomorrows[b.CommunityID]
		if !ok {
			var err error
			tomorrow, err = j.localTomorrow(ctx, b.CommunityID, now)
			if err != nil {
				logger.Error().Err(err).Int64("community_id", b.CommunityID).Msg("Failed to load community for reminders")
				continue
			}
			tomorrows[b.CommunityID] = tomorrow
		}
		if b.Date != tomorrow {
			continue
		}
		due++

		delivered, err := j.reminder.SendReminder(ctx, b)
		if err != nil {
			logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to send booking reminder")
			continue
		}
		if err := j.source.MarkReminded(ctx, b.ID, now); err != nil {
			logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to record booking reminder")
			continue
		}
		if delivered {
			sent++
		}
	}
	logger.Info().Int("due", due).Int("sent", sent).Msg("Booking reminders processed")
	return sent, nil
}

func (j *ReminderJob) localTomorrow(ctx context.Context, communityID int64, now time.Time) (booking.Date, error) {
	community, err := j.communities.GetCommunity(ctx, communityID)
	if err != nil {
		return booking.Date{}, err
	}
	today, _ := community.LocalNow(now)
	return today.AddDays(1), nil
}

package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type SlotState string

const (
	SlotPast        SlotState = "past"
	SlotAvailable   SlotState = "available"
	SlotUnavailable SlotState = "unavailable"
)

// Slot is a classified candidate booking. It is computed on demand and never
// stored.
type Slot struct {
	Court int       `json:"court"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	State SlotState `json:"state"`
}

const maxConcurrentCourtLoads = 8

// Evaluator classifies slots against the bookings in a ReservationStore.
// It only reads, so any number of classifications may run concurrently.
type Evaluator struct {
	store ReservationStore
}

func NewEvaluator(store ReservationStore) *Evaluator {
	return &Evaluator{store: store}
}

// ClassifyAgainst classifies the slot starting at start and lasting duration
// on court and date, given the bookings currently held for that court and
// date. Bookings for other courts or dates are ignored. now is an absolute
// instant; "today" is derived from the community timezone.
func ClassifyAgainst(c Community, court int, date Date, start TimeOfDay, duration Minutes, now time.Time, bookings []Booking) SlotState {
	if state, decided := classifyWithoutBookings(c, court, date, start, duration, now); decided {
		return state
	}
	slot := NewInterval(start, duration)
	for _, b := range bookings {
		if !b.Active() || b.Court != court || b.Date != date {
			continue
		}
		if slot.Overlaps(b.Interval()) {
			return SlotUnavailable
		}
	}
	return SlotAvailable
}

// classifyWithoutBookings applies every rule that does not depend on
// existing bookings. decided is false when the slot still has to be checked
// for overlaps.
func classifyWithoutBookings(c Community, court int, date Date, start TimeOfDay, duration Minutes, now time.Time) (SlotState, bool) {
	today, nowMinute := c.LocalNow(now)
	if date.Before(today) {
		return SlotPast, true
	}
	if date == today && start < nowMinute {
		return SlotPast, true
	}
	if !c.HasCourt(court) || !c.AllowsDuration(duration) || !OnGrid(c, start) {
		return SlotUnavailable, true
	}
	if start.Add(duration) > c.CloseTime {
		return SlotUnavailable, true
	}
	return "", false
}

// Classify loads the bookings for court and date and classifies one slot.
// It never fails: a store error classifies the slot as unavailable.
func (e *Evaluator) Classify(ctx context.Context, c Community, court int, date Date, start TimeOfDay, duration Minutes, now time.Time) SlotState {
	if state, decided := classifyWithoutBookings(c, court, date, start, duration, now); decided {
		return state
	}
	bookings, err := e.store.ListBookings(ctx, c.ID, court, date)
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Int64("community_id", c.ID).
			Int("court", court).
			Str("date", date.String()).
			Msg("Failed to load bookings for slot classification")
		return SlotUnavailable
	}
	return ClassifyAgainst(c, court, date, start, duration, now, bookings)
}

// Table classifies every grid slot on every court of c for date and
// duration. Slots are ordered by court, then start time.
func (e *Evaluator) Table(ctx context.Context, c Community, date Date, duration Minutes, now time.Time) []Slot {
	grid := GenerateGrid(c)
	if len(grid) == 0 || c.CourtCount < 1 {
		return nil
	}

	perCourt := make([][]Slot, c.CourtCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCourtLoads)
	for i := range perCourt {
		court := i + 1
		g.Go(func() error {
			bookings, err := e.store.ListBookings(gctx, c.ID, court, date)
			loaded := err == nil
			if err != nil {
				log.Ctx(ctx).Error().
					Err(err).
					Int64("community_id", c.ID).
					Int("court", court).
					Str("date", date.String()).
					Msg("Failed to load bookings for slot table")
			}

			slots := make([]Slot, len(grid))
			for j, start := range grid {
				state := ClassifyAgainst(c, court, date, start, duration, now, bookings)
				if !loaded && state == SlotAvailable {
					state = SlotUnavailable
				}
				slots[j] = Slot{Court: court, Start: start, End: start.Add(duration), State: state}
			}
			perCourt[i] = slots
			return nil
		})
	}
	_ = g.Wait()

	table := make([]Slot, 0, len(grid)*c.CourtCount)
	for _, slots := range perCourt {
		table = append(table, slots...)
	}
	return table
}

package booking

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	bookings []Booking
	listErr  error
}

func (s *memStore) ListBookings(ctx context.Context, communityID int64, court int, date Date) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Booking
	for _, b := range s.bookings {
		if b.CommunityID == communityID && b.Court == court && b.Date == date && b.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) InsertIfNoOverlap(ctx context.Context, b Booking) (Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookings {
		if existing.CommunityID == b.CommunityID && existing.Court == b.Court && existing.Date == b.Date &&
			existing.Active() && existing.Interval().Overlaps(b.Interval()) {
			return Booking{}, ErrBookingConflict
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.bookings = append(s.bookings, b)
	return b, nil
}

func (s *memStore) CountActiveBookings(ctx context.Context, ownerID string, communityID int64, since Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, b := range s.bookings {
		if b.OwnerID == ownerID && b.CommunityID == communityID && b.Active() && !b.Date.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) HasBookingOnDate(ctx context.Context, ownerID string, communityID int64, date Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.OwnerID == ownerID && b.CommunityID == communityID && b.Active() && b.Date == date {
			return true, nil
		}
	}
	return false, nil
}

// add seeds a booking without any checks.
func (s *memStore) add(b Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	if b.Status == "" {
		b.Status = StatusPending
	}
	s.bookings = append(s.bookings, b)
}

// racingStore passes every read check and loses the insert race.
type racingStore struct {
	memStore
}

func (s *racingStore) InsertIfNoOverlap(ctx context.Context, b Booking) (Booking, error) {
	return Booking{}, ErrBookingConflict
}

type fakeCommunities map[int64]Community

func (f fakeCommunities) GetCommunity(ctx context.Context, id int64) (Community, error) {
	c, ok := f[id]
	if !ok {
		return Community{}, ErrCommunityNotFound
	}
	return c, nil
}

type fakeProfiles struct {
	profiles map[string]Profile
	err      error
}

func (f fakeProfiles) GetProfile(ctx context.Context, userID string) (Profile, error) {
	if f.err != nil {
		return Profile{}, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

type fakeSubscriptions map[int64]SubscriptionState

func (f fakeSubscriptions) GetSubscriptionState(ctx context.Context, communityID int64) (SubscriptionState, error) {
	s, ok := f[communityID]
	if !ok {
		return SubscriptionState{}, ErrSubscriptionNotFound
	}
	return s, nil
}

type recordingListener struct {
	mu       sync.Mutex
	admitted []Booking
}

func (l *recordingListener) BookingAdmitted(ctx context.Context, b Booking) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admitted = append(l.admitted, b)
}

var errStoreDown = errors.New("store unreachable")

func int64Ptr(v int64) *int64 { return &v }

func stringPtr(v string) *string { return &v }

func mustTime(t TimeOfDay, err error) TimeOfDay {
	if err != nil {
		panic(err)
	}
	return t
}

func tod(raw string) TimeOfDay {
	return mustTime(ParseTimeOfDay(raw))
}

func day(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// at returns the UTC instant for date and wall-clock time.
func at(date, clock string) time.Time {
	d := day(date)
	t := tod(clock)
	return time.Date(d.Year, d.Month, d.Day, int(t)/60, int(t)%60, 0, 0, time.UTC)
}

func testCommunity() Community {
	return Community{
		ID:                        1,
		Name:                      "Riverside",
		CourtCount:                2,
		OpenTime:                  tod("09:00"),
		CloseTime:                 tod("21:00"),
		AllowedDurations:          []Minutes{60, 90},
		DefaultDuration:           60,
		MaxConcurrentBookings:     2,
		AllowSimultaneousBookings: false,
	}
}

package booking

import (
	"context"
	"testing"
)

func eveningCommunity() Community {
	c := testCommunity()
	c.OpenTime = tod("08:00")
	c.CloseTime = tod("22:00")
	c.AllowedDurations = []Minutes{60, 90, 120}
	return c
}

func TestClassifyPastSlots(t *testing.T) {
	c := eveningCommunity()
	now := at("2024-06-01", "14:05")
	today := day("2024-06-01")

	if got := ClassifyAgainst(c, 1, today, tod("14:00"), 60, now, nil); got != SlotPast {
		t.Fatalf("14:00 slot: got %s, want past", got)
	}
	if got := ClassifyAgainst(c, 1, today, tod("14:30"), 60, now, nil); got != SlotAvailable {
		t.Fatalf("14:30 slot: got %s, want available", got)
	}

	occupied := []Booking{{CommunityID: 1, Court: 1, Date: today, Start: tod("14:30"), End: tod("15:30"), Status: StatusPending}}
	if got := ClassifyAgainst(c, 1, today, tod("14:30"), 60, now, occupied); got != SlotUnavailable {
		t.Fatalf("occupied 14:30 slot: got %s, want unavailable", got)
	}
	if got := ClassifyAgainst(c, 1, today, tod("14:00"), 60, now, occupied); got != SlotPast {
		t.Fatalf("past takes precedence over availability: got %s", got)
	}
	if got := ClassifyAgainst(c, 1, day("2024-05-31"), tod("20:00"), 60, now, nil); got != SlotPast {
		t.Fatalf("earlier date: got %s, want past", got)
	}
	if got := ClassifyAgainst(c, 1, day("2024-06-02"), tod("08:00"), 60, now, nil); got != SlotAvailable {
		t.Fatalf("future date morning: got %s, want available", got)
	}
}

func TestClassifyEndOfDay(t *testing.T) {
	c := eveningCommunity()
	now := at("2024-06-01", "07:00")
	date := day("2024-06-01")

	if got := ClassifyAgainst(c, 1, date, tod("14:00"), 120, now, nil); got != SlotAvailable {
		t.Fatalf("14:00+120: got %s, want available", got)
	}
	if got := ClassifyAgainst(c, 1, date, tod("21:00"), 90, now, nil); got != SlotUnavailable {
		t.Fatalf("21:00+90: got %s, want unavailable", got)
	}
	if got := ClassifyAgainst(c, 1, date, tod("21:00"), 60, now, nil); got != SlotAvailable {
		t.Fatalf("21:00+60: got %s, want available", got)
	}
}

func TestClassifyScenario(t *testing.T) {
	c := testCommunity()
	date := day("2024-06-01")
	now := at("2024-05-31", "12:00")
	existing := []Booking{{CommunityID: 1, Court: 1, Date: date, Start: tod("10:00"), End: tod("11:00"), OwnerID: "u9", Status: StatusPending}}

	if got := ClassifyAgainst(c, 1, date, tod("10:30"), 60, now, existing); got != SlotUnavailable {
		t.Fatalf("10:30: got %s, want unavailable", got)
	}
	if got := ClassifyAgainst(c, 1, date, tod("11:00"), 60, now, existing); got != SlotAvailable {
		t.Fatalf("11:00: got %s, want available", got)
	}
	if got := ClassifyAgainst(c, 2, date, tod("10:30"), 60, now, existing); got != SlotAvailable {
		t.Fatalf("court 2 ignores court 1 bookings: got %s", got)
	}

	cancelled := existing[0]
	cancelled.Status = StatusCancelled
	if got := ClassifyAgainst(c, 1, date, tod("10:30"), 60, now, []Booking{cancelled}); got != SlotAvailable {
		t.Fatalf("cancelled booking still blocks: got %s", got)
	}
}

func TestClassifyDefaultsToUnavailable(t *testing.T) {
	c := testCommunity()
	date := day("2024-06-01")
	now := at("2024-05-31", "12:00")

	tests := map[string]struct {
		court    int
		start    TimeOfDay
		duration Minutes
	}{
		"duration not offered": {court: 1, start: tod("10:00"), duration: 120},
		"zero duration":        {court: 1, start: tod("10:00"), duration: 0},
		"unknown court":        {court: 3, start: tod("10:00"), duration: 60},
		"before opening":       {court: 1, start: tod("08:30"), duration: 60},
		"off grid":             {court: 1, start: tod("10:15"), duration: 60},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ClassifyAgainst(c, tt.court, date, tt.start, tt.duration, now, nil); got != SlotUnavailable {
				t.Fatalf("got %s, want unavailable", got)
			}
		})
	}
}

func TestClassifyUsesCommunityTimezone(t *testing.T) {
	c := eveningCommunity()
	c.Timezone = "America/New_York"
	// 18:05 UTC is 14:05 in New York during daylight saving time.
	now := at("2024-06-01", "18:05")
	date := day("2024-06-01")

	if got := ClassifyAgainst(c, 1, date, tod("14:00"), 60, now, nil); got != SlotPast {
		t.Fatalf("14:00 local: got %s, want past", got)
	}
	if got := ClassifyAgainst(c, 1, date, tod("14:30"), 60, now, nil); got != SlotAvailable {
		t.Fatalf("14:30 local: got %s, want available", got)
	}
}

func TestEvaluatorClassifyStoreFailure(t *testing.T) {
	store := &memStore{listErr: errStoreDown}
	evaluator := NewEvaluator(store)
	c := testCommunity()

	got := evaluator.Classify(context.Background(), c, 1, day("2024-06-01"), tod("10:00"), 60, at("2024-05-31", "12:00"))
	if got != SlotUnavailable {
		t.Fatalf("store failure: got %s, want unavailable", got)
	}
}

func TestEvaluatorTable(t *testing.T) {
	store := &memStore{}
	c := testCommunity()
	date := day("2024-06-01")
	store.add(Booking{CommunityID: 1, Court: 1, Date: date, Start: tod("10:00"), End: tod("11:00"), OwnerID: "u9"})
	evaluator := NewEvaluator(store)

	table := evaluator.Table(context.Background(), c, date, 60, at("2024-06-01", "09:40"))
	gridLen := len(GenerateGrid(c))
	if len(table) != gridLen*c.CourtCount {
		t.Fatalf("table size: got %d, want %d", len(table), gridLen*c.CourtCount)
	}

	states := make(map[int]map[TimeOfDay]SlotState)
	for _, slot := range table {
		if states[slot.Court] == nil {
			states[slot.Court] = make(map[TimeOfDay]SlotState)
		}
		states[slot.Court][slot.Start] = slot.State
		if slot.End != slot.Start.Add(60) {
			t.Fatalf("slot end %s for start %s", slot.End, slot.Start)
		}
	}

	checks := []struct {
		court int
		start string
		want  SlotState
	}{
		{1, "09:00", SlotPast},
		{1, "09:30", SlotPast},
		{1, "10:00", SlotUnavailable},
		{1, "10:30", SlotUnavailable},
		{1, "11:00", SlotAvailable},
		{1, "20:00", SlotAvailable},
		{1, "20:30", SlotUnavailable},
		{2, "10:00", SlotAvailable},
		{2, "09:00", SlotPast},
	}
	for _, check := range checks {
		if got := states[check.court][tod(check.start)]; got != check.want {
			t.Fatalf("court %d %s: got %s, want %s", check.court, check.start, got, check.want)
		}
	}
}

func TestEvaluatorTableReclassifiesPerDuration(t *testing.T) {
	store := &memStore{}
	c := testCommunity()
	date := day("2024-06-01")
	store.add(Booking{CommunityID: 1, Court: 1, Date: date, Start: tod("11:00"), End: tod("12:00"), OwnerID: "u9"})
	evaluator := NewEvaluator(store)
	now := at("2024-05-31", "12:00")

	short := evaluator.Table(context.Background(), c, date, 60, now)
	long := evaluator.Table(context.Background(), c, date, 90, now)

	find := func(slots []Slot, start TimeOfDay) SlotState {
		for _, s := range slots {
			if s.Court == 1 && s.Start == start {
				return s.State
			}
		}
		return ""
	}
	if got := find(short, tod("10:00")); got != SlotAvailable {
		t.Fatalf("10:00 for 60 minutes: got %s", got)
	}
	if got := find(long, tod("10:00")); got != SlotUnavailable {
		t.Fatalf("10:00 for 90 minutes: got %s", got)
	}
}

func TestEvaluatorTableStoreFailure(t *testing.T) {
	store := &memStore{listErr: errStoreDown}
	evaluator := NewEvaluator(store)
	c := testCommunity()

	for _, slot := range evaluator.Table(context.Background(), c, day("2024-06-01"), 60, at("2024-05-31", "12:00")) {
		if slot.State != SlotUnavailable {
			t.Fatalf("slot %d %s: got %s, want unavailable", slot.Court, slot.Start, slot.State)
		}
	}
}

package booking

import (
	"reflect"
	"testing"
)

func TestGenerateGrid(t *testing.T) {
	c := testCommunity()
	c.OpenTime = tod("08:00")
	c.CloseTime = tod("22:00")

	grid := GenerateGrid(c)
	if len(grid) != 28 {
		t.Fatalf("grid length: got %d, want 28", len(grid))
	}
	if grid[0] != tod("08:00") {
		t.Fatalf("first slot: %s", grid[0])
	}
	if grid[len(grid)-1] != tod("21:30") {
		t.Fatalf("last slot: %s", grid[len(grid)-1])
	}
	for i := 1; i < len(grid); i++ {
		if grid[i]-grid[i-1] != TimeOfDay(GridGranularity) {
			t.Fatalf("gap between %s and %s", grid[i-1], grid[i])
		}
	}
}

func TestGenerateGridDeterministic(t *testing.T) {
	c := testCommunity()
	first := GenerateGrid(c)
	second := GenerateGrid(c)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("grid not idempotent: %v vs %v", first, second)
	}
	want := int(c.CloseTime-c.OpenTime) / int(GridGranularity)
	if len(first) != want {
		t.Fatalf("grid length: got %d, want %d", len(first), want)
	}
}

func TestGenerateGridUnalignedHours(t *testing.T) {
	c := testCommunity()
	c.OpenTime = tod("08:15")
	c.CloseTime = tod("10:00")

	got := GenerateGrid(c)
	want := []TimeOfDay{tod("08:30"), tod("09:00"), tod("09:30")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("grid: got %v, want %v", got, want)
	}
}

func TestGenerateGridEmptyWindow(t *testing.T) {
	c := testCommunity()
	c.OpenTime = tod("10:00")
	c.CloseTime = tod("10:00")
	if grid := GenerateGrid(c); len(grid) != 0 {
		t.Fatalf("expected empty grid, got %v", grid)
	}
}

func TestCommunityValidate(t *testing.T) {
	valid := testCommunity()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid community: %v", err)
	}

	tests := map[string]func(c *Community){
		"closed before open":   func(c *Community) { c.CloseTime = c.OpenTime },
		"no courts":            func(c *Community) { c.CourtCount = 0 },
		"no durations":         func(c *Community) { c.AllowedDurations = nil },
		"off grid duration":    func(c *Community) { c.AllowedDurations = []Minutes{45} },
		"off grid default":     func(c *Community) { c.DefaultDuration = 20 },
		"negative quota":       func(c *Community) { c.MaxConcurrentBookings = -1 },
		"unknown timezone":     func(c *Community) { c.Timezone = "Mars/Olympus" },
		"close after midnight": func(c *Community) { c.CloseTime = 1500 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := testCommunity()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

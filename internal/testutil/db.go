package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/codr1/Courtside/internal/db"
	dbgen "github.com/codr1/Courtside/internal/db/generated"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// CommunityFixture describes a community to seed. Durations are in minutes.
type CommunityFixture struct {
	Name                      string
	CourtCount                int64
	OpenMinute                int64
	CloseMinute               int64
	Durations                 []int64
	DefaultDuration           int64
	MaxConcurrentBookings     int64
	AllowSimultaneousBookings bool
	Timezone                  string
}

// SeedCommunity inserts the community and its durations and returns its id.
func SeedCommunity(t *testing.T, database *db.DB, f CommunityFixture) int64 {
	t.Helper()
	ctx := context.Background()

	community, err := database.Queries.CreateCommunity(ctx, dbgen.CreateCommunityParams{
		Name:                      f.Name,
		CourtCount:                f.CourtCount,
		OpenMinute:                f.OpenMinute,
		CloseMinute:               f.CloseMinute,
		DefaultDuration:           f.DefaultDuration,
		MaxConcurrentBookings:     f.MaxConcurrentBookings,
		AllowSimultaneousBookings: f.AllowSimultaneousBookings,
		Timezone:                  f.Timezone,
	})
	if err != nil {
		t.Fatalf("seed community: %v", err)
	}
	for _, minutes := range f.Durations {
		if err := database.Queries.AddCommunityDuration(ctx, dbgen.AddCommunityDurationParams{
			CommunityID: community.ID,
			Minutes:     minutes,
		}); err != nil {
			t.Fatalf("seed community duration: %v", err)
		}
	}
	return community.ID
}

// SeedResident stores a profile that belongs to communityID.
func SeedResident(t *testing.T, database *db.DB, userID string, communityID int64, email string) {
	t.Helper()
	if _, err := database.Queries.UpsertProfile(context.Background(), dbgen.UpsertProfileParams{
		UserID:      userID,
		CommunityID: sql.NullInt64{Int64: communityID, Valid: true},
		Email:       email,
	}); err != nil {
		t.Fatalf("seed resident %q: %v", userID, err)
	}
}

// SeedDelegate stores a profile riding on ownerID's membership.
func SeedDelegate(t *testing.T, database *db.DB, userID, ownerID string) {
	t.Helper()
	if _, err := database.Queries.UpsertProfile(context.Background(), dbgen.UpsertProfileParams{
		UserID:       userID,
		GroupOwnerID: sql.NullString{String: ownerID, Valid: true},
	}); err != nil {
		t.Fatalf("seed delegate %q: %v", userID, err)
	}
}

// SeedSubscription stores an active recurring subscription for communityID.
func SeedSubscription(t *testing.T, database *db.DB, communityID int64, tier string) {
	t.Helper()
	if _, err := database.Queries.UpsertSubscription(context.Background(), dbgen.UpsertSubscriptionParams{
		CommunityID: communityID,
		Active:      true,
		ProductTier: tier,
	}); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
}

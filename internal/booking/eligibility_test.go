package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGateCheck(t *testing.T) {
	now := at("2024-06-01", "12:00")
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	profiles := fakeProfiles{profiles: map[string]Profile{
		"resident":        {UserID: "resident", CommunityID: int64Ptr(1)},
		"lapsed":          {UserID: "lapsed", CommunityID: int64Ptr(2)},
		"one-time":        {UserID: "one-time", CommunityID: int64Ptr(3)},
		"basic":           {UserID: "basic", CommunityID: int64Ptr(4)},
		"no-sub":          {UserID: "no-sub", CommunityID: int64Ptr(5)},
		"guest":           {UserID: "guest", GroupOwnerID: stringPtr("resident")},
		"orphan":          {UserID: "orphan", GroupOwnerID: stringPtr("missing")},
		"guest-of-guest":  {UserID: "guest-of-guest", GroupOwnerID: stringPtr("guest")},
		"nobody":          {UserID: "nobody"},
		"expired-onetime": {UserID: "expired-onetime", CommunityID: int64Ptr(6)},
	}}
	subs := fakeSubscriptions{
		1: {CommunityID: 1, Active: true, ProductTier: "Premium"},
		2: {CommunityID: 2, Active: false, ProductTier: "premium"},
		3: {CommunityID: 3, ExpiresAt: &future, ProductTier: "premium"},
		4: {CommunityID: 4, Active: true, ProductTier: "basic"},
		6: {CommunityID: 6, ExpiresAt: &past, ProductTier: "premium"},
	}
	gate := NewGate(profiles, subs, []string{" premium "})

	tests := []struct {
		user          string
		wantEligible  bool
		wantReason    IneligibilityReason
		wantCommunity int64
	}{
		{user: "resident", wantEligible: true, wantCommunity: 1},
		{user: "lapsed", wantReason: ReasonSubscriptionExpired},
		{user: "one-time", wantEligible: true, wantCommunity: 3},
		{user: "expired-onetime", wantReason: ReasonSubscriptionExpired},
		{user: "basic", wantReason: ReasonWrongProductTier},
		{user: "no-sub", wantReason: ReasonSubscriptionExpired},
		{user: "guest", wantEligible: true, wantCommunity: 1},
		{user: "orphan", wantReason: ReasonNotAMember},
		{user: "guest-of-guest", wantReason: ReasonNotAMember},
		{user: "nobody", wantReason: ReasonNotAMember},
		{user: "unknown", wantReason: ReasonNotAMember},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			got, err := gate.Check(context.Background(), tt.user, now)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got.Eligible != tt.wantEligible {
				t.Fatalf("eligible: got %v, want %v (reason %q)", got.Eligible, tt.wantEligible, got.Reason)
			}
			if got.Reason != tt.wantReason {
				t.Fatalf("reason: got %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantEligible {
				if got.CommunityID == nil || *got.CommunityID != tt.wantCommunity {
					t.Fatalf("community: got %v, want %d", got.CommunityID, tt.wantCommunity)
				}
				if got.Err() != nil {
					t.Fatalf("eligible result returned error %v", got.Err())
				}
				return
			}
			var eligibilityErr EligibilityError
			if !errors.As(got.Err(), &eligibilityErr) || eligibilityErr.Reason != tt.wantReason {
				t.Fatalf("Err(): got %v", got.Err())
			}
			if !errors.Is(got.Err(), ErrNotEligible) {
				t.Fatalf("Err() does not match ErrNotEligible")
			}
		})
	}
}

func TestGateCheckProviderFailure(t *testing.T) {
	gate := NewGate(fakeProfiles{err: errStoreDown}, fakeSubscriptions{}, []string{"premium"})
	if _, err := gate.Check(context.Background(), "anyone", time.Now()); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGateTierGrantsBooking(t *testing.T) {
	gate := NewGate(fakeProfiles{}, fakeSubscriptions{}, []string{"Premium", "", "club"})
	if !gate.TierGrantsBooking("PREMIUM") || !gate.TierGrantsBooking("club ") {
		t.Fatalf("configured tiers should grant booking")
	}
	if gate.TierGrantsBooking("") || gate.TierGrantsBooking("basic") {
		t.Fatalf("unconfigured tiers should not grant booking")
	}
}

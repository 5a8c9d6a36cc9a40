package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EligibilityResult is the outcome of an eligibility check. CommunityID is
// the community the user books in: their own, or their group owner's.
type EligibilityResult struct {
	Eligible    bool                `json:"eligible"`
	Reason      IneligibilityReason `json:"reason,omitempty"`
	CommunityID *int64              `json:"community_id,omitempty"`
}

func eligible(communityID int64) EligibilityResult {
	return EligibilityResult{Eligible: true, CommunityID: &communityID}
}

func ineligible(reason IneligibilityReason) EligibilityResult {
	return EligibilityResult{Reason: reason}
}

// Err returns nil for an eligible result and an EligibilityError otherwise.
func (r EligibilityResult) Err() error {
	if r.Eligible {
		return nil
	}
	return EligibilityError{Reason: r.Reason}
}

// Gate decides whether a user may book at all: membership plus a valid
// subscription whose product tier grants booking.
type Gate struct {
	profiles      ProfileProvider
	subscriptions SubscriptionProvider
	bookingTiers  map[string]struct{}
}

// NewGate returns a Gate that accepts the given product tiers (compared
// case-insensitively).
func NewGate(profiles ProfileProvider, subscriptions SubscriptionProvider, bookingTiers []string) *Gate {
	tiers := make(map[string]struct{}, len(bookingTiers))
	for _, tier := range bookingTiers {
		tier = normalizeTier(tier)
		if tier != "" {
			tiers[tier] = struct{}{}
		}
	}
	return &Gate{profiles: profiles, subscriptions: subscriptions, bookingTiers: tiers}
}

func normalizeTier(tier string) string {
	return strings.ToLower(strings.TrimSpace(tier))
}

// TierGrantsBooking reports whether tier carries booking rights.
func (g *Gate) TierGrantsBooking(tier string) bool {
	_, ok := g.bookingTiers[normalizeTier(tier)]
	return ok
}

// Check evaluates userID's eligibility at now. The returned error is only
// set for provider failures; an ineligible user yields a result with a
// reason and a nil error.
func (g *Gate) Check(ctx context.Context, userID string, now time.Time) (EligibilityResult, error) {
	profile, err := g.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return ineligible(ReasonNotAMember), nil
		}
		return EligibilityResult{}, fmt.Errorf("load profile %q: %w", userID, err)
	}

	if profile.CommunityID != nil {
		return g.checkResident(ctx, *profile.CommunityID, now)
	}

	if profile.GroupOwnerID != nil {
		return g.checkDelegated(ctx, *profile.GroupOwnerID)
	}

	return ineligible(ReasonNotAMember), nil
}

func (g *Gate) checkResident(ctx context.Context, communityID int64, now time.Time) (EligibilityResult, error) {
	state, err := g.subscriptions.GetSubscriptionState(ctx, communityID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return ineligible(ReasonSubscriptionExpired), nil
		}
		return EligibilityResult{}, fmt.Errorf("load subscription for community %d: %w", communityID, err)
	}
	if !state.ValidAt(now) {
		return ineligible(ReasonSubscriptionExpired), nil
	}
	if !g.TierGrantsBooking(state.ProductTier) {
		return ineligible(ReasonWrongProductTier), nil
	}
	return eligible(communityID), nil
}

// checkDelegated admits users riding on a resident group owner. The
// subscription is the owning community's concern and is not re-checked.
func (g *Gate) checkDelegated(ctx context.Context, groupOwnerID string) (EligibilityResult, error) {
	owner, err := g.profiles.GetProfile(ctx, groupOwnerID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return ineligible(ReasonNotAMember), nil
		}
		return EligibilityResult{}, fmt.Errorf("load group owner profile %q: %w", groupOwnerID, err)
	}
	if owner.CommunityID == nil {
		return ineligible(ReasonNotAMember), nil
	}
	return eligible(*owner.CommunityID), nil
}

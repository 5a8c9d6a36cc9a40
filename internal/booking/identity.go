package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Resolver maps a requesting user to the identity that owns their bookings.
type Resolver struct {
	profiles ProfileProvider
}

func NewResolver(profiles ProfileProvider) *Resolver {
	return &Resolver{profiles: profiles}
}

// EffectiveOwner returns the user's group owner when they are delegated
// under one, otherwise userID. Only one level of delegation is supported: a
// group owner that is itself delegated yields ErrDelegationChain.
func (r *Resolver) EffectiveOwner(ctx context.Context, userID string) (string, error) {
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return userID, nil
		}
		return "", fmt.Errorf("load profile %q: %w", userID, err)
	}
	if profile.GroupOwnerID == nil || strings.TrimSpace(*profile.GroupOwnerID) == "" {
		return userID, nil
	}
	ownerID := *profile.GroupOwnerID
	if ownerID == userID {
		return userID, nil
	}

	owner, err := r.profiles.GetProfile(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return ownerID, nil
		}
		return "", fmt.Errorf("load group owner profile %q: %w", ownerID, err)
	}
	if owner.GroupOwnerID != nil && *owner.GroupOwnerID != "" && *owner.GroupOwnerID != ownerID {
		return "", fmt.Errorf("%w: %s -> %s -> %s", ErrDelegationChain, userID, ownerID, *owner.GroupOwnerID)
	}
	return ownerID, nil
}

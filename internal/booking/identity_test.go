package booking

import (
	"context"
	"errors"
	"testing"
)

func TestResolverEffectiveOwner(t *testing.T) {
	profiles := fakeProfiles{profiles: map[string]Profile{
		"owner":   {UserID: "owner", CommunityID: int64Ptr(1)},
		"member":  {UserID: "member", GroupOwnerID: stringPtr("owner")},
		"blank":   {UserID: "blank", GroupOwnerID: stringPtr("  ")},
		"self":    {UserID: "self", GroupOwnerID: stringPtr("self")},
		"dangled": {UserID: "dangled", GroupOwnerID: stringPtr("ghost")},
		"nested":  {UserID: "nested", GroupOwnerID: stringPtr("member")},
	}}
	resolver := NewResolver(profiles)

	tests := []struct {
		user string
		want string
	}{
		{"owner", "owner"},
		{"member", "owner"},
		{"blank", "blank"},
		{"self", "self"},
		{"dangled", "ghost"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		got, err := resolver.EffectiveOwner(context.Background(), tt.user)
		if err != nil {
			t.Fatalf("EffectiveOwner(%q): %v", tt.user, err)
		}
		if got != tt.want {
			t.Fatalf("EffectiveOwner(%q) = %q, want %q", tt.user, got, tt.want)
		}
	}

	if _, err := resolver.EffectiveOwner(context.Background(), "nested"); !errors.Is(err, ErrDelegationChain) {
		t.Fatalf("nested delegation: got %v, want ErrDelegationChain", err)
	}
}

func TestResolverProviderFailure(t *testing.T) {
	resolver := NewResolver(fakeProfiles{err: errStoreDown})
	if _, err := resolver.EffectiveOwner(context.Background(), "member"); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

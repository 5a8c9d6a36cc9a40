package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// AuthUser is the authenticated caller. ID is the identity used by the
// booking engine (profile user id).
type AuthUser struct {
	ID          string
	SessionType string // jwt | clerk
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// RequireUser returns the caller or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireBookingOwner allows the caller to act on a booking only when the
// caller's effective owner owns it.
func RequireBookingOwner(ctx context.Context, effectiveOwnerID, bookingOwnerID string) error {
	if _, err := RequireUser(ctx); err != nil {
		return err
	}
	if effectiveOwnerID == "" || effectiveOwnerID != bookingOwnerID {
		return ErrForbidden
	}
	return nil
}

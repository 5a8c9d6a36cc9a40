package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/authz"
)

// ClerkAuthenticator accepts Clerk session tokens from the Authorization
// header or the __session cookie. The Clerk user id is the profile user id.
type ClerkAuthenticator struct{}

// NewClerkAuthenticator initializes the Clerk SDK with secretKey.
func NewClerkAuthenticator(secretKey string) (*ClerkAuthenticator, error) {
	if secretKey == "" {
		return nil, errors.New("clerk secret key is required")
	}
	clerk.SetKey(secretKey)
	log.Info().Msg("Clerk SDK initialized")
	return &ClerkAuthenticator{}, nil
}

func (a *ClerkAuthenticator) Authenticate(r *http.Request) (*authz.AuthUser, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie("__session"); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return nil, ErrNoCredentials
	}

	claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{Token: token})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &authz.AuthUser{ID: claims.Subject, SessionType: "clerk"}, nil
}

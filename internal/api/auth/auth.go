// Package auth turns request credentials into an authz.AuthUser.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/codr1/Courtside/internal/api/authz"
)

var (
	ErrNoCredentials = errors.New("no credentials")
	ErrInvalidToken  = errors.New("invalid token")
)

// Authenticator resolves the caller of r. It returns ErrNoCredentials when
// the request carries none.
type Authenticator interface {
	Authenticate(r *http.Request) (*authz.AuthUser, error)
}

// bearerToken returns the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

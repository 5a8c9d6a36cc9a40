package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newJWTAuth(t *testing.T, issuer string) *JWTAuthenticator {
	t.Helper()
	a, err := NewJWTAuthenticator("test-secret", issuer)
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}
	return a
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/eligibility", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestJWTAuthenticatorRoundTrip(t *testing.T) {
	a := newJWTAuth(t, "courtside")
	token, err := a.IssueToken("alice", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	user, err := a.Authenticate(requestWithToken(token))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != "alice" || user.SessionType != "jwt" {
		t.Fatalf("user = %+v", user)
	}
}

func TestJWTAuthenticatorRejects(t *testing.T) {
	a := newJWTAuth(t, "courtside")
	other := newJWTAuth(t, "someone-else")

	expired, _ := a.IssueToken("alice", time.Minute, time.Now().Add(-time.Hour))
	wrongIssuer, _ := other.IssueToken("alice", time.Hour, time.Now())
	noSubject, _ := a.IssueToken("", time.Hour, time.Now())

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "courtside",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("not-the-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  "courtside",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := map[string]string{
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"wrong key":    wrongKey,
		"no expiry":    noExpiry,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := a.Authenticate(requestWithToken(token)); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestJWTAuthenticatorNoCredentials(t *testing.T) {
	a := newJWTAuth(t, "")
	if _, err := a.Authenticate(requestWithToken("")); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	r := requestWithToken("")
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if _, err := a.Authenticate(r); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("basic auth: expected ErrNoCredentials, got %v", err)
	}
}

func TestNewAuthenticatorsRequireSecrets(t *testing.T) {
	if _, err := NewJWTAuthenticator("", ""); err == nil {
		t.Fatal("expected error for empty jwt secret")
	}
	if _, err := NewClerkAuthenticator(""); err == nil {
		t.Fatal("expected error for empty clerk key")
	}
}

func TestClerkAuthenticatorNoCredentials(t *testing.T) {
	a := &ClerkAuthenticator{}
	if _, err := a.Authenticate(requestWithToken("")); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

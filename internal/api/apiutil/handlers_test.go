package apiutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/Courtside/internal/api/authz"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "handler error",
			err:        HandlerError{Status: http.StatusConflict, Message: "taken", Code: "store_conflict"},
			wantStatus: http.StatusConflict,
			wantCode:   "store_conflict",
		},
		{
			name:       "handler error wrapping field error",
			err:        HandlerError{Status: http.StatusUnprocessableEntity, Message: "bad", Code: "invalid_request", Err: FieldError{Field: "court", Reason: "is required"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "invalid_request",
			wantField:  "court",
		},
		{
			name:       "bare field error",
			err:        FieldError{Field: "date", Reason: "is required"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
			wantField:  "date",
		},
		{
			name:       "unexpected error",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("content type = %q", ct)
			}
			body := decodeError(t, rec)
			if body.Code != tt.wantCode || body.Field != tt.wantField {
				t.Fatalf("body = %+v", body)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(body.Error, "disk") {
				t.Fatalf("internal error leaked: %q", body.Error)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Court int `json:"court"`
	}

	var ok payload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"court":2}`))
	if err := DecodeJSON(r, &ok); err != nil || ok.Court != 2 {
		t.Fatalf("decode: %v %+v", err, ok)
	}

	for name, body := range map[string]string{
		"unknown field":   `{"court":2,"extra":true}`,
		"trailing object": `{"court":2}{"court":3}`,
		"not json":        `court=2`,
	} {
		t.Run(name, func(t *testing.T) {
			var p payload
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			if err := DecodeJSON(r, &p); err == nil {
				t.Fatalf("expected error for %s", body)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	rec := httptest.NewRecorder()
	if user := RequireUser(rec, httptest.NewRequest(http.MethodGet, "/", nil)); user != nil {
		t.Fatalf("expected nil user")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(authz.ContextWithUser(r.Context(), &authz.AuthUser{ID: "alice"}))
	rec = httptest.NewRecorder()
	if user := RequireUser(rec, r); user == nil || user.ID != "alice" {
		t.Fatalf("user = %+v", user)
	}
}

func TestParsePositiveInt64Field(t *testing.T) {
	if v, err := ParsePositiveInt64Field(" 42 ", "court"); err != nil || v != 42 {
		t.Fatalf("got %d, %v", v, err)
	}
	for _, raw := range []string{"", "0", "-3", "x"} {
		_, err := ParsePositiveInt64Field(raw, "court")
		var fieldErr FieldError
		if !errors.As(err, &fieldErr) || fieldErr.Field != "court" {
			t.Fatalf("%q: got %v", raw, err)
		}
	}
	if v, err := ParseOptionalPositiveInt("", "duration"); err != nil || v != 0 {
		t.Fatalf("optional empty: %d, %v", v, err)
	}
}

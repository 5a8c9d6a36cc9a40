package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/authz"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// HandlerError is an error with the HTTP status and client-facing message to
// report. Code is an optional machine-readable code.
type HandlerError struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Field  string `json:"field,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

const maxBodyBytes = 1 << 20

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError writes err as an ErrorResponse. HandlerError and FieldError keep
// their status and message; anything else is logged and reported as a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(err).Int("status", handlerErr.Status).Msg("Request failed")
		}
		body := ErrorResponse{Error: handlerErr.Message, Code: handlerErr.Code}
		var fieldErr FieldError
		if errors.As(handlerErr.Err, &fieldErr) {
			body.Field = fieldErr.Field
		}
		writeErrorBody(w, r, handlerErr.Status, body)
		return
	}

	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		writeErrorBody(w, r, http.StatusBadRequest, ErrorResponse{Error: fieldErr.Error(), Code: "invalid_request", Field: fieldErr.Field})
		return
	}

	logger.Error().Err(err).Msg("Request failed")
	writeErrorBody(w, r, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	if err := WriteJSON(w, status, body); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write error response")
	}
}

// RequireUser writes a 401 and returns nil when the request is unauthenticated.
func RequireUser(w http.ResponseWriter, r *http.Request) *authz.AuthUser {
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Access denied: unauthenticated")
		WriteError(w, r, HandlerError{Status: http.StatusUnauthorized, Message: "Unauthorized", Code: "unauthenticated", Err: err})
		return nil
	}
	return user
}

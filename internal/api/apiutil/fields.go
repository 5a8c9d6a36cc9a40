package apiutil

import (
	"net/http"
	"strconv"
	"strings"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be a positive integer"}
	}
	return value, nil
}

// ParseOptionalPositiveInt returns 0 when raw is empty.
func ParseOptionalPositiveInt(raw string, field string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	value, err := ParsePositiveInt64Field(raw, field)
	if err != nil {
		return 0, err
	}
	return int(value), nil
}

// PathID parses a positive integer path value registered on the ServeMux
// pattern, e.g. {communityID}.
func PathID(r *http.Request, name string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(name), name)
}

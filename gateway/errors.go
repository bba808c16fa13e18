package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/fpl-companion/internal/errors"
	"github.com/jrsteele09/fpl-companion/internal/utils"
)

// StatusError is returned for every non-2xx response the gateway does not
// recover from. It unwraps to errors.ErrNotFound, errors.ErrUnauthorized or
// errors.ErrUpstream depending on the status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if detail := e.Detail(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return errors.ErrNotFound
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	default:
		return errors.ErrUpstream
	}
}

// Detail returns the backend's human readable reason, taken from a
// {"detail": "..."} body when present.
func (e *StatusError) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err == nil {
		return detail
	}
	var reasons []any
	if err := json.Unmarshal(payload.Detail, &reasons); err == nil {
		if msgs := utils.ToStringSlice(reasons); len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return strings.TrimSpace(string(payload.Detail))
}

// IsNotFound reports whether err is (or wraps) a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.ErrNotFound)
}

// IsUnauthorized reports whether err is (or wraps) a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, errors.ErrUnauthorized)
}

// StatusCode extracts the HTTP status from err, or 0 when err carries none.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

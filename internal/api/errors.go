package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is any non-2xx platform response. The backend wraps errors in
// an {"error": {...}} envelope; plain-body errors are kept raw.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "http error"
	}
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("http error: status=%d code=%s message=%s", e.StatusCode, strings.TrimSpace(e.Code), msg)
	}
	return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, msg)
}

func parseHTTPError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code,omitempty"`
		} `json:"error"`
		Message string `json:"message,omitempty"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		msg := strings.TrimSpace(env.Error.Message)
		if msg == "" {
			msg = strings.TrimSpace(env.Message)
		}
		if msg != "" {
			return &HTTPError{
				StatusCode: status,
				Message:    msg,
				Code:       strings.TrimSpace(env.Error.Code),
				Body:       body,
			}
		}
	}

	return &HTTPError{StatusCode: status, Body: body}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden is how progress callers recognize "not enrolled": the server
// answers 403 (and some deployments 401 behind a proxy that rewrites it)
// on progress endpoints for unenrolled users.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

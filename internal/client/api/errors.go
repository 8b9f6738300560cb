package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrUnauthorized is matched (errors.Is) by every error caused by an
// authorization-failure response. The session has already been torn down
// when a caller observes it.
var ErrUnauthorized = errors.New("authorization expired")

// APIError is a non-2xx response of the marketplace API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the backend's "detail" message or the joined non-field errors.
	Detail string
	// Fields holds per-field validation messages.
	Fields map[string][]string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

// Is reports 401 responses as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsValidation reports client errors other than authorization failures.
func (e *APIError) IsValidation() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusUnauthorized
}

// NetworkError is a transport-level failure: no response was received or
// the response body could not be read.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a 4xx response other than 401.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsValidation()
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// newAPIError decodes the error body formats the backend produces:
// {"detail": "..."}, {"field": ["..."]}, ["..."] or a bare string.
func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		for k, raw := range obj {
			msgs := messages(raw)
			if len(msgs) == 0 {
				continue
			}
			switch k {
			case "detail", "non_field_errors", "error":
				if e.Detail != "" {
					e.Detail += " "
				}
				e.Detail += strings.Join(msgs, " ")
			default:
				if e.Fields == nil {
					e.Fields = make(map[string][]string)
				}
				e.Fields[k] = msgs
			}
		}
		return e
	}

	if msgs := messages(body); len(msgs) > 0 {
		e.Detail = strings.Join(msgs, " ")
		return e
	}
	e.Detail = strings.TrimSpace(string(body))
	return e
}

func messages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return nil
}

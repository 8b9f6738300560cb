package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantFields map[string][]string
	}{
		{
			name:       "detail",
			status:     http.StatusNotFound,
			body:       `{"detail": "Not found."}`,
			wantDetail: "Not found.",
		},
		{
			name:       "field errors",
			status:     http.StatusBadRequest,
			body:       `{"username": ["This field is required."], "scheduled_date": "In the past."}`,
			wantFields: map[string][]string{"username": {"This field is required."}, "scheduled_date": {"In the past."}},
		},
		{
			name:       "non field errors",
			status:     http.StatusBadRequest,
			body:       `{"non_field_errors": ["Unable to log in with provided credentials."]}`,
			wantDetail: "Unable to log in with provided credentials.",
		},
		{
			name:       "bare list",
			status:     http.StatusBadRequest,
			body:       `["You cannot book your own services."]`,
			wantDetail: "You cannot book your own services.",
		},
		{
			name:       "html",
			status:     http.StatusBadGateway,
			body:       "<html>bad gateway</html>\n",
			wantDetail: "<html>bad gateway</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAPIError(http.MethodPost, "/x/", tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Equal(t, tt.wantDetail, e.Detail)
			assert.Equal(t, tt.wantFields, e.Fields)
		})
	}
}

func TestAPIError_Classification(t *testing.T) {
	unauthorized := fmt.Errorf("wrapped: %w", newAPIError("GET", "/auth/users/me/", 401, nil))
	assert.True(t, errors.Is(unauthorized, ErrUnauthorized))
	assert.False(t, IsValidation(unauthorized))

	validation := newAPIError("POST", "/bookings/", 400, []byte(`{"detail":"x"}`))
	assert.False(t, errors.Is(validation, ErrUnauthorized))
	assert.True(t, IsValidation(validation))

	forbidden := newAPIError("POST", "/offers/", 403, nil)
	assert.True(t, IsValidation(forbidden))

	server := newAPIError("GET", "/services/", 500, nil)
	assert.False(t, IsValidation(server))

	netErr := &NetworkError{Op: "GET", URL: "http://x", Err: errors.New("refused")}
	assert.True(t, IsNetwork(fmt.Errorf("poll: %w", netErr)))
	assert.False(t, IsNetwork(server))
}

func TestAPIError_Message(t *testing.T) {
	e := newAPIError("POST", "/auth/users/", 400, []byte(`{"username": ["taken"], "email": ["bad"]}`))
	assert.Equal(t, "POST /auth/users/: 400 Bad Request (email: bad; username: taken)", e.Error())
}

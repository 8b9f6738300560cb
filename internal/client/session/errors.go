package session

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by operations that need an authenticated session.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthError reports a rejected login: bad credentials, or a token exchange
// that answered without a token.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is or wraps an *AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

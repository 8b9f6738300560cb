package api

import (
	"context"

	"github.com/atinyakov/mycraft/internal/models"
)

const (
	pathRegister       = "/auth/users/"
	pathLogin          = "/auth/token/login/"
	pathMe             = "/auth/users/me/"
	pathUpdateProfile  = "/auth/update-profile/"
	pathBecomeCraftman = "/auth/become-craftsman/"
)

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	var u models.User
	if err := c.post(ctx, pathRegister, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a bearer token. An empty token with a nil
// error means the server replied without one.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp tokenResponse
	if err := c.post(ctx, pathLogin, creds, &resp); err != nil {
		return "", err
	}
	return resp.AuthToken, nil
}

// CurrentUser fetches the profile of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.get(ctx, pathMe, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile patches the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	return c.patch(ctx, pathUpdateProfile, upd, nil)
}

// BecomeCraftsman applies for the craftsman role with the business details.
func (c *Client) BecomeCraftsman(ctx context.Context, profile models.ProfileUpdate) error {
	return c.post(ctx, pathBecomeCraftman, profile, nil)
}

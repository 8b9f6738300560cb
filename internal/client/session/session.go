// Package session owns the client's authentication state: the bearer token,
// the current user's profile and the durable copy of the token.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/atinyakov/mycraft/internal/client/api"
	"github.com/atinyakov/mycraft/internal/client/storage"
	"github.com/atinyakov/mycraft/internal/models"
	"go.uber.org/zap"
)

// Gateway is the part of the request gateway the session drives.
type Gateway interface {
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	BecomeCraftsman(ctx context.Context, profile models.ProfileUpdate) error
	Arm(token string)
	Disarm()
	OnUnauthorized(hook api.UnauthorizedHook)
}

// State is a point-in-time view of the session.
type State struct {
	Authenticated bool
	Craftsman     bool
	User          *models.User
}

// Manager is the session. Its lock is never held across network calls, so
// gateway hooks may call back into it.
type Manager struct {
	gw    Gateway
	store storage.TokenStore
	log   *zap.Logger

	mu    sync.RWMutex
	token string
	user  *models.User
}

// New creates a logged-out session and registers its forced logout on the
// gateway's authorization-failure hook.
func New(gw Gateway, store storage.TokenStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{gw: gw, store: store, log: log}
	gw.OnUnauthorized(m.expire)
	return m
}

func (m *Manager) expire(ctx context.Context) {
	m.log.Warn("session expired, logging out")
	m.Logout(ctx)
}

// Login exchanges credentials for a token, persists it and loads the
// profile. On any failure the session is left logged out.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) error {
	token, err := m.gw.Login(ctx, creds)
	if err != nil {
		m.Logout(ctx)
		if api.IsValidation(err) {
			return &AuthError{Reason: "credentials rejected", Err: err}
		}
		return err
	}
	if token == "" {
		m.Logout(ctx)
		return &AuthError{Reason: "no token in response"}
	}

	m.mu.Lock()
	m.token = token
	m.user = nil
	m.mu.Unlock()

	if err := m.store.Save(ctx, token); err != nil {
		m.Logout(ctx)
		return fmt.Errorf("persist token: %w", err)
	}
	m.gw.Arm(token)

	user, err := m.gw.CurrentUser(ctx)
	if err != nil {
		m.Logout(ctx)
		return fmt.Errorf("load profile: %w", err)
	}
	if !m.commit(token, user) {
		m.Logout(ctx)
		return &AuthError{Reason: "session ended during login"}
	}

	m.log.Info("logged in", zap.String("username", user.Username))
	return nil
}

// commit stores user if token is still the session's token.
func (m *Manager) commit(token string, user *models.User) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != token {
		return false
	}
	m.user = user
	return true
}

// Logout clears the session, erases the durable token and disarms the
// gateway. It never fails and may be called any number of times.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	wasLoggedIn := m.token != ""
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	// The token goes even when the caller's context is already done.
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.log.Error("failed to erase stored token", zap.Error(err))
	}
	m.gw.Disarm()

	if wasLoggedIn {
		m.log.Info("logged out")
	}
}

// Initialize restores a stored token at startup. A token the backend no
// longer accepts results in a silent logout.
func (m *Manager) Initialize(ctx context.Context) {
	token, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn("failed to read stored token", zap.Error(err))
		m.Logout(ctx)
		return
	}
	if token == "" {
		return
	}

	m.mu.Lock()
	m.token = token
	m.user = nil
	m.mu.Unlock()
	m.gw.Arm(token)

	user, err := m.gw.CurrentUser(ctx)
	if err != nil {
		m.log.Info("stored session is no longer valid", zap.Error(err))
		m.Logout(ctx)
		return
	}
	if !m.commit(token, user) {
		return
	}
	m.log.Debug("session restored", zap.String("username", user.Username))
}

// RefreshProfile re-fetches the profile. On failure the session is logged
// out and the error returned.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	token := m.Token()
	if token == "" {
		return ErrNotLoggedIn
	}
	user, err := m.gw.CurrentUser(ctx)
	if err != nil {
		m.Logout(ctx)
		return fmt.Errorf("refresh profile: %w", err)
	}
	if !m.commit(token, user) {
		return ErrNotLoggedIn
	}
	return nil
}

// Register creates an account. It does not log in.
func (m *Manager) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	return m.gw.Register(ctx, r)
}

// BecomeCraftsman applies for the craftsman role and reloads the profile so
// the craftsman flag reflects the result.
func (m *Manager) BecomeCraftsman(ctx context.Context, profile models.ProfileUpdate) error {
	if !m.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	if err := m.gw.BecomeCraftsman(ctx, profile); err != nil {
		return err
	}
	return m.RefreshProfile(ctx)
}

// UpdateProfile saves profile fields and reloads the profile.
func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	if !m.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	if err := m.gw.UpdateProfile(ctx, upd); err != nil {
		return err
	}
	return m.RefreshProfile(ctx)
}

func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// CurrentUser returns a copy of the profile, or nil when logged out.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsCraftsman() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.IsCraftsman
}

// Token returns the session token, or an empty string.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := State{Authenticated: m.token != "" && m.user != nil}
	if m.user != nil {
		u := *m.user
		st.User = &u
		st.Craftsman = u.IsCraftsman
	}
	return st
}

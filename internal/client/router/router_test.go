package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	loggedIn  bool
	craftsman bool
}

func (s *fakeSession) IsLoggedIn() bool  { return s.loggedIn }
func (s *fakeSession) IsCraftsman() bool { return s.craftsman }

func newTestRouter(t *testing.T, sess *fakeSession) *Router {
	t.Helper()
	r, err := New(DefaultRoutes(), sess, nil)
	require.NoError(t, err)
	return r
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route
	}{
		{"relative path", []Route{{Name: Login, Path: "login"}}},
		{"duplicate name", []Route{{Name: Login, Path: "/a"}, {Name: Login, Path: "/b"}}},
		{"duplicate path", []Route{{Name: Login, Path: "/a"}, {Name: BecomeCraftsman, Path: "/a"}}},
		{"missing login", []Route{{Name: BecomeCraftsman, Path: "/b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.routes, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestRouter_StartsAtHome(t *testing.T) {
	r := newTestRouter(t, &fakeSession{})
	assert.Equal(t, Home, r.Current().Route.Name)
}

func TestRouter_Resolve(t *testing.T) {
	r := newTestRouter(t, &fakeSession{})

	tests := []struct {
		target string
		route  string
		params map[string]string
	}{
		{"/", Home, map[string]string{}},
		{"/marketplace?trade=PAINTER", Marketplace, map[string]string{}},
		{"/services/42", ServiceDetail, map[string]string{"id": "42"}},
		{"/services/42/", ServiceDetail, map[string]string{"id": "42"}},
		{"/services/new", CreateService, map[string]string{}},
		{"/services/7/edit", EditService, map[string]string{"id": "7"}},
		{"/chat?conversation=3", Chat, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			loc, err := r.Resolve(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.route, loc.Route.Name)
			assert.Equal(t, tt.params, loc.Params)
		})
	}

	loc, err := r.Resolve("/marketplace?trade=PAINTER")
	require.NoError(t, err)
	assert.Equal(t, "PAINTER", loc.Query.Get("trade"))
	assert.Equal(t, "/marketplace?trade=PAINTER", loc.Path)

	_, err = r.Resolve("/nowhere")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRouter_NavigateGuarded(t *testing.T) {
	sess := &fakeSession{}
	r := newTestRouter(t, sess)

	loc, err := r.Navigate("/marketplace")
	require.NoError(t, err)
	assert.Equal(t, Allow, loc.Decision)
	assert.Equal(t, Marketplace, loc.Route.Name)

	loc, err = r.Navigate("/bookings")
	require.NoError(t, err)
	assert.Equal(t, RedirectLogin, loc.Decision)
	assert.Equal(t, Login, loc.Route.Name)
	assert.Equal(t, "/bookings", loc.Query.Get(RedirectParam))
	assert.Equal(t, "/login?redirect=%2Fbookings", loc.Path)

	sess.loggedIn = true
	loc, err = r.Navigate("/services/new")
	require.NoError(t, err)
	assert.Equal(t, RedirectUpgrade, loc.Decision)
	assert.Equal(t, BecomeCraftsman, loc.Route.Name)
	assert.Equal(t, "/services/new", loc.Requested)

	sess.craftsman = true
	loc, err = r.Navigate("/services/new")
	require.NoError(t, err)
	assert.Equal(t, Allow, loc.Decision)
	assert.Equal(t, CreateService, loc.Route.Name)
}

func TestRouter_AfterLogin(t *testing.T) {
	sess := &fakeSession{}
	r := newTestRouter(t, sess)

	_, err := r.Navigate("/profile")
	require.NoError(t, err)
	require.Equal(t, Login, r.Current().Route.Name)

	sess.loggedIn = true
	loc, err := r.AfterLogin()
	require.NoError(t, err)
	assert.Equal(t, Profile, loc.Route.Name)

	// Without a remembered path the user lands on Home.
	_, err = r.Navigate("/login")
	require.NoError(t, err)
	loc, err = r.AfterLogin()
	require.NoError(t, err)
	assert.Equal(t, Home, loc.Route.Name)
}

func TestRouter_AfterLoginIgnoresForeignRedirect(t *testing.T) {
	sess := &fakeSession{}
	r := newTestRouter(t, sess)
	_, err := r.Navigate("/login?redirect=//evil.example/")
	require.NoError(t, err)

	sess.loggedIn = true
	loc, err := r.AfterLogin()
	require.NoError(t, err)
	assert.Equal(t, Home, loc.Route.Name)
}

func TestRouter_RedirectToLogin(t *testing.T) {
	sess := &fakeSession{loggedIn: true}
	r := newTestRouter(t, sess)

	_, err := r.Navigate("/chat?conversation=3")
	require.NoError(t, err)

	sess.loggedIn = false
	r.RedirectToLogin(context.Background())
	cur := r.Current()
	assert.Equal(t, Login, cur.Route.Name)
	assert.Equal(t, "/chat?conversation=3", cur.Query.Get(RedirectParam))

	// Already on the login page: no second redirect entry.
	n := len(r.History())
	r.RedirectToLogin(context.Background())
	assert.Len(t, r.History(), n)
}

func TestRouter_PathFor(t *testing.T) {
	r := newTestRouter(t, &fakeSession{})

	path, err := r.PathFor(EditService, map[string]string{"id": "12"})
	require.NoError(t, err)
	assert.Equal(t, "/services/12/edit", path)

	_, err = r.PathFor(EditService, nil)
	assert.Error(t, err)

	_, err = r.PathFor("Nope", nil)
	assert.ErrorIs(t, err, ErrUnknownRoute)

	loc, err := r.NavigateTo(ServiceDetail, map[string]string{"id": "5"})
	require.NoError(t, err)
	assert.Equal(t, "5", loc.Param("id"))
}

func TestRouter_Back(t *testing.T) {
	sess := &fakeSession{loggedIn: true}
	r := newTestRouter(t, sess)

	_, err := r.Navigate("/bookings")
	require.NoError(t, err)
	_, err = r.Navigate("/marketplace")
	require.NoError(t, err)

	loc, ok, err := r.Back()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Bookings, loc.Route.Name)

	// Going back re-applies the guard.
	sess.loggedIn = false
	_, err = r.Navigate("/marketplace")
	require.NoError(t, err)
	loc, ok, err = r.Back()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Login, loc.Route.Name)

	fresh := newTestRouter(t, sess)
	_, ok, err = fresh.Back()
	require.NoError(t, err)
	assert.False(t, ok)
}

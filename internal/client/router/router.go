// Package router moves the client between named destinations. Every
// navigation passes the access-control guard, and the router doubles as the
// gateway's authorization-failure hook by redirecting to the login page.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RedirectParam is the query key carrying the path to return to after login.
const RedirectParam = "redirect"

var (
	ErrNotFound     = errors.New("no route matches path")
	ErrUnknownRoute = errors.New("unknown route")
)

// Session reports the authentication state the guard decides on.
type Session interface {
	IsLoggedIn() bool
	IsCraftsman() bool
}

// Location is a resolved destination.
type Location struct {
	Route  Route
	Path   string
	Params map[string]string
	Query  url.Values
	// Decision tells how the guard treated the requested path. For anything
	// but Allow, Route is the redirect target.
	Decision Decision
	// Requested is the path that was asked for.
	Requested string
}

// Param returns a path parameter such as "id".
func (l Location) Param(key string) string {
	return l.Params[key]
}

// Router keeps the current location and the navigation history.
type Router struct {
	mux       *chi.Mux
	byPattern map[string]Route
	byName    map[string]Route
	session   Session
	log       *zap.Logger

	mu      sync.Mutex
	history []Location
}

// New builds a router over routes. The route set must contain Login and
// BecomeCraftsman, the guard's redirect targets.
func New(routes []Route, sess Session, log *zap.Logger) (*Router, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		mux:       chi.NewRouter(),
		byPattern: make(map[string]Route, len(routes)),
		byName:    make(map[string]Route, len(routes)),
		session:   sess,
		log:       log,
	}

	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, route := range routes {
		if !strings.HasPrefix(route.Path, "/") {
			return nil, fmt.Errorf("route %s: path %q must start with /", route.Name, route.Path)
		}
		if _, dup := r.byName[route.Name]; dup {
			return nil, fmt.Errorf("route %s: duplicate name", route.Name)
		}
		if _, dup := r.byPattern[route.Path]; dup {
			return nil, fmt.Errorf("route %s: duplicate path %q", route.Name, route.Path)
		}
		r.byName[route.Name] = route
		r.byPattern[route.Path] = route
		r.mux.Get(route.Path, noop)
	}
	for _, required := range []string{Login, BecomeCraftsman} {
		if _, ok := r.byName[required]; !ok {
			return nil, fmt.Errorf("route %s is required", required)
		}
	}

	if home, ok := r.byName[Home]; ok {
		r.history = append(r.history, Location{Route: home, Path: home.Path, Requested: home.Path})
	}
	return r, nil
}

func (r *Router) state() SessionState {
	if r.session == nil {
		return SessionState{}
	}
	return SessionState{Authenticated: r.session.IsLoggedIn(), Craftsman: r.session.IsCraftsman()}
}

// Resolve matches target (a path with optional query) to a route without
// navigating.
func (r *Router) Resolve(target string) (Location, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Location{}, fmt.Errorf("parse %q: %w", target, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	route, ok := r.byPattern[rctx.RoutePattern()]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	full := path
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}
	return Location{
		Route:     route,
		Path:      full,
		Params:    params,
		Query:     u.Query(),
		Requested: full,
	}, nil
}

// Navigate resolves target, applies the guard and moves to the resulting
// location. A denied navigation lands on Login (remembering target) or on
// BecomeCraftsman.
func (r *Router) Navigate(target string) (Location, error) {
	loc, err := r.Resolve(target)
	if err != nil {
		return Location{}, err
	}

	decision := Guard(loc.Route, r.state())
	switch decision {
	case RedirectLogin:
		loc = r.loginLocation(loc.Path)
	case RedirectUpgrade:
		upgrade := r.byName[BecomeCraftsman]
		loc = Location{Route: upgrade, Path: upgrade.Path, Params: map[string]string{}, Query: url.Values{}, Requested: loc.Path}
	}
	loc.Decision = decision

	r.mu.Lock()
	r.history = append(r.history, loc)
	r.mu.Unlock()

	if decision != Allow {
		r.log.Debug("navigation redirected",
			zap.String("requested", loc.Requested),
			zap.String("to", loc.Route.Name),
			zap.Stringer("decision", decision),
		)
	}
	return loc, nil
}

// NavigateTo builds the path of the named route and navigates to it.
func (r *Router) NavigateTo(name string, params map[string]string) (Location, error) {
	path, err := r.PathFor(name, params)
	if err != nil {
		return Location{}, err
	}
	return r.Navigate(path)
}

func (r *Router) loginLocation(from string) Location {
	login := r.byName[Login]
	q := url.Values{}
	path := login.Path
	if from != "" && from != login.Path {
		q.Set(RedirectParam, from)
		path += "?" + q.Encode()
	}
	return Location{Route: login, Path: path, Params: map[string]string{}, Query: q, Requested: from, Decision: RedirectLogin}
}

// RedirectToLogin moves to the login page remembering the current path. It
// has the signature of the gateway's authorization-failure hook.
func (r *Router) RedirectToLogin(_ context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var from string
	if n := len(r.history); n > 0 {
		cur := r.history[n-1]
		if cur.Route.Name == Login {
			return
		}
		from = cur.Path
	}
	r.history = append(r.history, r.loginLocation(from))
	r.log.Info("authorization expired, redirected to login", zap.String("from", from))
}

// AfterLogin navigates to the path remembered by the login redirect, or
// to Home.
func (r *Router) AfterLogin() (Location, error) {
	target := r.Current().Query.Get(RedirectParam)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		target = "/"
	}
	return r.Navigate(target)
}

// PathFor builds the path of the named route, filling {param} segments.
func (r *Router) PathFor(name string, params map[string]string) (string, error) {
	route, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	path := route.Path
	for k, v := range params {
		path = strings.ReplaceAll(path, "{"+k+"}", url.PathEscape(v))
	}
	if strings.Contains(path, "{") {
		return "", fmt.Errorf("route %s: missing parameters for %s", name, path)
	}
	return path, nil
}

// Current returns the current location.
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return Location{}
	}
	return r.history[len(r.history)-1]
}

// History returns the visited locations, oldest first.
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, len(r.history))
	copy(out, r.history)
	return out
}

// Back returns to the previous location, guarding it again.
func (r *Router) Back() (Location, bool, error) {
	r.mu.Lock()
	if len(r.history) < 2 {
		r.mu.Unlock()
		return Location{}, false, nil
	}
	prev := r.history[len(r.history)-2]
	r.history = r.history[:len(r.history)-2]
	r.mu.Unlock()

	loc, err := r.Navigate(prev.Path)
	return loc, true, err
}

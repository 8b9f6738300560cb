// Package fakeapi is an in-memory stand-in for the MyCraft REST API used by
// tests. It implements the endpoints the client consumes with the backend's
// wire format, token authentication and error shapes.
package fakeapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/atinyakov/mycraft/internal/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userKey ctxKey = "user"

type account struct {
	user     models.User
	password string
}

// Server holds the fake backend state.
type Server struct {
	mu sync.Mutex

	nextID        int64
	accounts      map[string]*account // by username
	tokens        map[string]string   // token -> username
	services      map[int64]*models.Service
	bookings      map[int64]*models.Booking
	conversations map[int64]*models.ConversationDetail
	offers        map[int64]*models.Offer
	offerConv     map[int64]int64
	hits          map[string]int
	failures      map[string]int

	// GeoJSON makes list endpoints for services answer with a FeatureCollection
	// wrapped in a paginated envelope.
	GeoJSON bool
	// OmitToken makes the login exchange answer without auth_token.
	OmitToken bool

	httpServer *httptest.Server
}

// New creates an empty fake backend.
func New() *Server {
	return &Server{
		nextID:        1,
		accounts:      make(map[string]*account),
		tokens:        make(map[string]string),
		services:      make(map[int64]*models.Service),
		bookings:      make(map[int64]*models.Booking),
		conversations: make(map[int64]*models.ConversationDetail),
		offers:        make(map[int64]*models.Offer),
		offerConv:     make(map[int64]int64),
		hits:          make(map[string]int),
		failures:      make(map[string]int),
	}
}

// Start serves the fake API on a local listener. The API root is URL().
func (s *Server) Start() *Server {
	s.httpServer = httptest.NewServer(s.Handler())
	return s
}

// Close shuts the listener down.
func (s *Server) Close() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// URL is the API base URL to configure the client with.
func (s *Server) URL() string {
	return s.httpServer.URL + "/api"
}

// Handler builds the router. Routes mirror the production API under /api.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(s.count)
	r.Use(s.tokenAuth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/users/", s.register)
			r.Post("/token/login/", s.login)
			r.With(requireUser).Get("/users/me/", s.me)
			r.With(requireUser).Patch("/update-profile/", s.updateProfile)
			r.With(requireUser).Post("/become-craftsman/", s.becomeCraftsman)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", s.listServices)
			r.With(requireUser).Post("/", s.createService)
			r.With(requireUser).Get("/my-jobs/", s.myJobs)
			r.Get("/suggest_address/", s.suggestAddress)
			r.Get("/{id}/", s.getService)
			r.With(requireUser).Patch("/{id}/", s.updateService)
			r.With(requireUser).Delete("/{id}/", s.deleteService)
			r.Get("/{id}/availability/", s.availability)
			r.Get("/{id}/price-advice/", s.priceAdvice)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Post("/bookings/", s.createBooking)
			r.Get("/bookings/my_bookings/", s.myBookings)
			r.Get("/bookings/my_orders/", s.myOrders)
			r.Post("/bookings/{id}/mark_completed/", s.markCompleted)
			r.Post("/bookings/{id}/cancel/", s.cancelBooking)

			r.Get("/conversations/", s.listConversations)
			r.Post("/conversations/", s.startConversation)
			r.Post("/conversations/suggest-reply/", s.suggestReply)
			r.Get("/conversations/{id}/", s.getConversation)
			r.Post("/conversations/{id}/post_message/", s.postMessage)

			r.Post("/offers/", s.createOffer)
			r.Post("/offers/{id}/accept/", s.acceptOffer)
			r.Post("/offers/{id}/reject/", s.rejectOffer)

			r.Post("/reviews/", s.createReview)
		})
	})

	return r
}

// Hits returns how many requests reached method+path (e.g. "GET /api/auth/users/me/").
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// FailNext makes the next n requests to method+path answer with status
// before reaching the handler.
func (s *Server) FailNext(method, path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path+" "+strconv.Itoa(status)] = n
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		status := 0
		for k, n := range s.failures {
			if n > 0 && strings.HasPrefix(k, key+" ") {
				status, _ = strconv.Atoi(strings.TrimPrefix(k, key+" "))
				s.failures[k] = n - 1
				break
			}
		}
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tokenAuth resolves "Authorization: Token <key>". An unknown token is
// rejected on every endpoint, public ones included.
func (s *Server) tokenAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		key, ok := strings.CutPrefix(header, "Token ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token header."})
			return
		}
		s.mu.Lock()
		username, ok := s.tokens[key]
		var user *models.User
		if ok {
			u := s.accounts[username].user
			user = &u
		}
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey).(*models.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func newToken() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

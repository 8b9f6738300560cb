package fakeapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/atinyakov/mycraft/internal/models"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[req.Username]
	s.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	u := s.AddUser(req.Username, req.Password, false)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[creds.Username]
	s.mu.Unlock()
	if !ok || acc.password != creds.Password {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"Unable to log in with provided credentials."},
		})
		return
	}
	if s.OmitToken {
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_token": s.IssueToken(creds.Username)})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.User(currentUser(r).Username))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	s.mu.Lock()
	acc := s.accounts[currentUser(r).Username]
	if upd.City != "" {
		acc.user.City = upd.City
	}
	if upd.Bio != "" {
		acc.user.Bio = upd.Bio
	}
	if upd.CompanyName != "" {
		acc.user.CompanyName = upd.CompanyName
	}
	u := acc.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) becomeCraftsman(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	if upd.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"company_name": {"This field is required."}})
		return
	}
	s.mu.Lock()
	acc := s.accounts[currentUser(r).Username]
	acc.user.IsCraftsman = true
	acc.user.CompanyName = upd.CompanyName
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sortedServices(keep func(*models.Service) bool) []models.Service {
	out := []models.Service{}
	for _, svc := range s.services {
		if keep(svc) {
			out = append(out, *svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	list := s.sortedServices(func(svc *models.Service) bool {
		if svc.Status != models.ServiceOpen {
			return false
		}
		if t := q.Get("trade"); t != "" && string(svc.Trade) != t {
			return false
		}
		if term := strings.ToLower(q.Get("search")); term != "" &&
			!strings.Contains(strings.ToLower(svc.Title+" "+svc.Description), term) {
			return false
		}
		return true
	})
	s.mu.Unlock()

	if !s.GeoJSON {
		writeJSON(w, http.StatusOK, map[string]any{
			"count": len(list), "next": nil, "previous": nil, "results": list,
		})
		return
	}

	features := make([]map[string]any, 0, len(list))
	for _, svc := range list {
		props := map[string]any{
			"title":               svc.Title,
			"description":         svc.Description,
			"trade":               svc.Trade,
			"zip_code":            svc.ZipCode,
			"city":                svc.City,
			"price":               svc.Price,
			"status":              svc.Status,
			"contractor":          svc.Contractor,
			"contractor_username": svc.ContractorUsername,
		}
		features = append(features, map[string]any{
			"type": "Feature", "id": svc.ID, "geometry": svc.Location, "properties": props,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(list), "next": nil, "previous": nil,
		"results": map[string]any{"type": "FeatureCollection", "features": features},
	})
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if !s.User(user.Username).IsCraftsman {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Only craftsmen can create services."})
		return
	}
	var in models.ServiceInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field is required."}})
		return
	}
	svc := s.AddService(*user, in.Title, in.Trade)
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) myJobs(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.mu.Lock()
	list := s.sortedServices(func(svc *models.Service) bool { return svc.Contractor == user.ID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) suggestAddress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) < 3 {
		writeJSON(w, http.StatusOK, []models.AddressSuggestion{})
		return
	}
	writeJSON(w, http.StatusOK, []models.AddressSuggestion{{
		DisplayName: q + ", Berlin", Road: q, ZipCode: "10115", City: "Berlin", Lat: 52.53, Lng: 13.38,
	}})
}

func (s *Server) service(w http.ResponseWriter, r *http.Request) (*models.Service, bool) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	s.mu.Lock()
	svc, ok := s.services[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	return svc, true
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := *svc
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	if svc.Contractor != currentUser(r).ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	var in models.ServiceInput
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	if in.Title != "" {
		svc.Title = in.Title
	}
	if in.Description != "" {
		svc.Description = in.Description
	}
	if in.Price != "" {
		svc.Price = in.Price
	}
	out := *svc
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	if svc.Contractor != currentUser(r).ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	s.mu.Lock()
	delete(s.services, svc.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	dates := []string{}
	for _, b := range s.bookings {
		if b.Contractor == svc.Contractor && b.ScheduledDate != "" &&
			(b.Status == models.BookingPending || b.Status == models.BookingConfirmed) {
			dates = append(dates, b.ScheduledDate)
		}
	}
	s.mu.Unlock()
	sort.Strings(dates)
	writeJSON(w, http.StatusOK, dates)
}

func (s *Server) priceAdvice(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.service(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.PriceAdvice{Advice: "Expect 40-60 EUR for " + svc.Title + "."})
}

package fakeapi

import (
	"net/http"
	"sort"

	"github.com/atinyakov/mycraft/internal/models"
)

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req models.BookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[req.ServiceID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"service_id": {"Invalid pk - object does not exist."}})
		return
	}
	if svc.Contractor == user.ID {
		writeJSON(w, http.StatusBadRequest, []string{"You cannot book your own services."})
		return
	}
	for _, b := range s.bookings {
		if b.Contractor == svc.Contractor && b.ScheduledDate == req.ScheduledDate && b.Status == models.BookingConfirmed {
			writeJSON(w, http.StatusBadRequest, map[string]string{"scheduled_date": "The craftsman is not available on this date."})
			return
		}
	}
	b := &models.Booking{
		ID:            s.id(),
		Service:       svc,
		Customer:      user.ID,
		CustomerName:  user.Username,
		Contractor:    svc.Contractor,
		Status:        models.BookingConfirmed,
		Price:         svc.Price,
		ScheduledDate: req.ScheduledDate,
	}
	s.bookings[b.ID] = b
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) sortedBookings(keep func(*models.Booking) bool) []models.Booking {
	out := []models.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) myBookings(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.mu.Lock()
	out := s.sortedBookings(func(b *models.Booking) bool { return b.Customer == user.ID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.mu.Lock()
	out := s.sortedBookings(func(b *models.Booking) bool { return b.Contractor == user.ID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) booking(w http.ResponseWriter, r *http.Request) (*models.Booking, bool) {
	id, ok := pathID(r)
	if ok {
		var b *models.Booking
		s.mu.Lock()
		b, ok = s.bookings[id]
		s.mu.Unlock()
		if ok {
			return b, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	return nil, false
}

func (s *Server) markCompleted(w http.ResponseWriter, r *http.Request) {
	b, ok := s.booking(w, r)
	if !ok {
		return
	}
	if b.Contractor != currentUser(r).ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Not authorized."})
		return
	}
	s.mu.Lock()
	b.Status = models.BookingCompleted
	out := *b
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := s.booking(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Status == models.BookingCancelled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Booking is already cancelled."})
		return
	}
	b.Status = models.BookingCancelled
	writeJSON(w, http.StatusOK, *b)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req models.ReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"rating": {"Ensure this value is between 1 and 5."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[req.Booking]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"booking": {"Invalid pk - object does not exist."}})
		return
	}
	rev := models.Review{
		ID: s.id(), Booking: b.ID, Reviewer: user.ID, Recipient: b.Contractor,
		Rating: req.Rating, Comment: req.Comment,
	}
	b.Review = &rev.ID
	writeJSON(w, http.StatusCreated, rev)
}

func isParticipant(c *models.ConversationDetail, userID int64) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	s.mu.Lock()
	out := []models.ConversationSummary{}
	for _, c := range s.conversations {
		if isParticipant(c, user.ID) {
			out = append(out, c.ConversationSummary)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	var req models.StartConversation
	if !decodeBody(w, r, &req) {
		return
	}
	if req.JobID == 0 || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Job ID and initial message are required."})
		return
	}
	s.mu.Lock()
	svc, ok := s.services[req.JobID]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Job not found."})
		return
	}
	var conv *models.ConversationDetail
	for _, c := range s.conversations {
		if c.JobDetails != nil && c.JobDetails.ID == svc.ID && isParticipant(c, user.ID) {
			conv = c
			break
		}
	}
	s.mu.Unlock()

	if conv == nil {
		id := s.AddConversation(*svc, *user)
		s.mu.Lock()
		conv = s.conversations[id]
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.appendMessage(conv, *user, req.Message)
	out := copyDetail(conv)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) (*models.ConversationDetail, bool) {
	id, ok := pathID(r)
	if ok {
		var c *models.ConversationDetail
		s.mu.Lock()
		c, ok = s.conversations[id]
		s.mu.Unlock()
		if ok && isParticipant(c, currentUser(r).ID) {
			return c, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	return nil, false
}

func copyDetail(c *models.ConversationDetail) models.ConversationDetail {
	out := *c
	out.Messages = append([]models.Message(nil), c.Messages...)
	return out
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	c, ok := s.conversation(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	out := copyDetail(c)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.conversation(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Message content is required."})
		return
	}
	s.mu.Lock()
	m := s.appendMessage(c, *currentUser(r), req.Content)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) suggestReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LastMessage string `json:"last_message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LastMessage == "" {
		writeJSON(w, http.StatusOK, models.ReplySuggestion{Suggestion: "No message found to reply to."})
		return
	}
	writeJSON(w, http.StatusOK, models.ReplySuggestion{Suggestion: "Thanks for your message about: " + req.LastMessage})
}

func (s *Server) createOffer(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if !s.User(user.Username).IsCraftsman {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Only craftsmen can create offers."})
		return
	}
	var req models.OfferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[req.ConversationID]
	if !ok || !isParticipant(c, user.ID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Conversation not found or you are not a participant."})
		return
	}
	o := &models.Offer{ID: s.id(), Price: req.Price, Description: req.Description, Status: models.OfferPending, Creator: user.ID}
	s.offers[o.ID] = o
	s.offerConv[o.ID] = c.ID
	m := s.appendMessage(c, *user, "")
	m.Offer = o
	c.Messages[len(c.Messages)-1].Offer = o
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) acceptOffer(w http.ResponseWriter, r *http.Request) {
	s.decideOffer(w, r, models.OfferAccepted)
}

func (s *Server) rejectOffer(w http.ResponseWriter, r *http.Request) {
	s.decideOffer(w, r, models.OfferRejected)
}

func (s *Server) decideOffer(w http.ResponseWriter, r *http.Request, status models.OfferStatus) {
	user := currentUser(r)
	id, _ := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Offer not found."})
		return
	}
	if o.Creator == user.ID {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You cannot decide on your own offer."})
		return
	}
	o.Status = status
	if status == models.OfferAccepted {
		c := s.conversations[s.offerConv[o.ID]]
		if c.JobDetails != nil {
			b := &models.Booking{
				ID: s.id(), Service: c.JobDetails, Customer: user.ID, CustomerName: user.Username,
				Contractor: o.Creator, Status: models.BookingConfirmed, Price: o.Price,
			}
			s.bookings[b.ID] = b
		}
	}
	writeJSON(w, http.StatusOK, *o)
}

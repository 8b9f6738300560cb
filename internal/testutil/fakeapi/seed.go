package fakeapi

import (
	"github.com/atinyakov/mycraft/internal/models"
)

// AddUser creates an account and returns it.
func (s *Server) AddUser(username, password string, craftsman bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{ID: s.id(), Username: username, Email: username + "@example.com", IsCraftsman: craftsman}
	s.accounts[username] = &account{user: u, password: password}
	return u
}

// IssueToken returns a valid token for username without a login call.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := newToken()
	s.tokens[t] = username
	return t
}

// Revoke invalidates a token, as an expired or logged-out session would.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// AddService creates an open service owned by contractor.
func (s *Server) AddService(contractor models.User, title string, trade models.Trade) models.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc := &models.Service{
		ID:                 s.id(),
		Title:              title,
		Description:        title,
		Trade:              trade,
		ZipCode:            "10115",
		City:               "Berlin",
		Price:              "50.00",
		Status:             models.ServiceOpen,
		Contractor:         contractor.ID,
		ContractorUsername: contractor.Username,
		Location:           &models.Geometry{Type: "Point", Coordinates: []byte("[13.38,52.53]")},
	}
	s.services[svc.ID] = svc
	return *svc
}

// AddConversation opens a conversation about svc between the contractor
// and customer with the given messages, all sent by customer.
func (s *Server) AddConversation(svc models.Service, customer models.User, messages ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	contractor := s.userByID(svc.Contractor)
	c := &models.ConversationDetail{
		ConversationSummary: models.ConversationSummary{
			ID:         s.id(),
			JobDetails: s.services[svc.ID],
			Participants: []models.Participant{
				{ID: customer.ID, Username: customer.Username},
				{ID: contractor.ID, Username: contractor.Username},
			},
		},
		Messages: []models.Message{},
	}
	s.conversations[c.ID] = c
	for _, m := range messages {
		s.appendMessage(c, customer, m)
	}
	return c.ID
}

// AppendMessage adds a message from sender, as if the other party wrote it
// from another client.
func (s *Server) AppendMessage(conversationID int64, sender models.User, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[conversationID]; ok {
		s.appendMessage(c, sender, content)
	}
}

// MessageCount returns the stored number of messages of a conversation.
func (s *Server) MessageCount(conversationID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[conversationID]; ok {
		return len(c.Messages)
	}
	return 0
}

// User returns the current state of an account.
func (s *Server) User(username string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[username].user
}

func (s *Server) appendMessage(c *models.ConversationDetail, sender models.User, content string) models.Message {
	m := models.Message{
		ID:             s.id(),
		Sender:         sender.ID,
		SenderUsername: sender.Username,
		Content:        content,
		Timestamp:      "2025-01-01T00:00:00Z",
	}
	c.Messages = append(c.Messages, m)
	c.LastMessagePreview = content
	return m
}

func (s *Server) userByID(id int64) models.User {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user
		}
	}
	return models.User{}
}

// Package chat keeps the user's conversations and the active conversation
// in sync with the backend by polling it.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/mycraft/internal/client/toast"
	"github.com/atinyakov/mycraft/internal/models"
	"go.uber.org/zap"
)

// ErrNoActiveConversation is returned by operations on the active
// conversation when none is selected.
var ErrNoActiveConversation = errors.New("no active conversation")

// Gateway is the part of the request gateway the chat uses.
type Gateway interface {
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, id int64) (*models.ConversationDetail, error)
	StartConversation(ctx context.Context, r models.StartConversation) (*models.ConversationDetail, error)
	PostMessage(ctx context.Context, conversationID int64, content string) (*models.Message, error)
	SuggestReply(ctx context.Context, lastMessage string) (*models.ReplySuggestion, error)
	CreateOffer(ctx context.Context, r models.OfferRequest) (*models.Message, error)
	AcceptOffer(ctx context.Context, id int64) (*models.Offer, error)
	RejectOffer(ctx context.Context, id int64) (*models.Offer, error)
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Add(message string, category toast.Category, duration time.Duration) string
}

// State is the chat as seen by a renderer.
type State struct {
	Conversations []models.ConversationSummary
	Active        *models.ConversationDetail
	IsLoading     bool
	LastError     error
}

// Synchronizer owns the chat state. At most one synchronization loop runs,
// always for the active conversation.
type Synchronizer struct {
	gw       Gateway
	notifier Notifier
	poller   Poller
	log      *zap.Logger

	mu    sync.Mutex
	state State
	// epoch advances whenever the loop is stopped or replaced. Responses
	// fetched under an older epoch are discarded.
	epoch uint64
	// selection advances with every SelectConversation and Stop; only the
	// latest pending selection may commit.
	selection uint64

	updates chan struct{}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPoller replaces the default 5s ticker poller.
func WithPoller(p Poller) Option {
	return func(s *Synchronizer) { s.poller = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// New creates an empty synchronizer.
func New(gw Gateway, notifier Notifier, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		gw:       gw,
		notifier: notifier,
		log:      zap.NewNop(),
		updates:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.poller == nil {
		s.poller = NewTickerPoller(DefaultInterval, s.log)
	}
	return s
}

// LoadConversations fetches the conversation list and activates
// preferredID if listed, otherwise the first conversation. Zero means no
// preference. On failure the previous list is kept.
func (s *Synchronizer) LoadConversations(ctx context.Context, preferredID int64) error {
	kept, err := s.fetchConversations(ctx)
	if err != nil {
		return err
	}

	var target int64
	for _, c := range kept {
		if preferredID != 0 && c.ID == preferredID {
			target = c.ID
			break
		}
	}
	if target == 0 && len(kept) > 0 {
		target = kept[0].ID
	}

	if target == 0 {
		s.Stop()
		s.mu.Lock()
		s.state.Active = nil
		s.mu.Unlock()
		return nil
	}
	return s.SelectConversation(ctx, target)
}

// RefreshConversations updates the conversation list without touching the
// active conversation or its loop.
func (s *Synchronizer) RefreshConversations(ctx context.Context) error {
	_, err := s.fetchConversations(ctx)
	return err
}

func (s *Synchronizer) fetchConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.LastError = nil
	s.mu.Unlock()

	list, err := s.gw.ListConversations(ctx)
	if err != nil {
		s.mu.Lock()
		s.state.IsLoading = false
		s.state.LastError = err
		s.mu.Unlock()
		return nil, err
	}

	kept := make([]models.ConversationSummary, 0, len(list))
	for _, c := range list {
		if c.ID != 0 {
			kept = append(kept, c)
		}
	}

	s.mu.Lock()
	s.state.Conversations = kept
	s.state.IsLoading = false
	s.mu.Unlock()
	return kept, nil
}

// SelectConversation loads conversation id, makes it active and restarts
// the synchronization loop for it. The loop runs until Stop, the next
// selection, or until ctx is done. On failure the previous conversation
// stays active and keeps syncing.
func (s *Synchronizer) SelectConversation(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.selection++
	selection := s.selection
	s.state.IsLoading = true
	s.mu.Unlock()

	detail, err := s.gw.GetConversation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection != selection {
		// A newer selection or Stop won.
		return nil
	}
	s.state.IsLoading = false
	if err != nil {
		s.state.LastError = err
		return err
	}
	if detail.Messages == nil {
		detail.Messages = []models.Message{}
	}

	s.poller.Stop()
	s.epoch++
	epoch := s.epoch
	s.state.Active = detail
	s.state.LastError = nil
	s.notify()

	s.poller.Start(ctx, func(ctx context.Context) error {
		return s.sync(ctx, id, epoch)
	})
	s.log.Debug("conversation selected", zap.Int64("conversation", id))
	return nil
}

// sync is one loop tick: it adopts the fetched messages when the
// conversation is still active and the list grew.
func (s *Synchronizer) sync(ctx context.Context, id int64, epoch uint64) error {
	detail, err := s.gw.GetConversation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	if err != nil {
		s.state.LastError = err
		return err
	}
	active := s.state.Active
	if active == nil || active.ID != id {
		return nil
	}
	if len(detail.Messages) > len(active.Messages) {
		active.Messages = detail.Messages
		s.notify()
	}
	return nil
}

// SendMessage posts text to the active conversation and appends the stored
// message. Blank text or no active conversation is a no-op. A failure is
// shown as an error toast and leaves the conversation unchanged.
func (s *Synchronizer) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	s.mu.Lock()
	if s.state.Active == nil {
		s.mu.Unlock()
		return nil
	}
	id := s.state.Active.ID
	s.mu.Unlock()

	msg, err := s.gw.PostMessage(ctx, id, text)
	if err != nil {
		s.log.Warn("failed to send message", zap.Int64("conversation", id), zap.Error(err))
		if s.notifier != nil {
			s.notifier.Add("Failed to send the message.", toast.Error, 0)
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(id, *msg)
	return nil
}

// appendLocked adds msg to the active conversation unless the loop already
// delivered it. Callers hold mu.
func (s *Synchronizer) appendLocked(conversationID int64, msg models.Message) {
	active := s.state.Active
	if active == nil || active.ID != conversationID {
		return
	}
	for _, m := range active.Messages {
		if m.ID == msg.ID {
			return
		}
	}
	active.Messages = append(active.Messages, msg)
	s.notify()
}

// StartConversation opens or continues a conversation about a service and
// selects it.
func (s *Synchronizer) StartConversation(ctx context.Context, serviceID int64, text string) (int64, error) {
	detail, err := s.gw.StartConversation(ctx, models.StartConversation{JobID: serviceID, Message: text})
	if err != nil {
		return 0, err
	}
	if err := s.LoadConversations(ctx, detail.ID); err != nil {
		return detail.ID, err
	}
	return detail.ID, nil
}

// SuggestReply asks the backend for an answer to the last message of the
// active conversation.
func (s *Synchronizer) SuggestReply(ctx context.Context) (string, error) {
	s.mu.Lock()
	active := s.state.Active
	var last string
	if active != nil {
		for i := len(active.Messages) - 1; i >= 0; i-- {
			if active.Messages[i].Content != "" {
				last = active.Messages[i].Content
				break
			}
		}
	}
	s.mu.Unlock()

	if active == nil {
		return "", ErrNoActiveConversation
	}
	suggestion, err := s.gw.SuggestReply(ctx, last)
	if err != nil {
		return "", err
	}
	return suggestion.Suggestion, nil
}

// MakeOffer posts a price offer into the active conversation.
func (s *Synchronizer) MakeOffer(ctx context.Context, price, description string) (*models.Offer, error) {
	id, ok := s.activeID()
	if !ok {
		return nil, ErrNoActiveConversation
	}
	msg, err := s.gw.CreateOffer(ctx, models.OfferRequest{ConversationID: id, Price: price, Description: description})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.appendLocked(id, *msg)
	s.mu.Unlock()
	return msg.Offer, nil
}

// AcceptOffer accepts an offer and refreshes the active conversation.
func (s *Synchronizer) AcceptOffer(ctx context.Context, offerID int64) (*models.Offer, error) {
	return s.decide(ctx, offerID, s.gw.AcceptOffer)
}

// RejectOffer rejects an offer and refreshes the active conversation.
func (s *Synchronizer) RejectOffer(ctx context.Context, offerID int64) (*models.Offer, error) {
	return s.decide(ctx, offerID, s.gw.RejectOffer)
}

func (s *Synchronizer) decide(ctx context.Context, offerID int64, call func(context.Context, int64) (*models.Offer, error)) (*models.Offer, error) {
	offer, err := call(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if id, ok := s.activeID(); ok {
		if err := s.refresh(ctx, id); err != nil {
			return offer, err
		}
	}
	return offer, nil
}

// refresh replaces the active conversation with a fresh copy. Offer status
// changes do not grow the message list, so the loop would not pick them up.
func (s *Synchronizer) refresh(ctx context.Context, id int64) error {
	detail, err := s.gw.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Active != nil && s.state.Active.ID == id && len(detail.Messages) >= len(s.state.Active.Messages) {
		s.state.Active = detail
		s.notify()
	}
	return nil
}

func (s *Synchronizer) activeID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Active == nil {
		return 0, false
	}
	return s.state.Active.ID, true
}

// Stop ends the synchronization loop. It is safe to call repeatedly.
func (s *Synchronizer) Stop() {
	s.poller.Stop()
	s.mu.Lock()
	s.epoch++
	s.selection++
	s.mu.Unlock()
}

// IsSyncing reports whether the loop is running.
func (s *Synchronizer) IsSyncing() bool {
	return s.poller.IsRunning()
}

// Updates signals changes of the active conversation. Signals coalesce.
func (s *Synchronizer) Updates() <-chan struct{} {
	return s.updates
}

func (s *Synchronizer) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the state that is safe to keep.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := State{IsLoading: s.state.IsLoading, LastError: s.state.LastError}
	if s.state.Conversations != nil {
		out.Conversations = make([]models.ConversationSummary, len(s.state.Conversations))
		copy(out.Conversations, s.state.Conversations)
	}
	if a := s.state.Active; a != nil {
		cp := *a
		cp.Participants = append([]models.Participant(nil), a.Participants...)
		cp.Messages = make([]models.Message, len(a.Messages))
		copy(cp.Messages, a.Messages)
		out.Active = &cp
	}
	return out
}

package api

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/atinyakov/mycraft/internal/models"
)

const (
	pathConversations = "/conversations/"
	pathSuggestReply  = "/conversations/suggest-reply/"
	pathOffers        = "/offers/"
)

func conversationPath(id int64) string {
	return pathConversations + strconv.FormatInt(id, 10) + "/"
}

func offerPath(id int64, action string) string {
	return pathOffers + strconv.FormatInt(id, 10) + "/" + action + "/"
}

// ListConversations lists the conversations of the current user, most
// recently updated first.
func (c *Client) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var raw json.RawMessage
	if err := c.get(ctx, pathConversations, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[models.ConversationSummary](raw)
}

// StartConversation opens a conversation about a service with an initial
// message. The backend reuses an existing conversation for the same pair.
func (c *Client) StartConversation(ctx context.Context, r models.StartConversation) (*models.ConversationDetail, error) {
	var d models.ConversationDetail
	if err := c.post(ctx, pathConversations, r, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetConversation fetches a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id int64) (*models.ConversationDetail, error) {
	var d models.ConversationDetail
	if err := c.get(ctx, conversationPath(id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// PostMessage appends a message to a conversation and returns the stored
// message.
func (c *Client) PostMessage(ctx context.Context, conversationID int64, content string) (*models.Message, error) {
	var m models.Message
	body := map[string]string{"content": content}
	if err := c.post(ctx, conversationPath(conversationID)+"post_message/", body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SuggestReply asks for an AI generated answer to lastMessage.
func (c *Client) SuggestReply(ctx context.Context, lastMessage string) (*models.ReplySuggestion, error) {
	var s models.ReplySuggestion
	body := map[string]string{"last_message": lastMessage}
	if err := c.post(ctx, pathSuggestReply, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateOffer posts a price offer into a conversation. The offer is
// returned wrapped in the message that carries it.
func (c *Client) CreateOffer(ctx context.Context, r models.OfferRequest) (*models.Message, error) {
	var m models.Message
	if err := c.post(ctx, pathOffers, r, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AcceptOffer accepts an offer; the backend books the service in turn.
func (c *Client) AcceptOffer(ctx context.Context, id int64) (*models.Offer, error) {
	return c.decideOffer(ctx, id, "accept")
}

// RejectOffer rejects an offer.
func (c *Client) RejectOffer(ctx context.Context, id int64) (*models.Offer, error) {
	return c.decideOffer(ctx, id, "reject")
}

func (c *Client) decideOffer(ctx context.Context, id int64, action string) (*models.Offer, error) {
	var o models.Offer
	if err := c.post(ctx, offerPath(id, action), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

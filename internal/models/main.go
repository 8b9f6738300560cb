// Package models defines the data structures exchanged with the MyCraft
// marketplace API: users, services, bookings, conversations, offers and reviews.
package models

import "encoding/json"

// Credentials is the payload of the token login exchange.
type Credentials struct {
	// Username is the login name of the account.
	Username string `json:"username"`
	// Password is the plain-text password, sent only over the login call.
	Password string `json:"password"`
}

// Registration is the payload for creating a new account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the authenticated principal's profile as returned by /auth/users/me/.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// Email is the contact address of the user.
	Email string `json:"email,omitempty"`
	// IsCraftsman marks users allowed to create and manage services.
	IsCraftsman bool `json:"is_craftsman"`
	// CompanyName is set for craftsmen.
	CompanyName string `json:"company_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	City        string `json:"city,omitempty"`
	// AverageRating is nil until the user received a review.
	AverageRating *float64 `json:"average_rating,omitempty"`
	ReviewCount   int      `json:"review_count,omitempty"`
}

// ProfileUpdate carries the editable profile fields. It is also the
// application payload for becoming a craftsman.
type ProfileUpdate struct {
	Bio           string `json:"bio,omitempty"`
	City          string `json:"city,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	ZipCode       string `json:"zip_code,omitempty"`
}

// Trade is the craft category of a service.
type Trade string

const (
	TradePlumber     Trade = "PLUMBER"
	TradeElectrician Trade = "ELECTRICIAN"
	TradePainter     Trade = "PAINTER"
	TradeCarpenter   Trade = "CARPENTER"
	TradeGardener    Trade = "GARDENER"
	TradeOther       Trade = "OTHER"
)

// ServiceStatus is the lifecycle state of a service listing.
type ServiceStatus string

const (
	ServiceOpen      ServiceStatus = "OPEN"
	ServiceBooked    ServiceStatus = "BOOKED"
	ServiceCompleted ServiceStatus = "COMPLETED"
	ServiceCancelled ServiceStatus = "CANCELLED"
)

// Geometry is a GeoJSON geometry. Coordinates are kept undecoded because
// their nesting depends on the geometry type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Service is a listing offered by a craftsman.
type Service struct {
	ID                 int64         `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Trade              Trade         `json:"trade"`
	ZipCode            string        `json:"zip_code"`
	City               string        `json:"city,omitempty"`
	ExecutionDate      string        `json:"execution_date,omitempty"`
	Price              string        `json:"price,omitempty"`
	Status             ServiceStatus `json:"status,omitempty"`
	Contractor         int64         `json:"contractor,omitempty"`
	ContractorUsername string        `json:"contractor_username,omitempty"`
	// Location is the point the service is offered at, if geocoded.
	Location *Geometry `json:"location,omitempty"`
}

// ServiceInput is the write side of a service. Lat and Lng are turned into
// a location by the backend.
type ServiceInput struct {
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Trade         Trade    `json:"trade,omitempty"`
	ZipCode       string   `json:"zip_code,omitempty"`
	City          string   `json:"city,omitempty"`
	ExecutionDate string   `json:"execution_date,omitempty"`
	Price         string   `json:"price,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
}

// ServiceFilter narrows the marketplace listing.
type ServiceFilter struct {
	Search   string
	Trade    Trade
	City     string
	Radius   string
	Lat      string
	Lng      string
	Page     int
	PageSize int
}

// AddressSuggestion is one geocoder hit of /services/suggest_address/.
type AddressSuggestion struct {
	DisplayName string  `json:"display_name"`
	Road        string  `json:"road"`
	HouseNumber string  `json:"house_number"`
	ZipCode     string  `json:"zip_code"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// PriceAdvice is the AI price estimate for a service.
type PriceAdvice struct {
	Advice string `json:"advice"`
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "PENDING"
	BookingConfirmed  BookingStatus = "CONFIRMED"
	BookingRejected   BookingStatus = "REJECTED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
	BookingPaid       BookingStatus = "PAID"
)

// Booking is a customer's reservation of a service.
type Booking struct {
	ID            int64         `json:"id"`
	Service       *Service      `json:"service,omitempty"`
	Customer      int64         `json:"customer"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Contractor    int64         `json:"contractor"`
	Status        BookingStatus `json:"status"`
	Price         string        `json:"price,omitempty"`
	ScheduledDate string        `json:"scheduled_date,omitempty"`
	CreatedAt     string        `json:"created_at,omitempty"`
	// Review is the id of the review left for this booking, if any.
	Review *int64 `json:"review,omitempty"`
}

// BookingRequest books a service on a date (YYYY-MM-DD).
type BookingRequest struct {
	ServiceID     int64  `json:"service_id"`
	ScheduledDate string `json:"scheduled_date"`
}

// Participant is a user taking part in a conversation.
type Participant struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// OfferStatus is the decision state of an offer.
type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

// Offer is a price proposal made by a craftsman inside a conversation.
type Offer struct {
	ID          int64       `json:"id"`
	Price       string      `json:"price"`
	Description string      `json:"description,omitempty"`
	Status      OfferStatus `json:"status"`
	Creator     int64       `json:"creator"`
}

// OfferRequest creates an offer in a conversation.
type OfferRequest struct {
	ConversationID int64  `json:"conversation_id"`
	Price          string `json:"price"`
	Description    string `json:"description,omitempty"`
}

// Message is one entry of a conversation. Offers are delivered as messages
// with an empty Content and a non-nil Offer.
type Message struct {
	ID             int64  `json:"id"`
	Sender         int64  `json:"sender"`
	SenderUsername string `json:"sender_username,omitempty"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp,omitempty"`
	Offer          *Offer `json:"offer,omitempty"`
}

// ConversationSummary is a listing entry of /conversations/.
type ConversationSummary struct {
	ID                 int64         `json:"id"`
	JobDetails         *Service      `json:"job_details,omitempty"`
	Participants       []Participant `json:"participants_details,omitempty"`
	LastMessagePreview string        `json:"last_message_preview,omitempty"`
	UpdatedAt          string        `json:"updated_at,omitempty"`
}

// ConversationDetail is the full record including the message sequence.
type ConversationDetail struct {
	ConversationSummary
	Messages []Message `json:"messages"`
}

// StartConversation opens (or continues) a conversation about a service.
type StartConversation struct {
	JobID   int64  `json:"job_id"`
	Message string `json:"message"`
}

// ReplySuggestion is the AI generated answer proposal.
type ReplySuggestion struct {
	Suggestion string `json:"suggestion"`
}

// Review rates a completed booking.
type Review struct {
	ID        int64  `json:"id"`
	Booking   int64  `json:"booking"`
	Reviewer  int64  `json:"reviewer,omitempty"`
	Recipient int64  `json:"recipient,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ReviewRequest creates a review for a booking.
type ReviewRequest struct {
	Booking int64  `json:"booking"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Overview bundles the per-user listings shown on the profile dashboard.
type Overview struct {
	MyJobs     []Service `json:"my_jobs"`
	MyBookings []Booking `json:"my_bookings"`
	MyOrders   []Booking `json:"my_orders"`
}

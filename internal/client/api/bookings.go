package api

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/atinyakov/mycraft/internal/models"
)

const (
	pathBookings   = "/bookings/"
	pathMyBookings = "/bookings/my_bookings/"
	pathMyOrders   = "/bookings/my_orders/"
	pathReviews    = "/reviews/"
)

func bookingPath(id int64, action string) string {
	return pathBookings + strconv.FormatInt(id, 10) + "/" + action + "/"
}

// CreateBooking books a service for a date.
func (c *Client) CreateBooking(ctx context.Context, r models.BookingRequest) (*models.Booking, error) {
	var b models.Booking
	if err := c.post(ctx, pathBookings, r, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// MyBookings lists bookings made by the current user as a customer.
func (c *Client) MyBookings(ctx context.Context) ([]models.Booking, error) {
	return c.bookings(ctx, pathMyBookings)
}

// MyOrders lists bookings received by the current user as a contractor.
func (c *Client) MyOrders(ctx context.Context) ([]models.Booking, error) {
	return c.bookings(ctx, pathMyOrders)
}

func (c *Client) bookings(ctx context.Context, path string) ([]models.Booking, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[models.Booking](raw)
}

// MarkBookingCompleted is called by the contractor once the work is done.
func (c *Client) MarkBookingCompleted(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	if err := c.post(ctx, bookingPath(id, "mark_completed"), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CancelBooking cancels a booking.
func (c *Client) CancelBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	if err := c.post(ctx, bookingPath(id, "cancel"), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateReview rates a completed booking.
func (c *Client) CreateReview(ctx context.Context, r models.ReviewRequest) (*models.Review, error) {
	var out models.Review
	if err := c.post(ctx, pathReviews, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

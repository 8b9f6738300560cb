package api

import (
	"context"

	"github.com/atinyakov/mycraft/internal/models"
	"golang.org/x/sync/errgroup"
)

// Overview fetches the user's services, bookings and orders concurrently.
// The first failure cancels the remaining calls and is returned.
func (c *Client) Overview(ctx context.Context) (*models.Overview, error) {
	var out models.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		jobs, err := c.MyJobs(gctx)
		out.MyJobs = jobs
		return err
	})
	g.Go(func() error {
		bookings, err := c.MyBookings(gctx)
		out.MyBookings = bookings
		return err
	})
	g.Go(func() error {
		orders, err := c.MyOrders(gctx)
		out.MyOrders = orders
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

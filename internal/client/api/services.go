package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/atinyakov/mycraft/internal/models"
)

const (
	pathServices       = "/services/"
	pathMyJobs         = "/services/my-jobs/"
	pathSuggestAddress = "/services/suggest_address/"
)

func servicePath(id int64, action string) string {
	p := pathServices + strconv.FormatInt(id, 10) + "/"
	if action != "" {
		p += action + "/"
	}
	return p
}

func filterQuery(f models.ServiceFilter) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("search", f.Search)
	set("trade", string(f.Trade))
	set("city", f.City)
	set("radius", f.Radius)
	set("lat", f.Lat)
	set("lng", f.Lng)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

// ListServices returns one page of the marketplace listing. Endpoints
// answering with a plain list yield a single page.
func (c *Client) ListServices(ctx context.Context, f models.ServiceFilter) (*Page[models.Service], error) {
	var raw json.RawMessage
	if err := c.get(ctx, pathServices, filterQuery(f), &raw); err != nil {
		return nil, err
	}
	return DecodePage[models.Service](raw)
}

// GetService fetches one service.
func (c *Client) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	if err := c.get(ctx, servicePath(id, ""), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateService publishes a new service. Requires the craftsman role.
func (c *Client) CreateService(ctx context.Context, in models.ServiceInput) (*models.Service, error) {
	var s models.Service
	if err := c.post(ctx, pathServices, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateService patches a service owned by the current user.
func (c *Client) UpdateService(ctx context.Context, id int64, in models.ServiceInput) (*models.Service, error) {
	var s models.Service
	if err := c.patch(ctx, servicePath(id, ""), in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteService removes a service owned by the current user.
func (c *Client) DeleteService(ctx context.Context, id int64) error {
	return c.delete(ctx, servicePath(id, ""))
}

// ServiceAvailability returns the dates (YYYY-MM-DD) on which the service's
// contractor is already booked.
func (c *Client) ServiceAvailability(ctx context.Context, id int64) ([]string, error) {
	var dates []string
	if err := c.get(ctx, servicePath(id, "availability"), nil, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// PriceAdvice asks the backend for an AI price estimate.
func (c *Client) PriceAdvice(ctx context.Context, id int64) (*models.PriceAdvice, error) {
	var a models.PriceAdvice
	if err := c.get(ctx, servicePath(id, "price-advice"), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// MyJobs lists every service of the current craftsman, including
// non-open ones.
func (c *Client) MyJobs(ctx context.Context) ([]models.Service, error) {
	var raw json.RawMessage
	if err := c.get(ctx, pathMyJobs, nil, &raw); err != nil {
		return nil, err
	}
	return DecodeList[models.Service](raw)
}

// SuggestAddress geocodes a partial address. Queries shorter than three
// characters yield no suggestions on the server side.
func (c *Client) SuggestAddress(ctx context.Context, query string) ([]models.AddressSuggestion, error) {
	var out []models.AddressSuggestion
	if err := c.get(ctx, pathSuggestAddress, url.Values{"q": {query}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListJobs is the former name of ListServices.
//
// Deprecated: use ListServices.
func (c *Client) ListJobs(ctx context.Context, f models.ServiceFilter) (*Page[models.Service], error) {
	return c.ListServices(ctx, f)
}

// GetJob is the former name of GetService.
//
// Deprecated: use GetService.
func (c *Client) GetJob(ctx context.Context, id int64) (*models.Service, error) {
	return c.GetService(ctx, id)
}

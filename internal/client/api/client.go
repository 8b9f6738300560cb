// Package api is the request gateway of the MyCraft client: a single HTTP
// client bound to the marketplace base URL that stamps the bearer token on
// every call, turns authorization failures into a forced session teardown
// and normalizes GeoJSON payloads into plain records.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/mycraft/internal/middleware"
	"go.uber.org/zap"
)

// UnauthorizedHook is notified when a response reports that the current
// credential is no longer valid. Hooks run synchronously, before the failing
// call returns to its caller.
type UnauthorizedHook func(ctx context.Context)

// Client is the request gateway. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	metrics *Metrics

	mu sync.Mutex
	// token is the armed bearer credential, empty when disarmed.
	token string
	// generation advances on every Arm/Disarm. A 401 only fires the hooks if
	// the failing request was sent under the current generation.
	generation uint64
	hooks      []UnauthorizedHook
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// wrapped with the request id and logging middlewares.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used by the gateway and its transport.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics instruments the gateway.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a gateway for the API rooted at baseURL
// (e.g. "https://mycraft.example/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := &http.Client{Timeout: 10 * time.Second}
	if c.http != nil {
		copied := *c.http
		hc = &copied
	}
	hc.Transport = middleware.Chain(hc.Transport,
		middleware.WithRequestID(),
		middleware.WithRequestLogging(c.log),
	)
	c.http = hc
	return c, nil
}

// Arm makes every subsequent request carry token.
func (c *Client) Arm(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.generation++
}

// Disarm removes the bearer token; subsequent requests are unauthenticated.
func (c *Client) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.generation++
}

// Token returns the armed token, or an empty string.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// OnUnauthorized registers a hook fired on authorization-failure responses.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

func (c *Client) credential() (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.generation
}

// unauthorized fires the hooks once for the generation the failing request
// was sent under. Concurrent failures of the same generation, and late
// failures of a credential that was already replaced, fire nothing.
func (c *Client) unauthorized(ctx context.Context, gen uint64, path string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.token = ""
	c.generation++
	hooks := make([]UnauthorizedHook, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.Unlock()

	c.log.Info("authorization expired, tearing down session", zap.String("path", path))
	c.metrics.forcedLogout()
	for _, h := range hooks {
		h(ctx)
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one API call. body is JSON encoded when non-nil; a 2xx
// response is normalized and decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	target := c.endpoint(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, gen := c.credential()
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		return &NetworkError{Op: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.observe(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return &NetworkError{Op: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized(ctx, gen, path)
		return newAPIError(method, path, resp.StatusCode, data)
	}
	if resp.StatusCode >= 400 {
		return newAPIError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decode(data, out); err != nil {
		return fmt.Errorf("invalid response from %s %s: %w", method, path, err)
	}
	return nil
}

func decode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	if normalized, changed := Normalize(generic); changed {
		b, err := json.Marshal(normalized)
		if err != nil {
			return err
		}
		data = b
	}
	return json.Unmarshal(data, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

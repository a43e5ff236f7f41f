// Package api is the client of the finance REST API.
//
// Every call except Login goes through Fetch, which attaches the bearer token
// held by the session, normalises error bodies and turns a 401 into a forced
// sign-out: the token is cleared and the navigator is sent to the login route.
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
	"time"

	"myfiance/internal/log"
	"myfiance/internal/session"
)

const (
	LoginRoute     = "/login"
	DashboardRoute = "/dashboard"
	HomeRoute      = "/"
)

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) { f(ctx, route) }

type nopNavigator struct{}

func (nopNavigator) Navigate(context.Context, string) {}

type Client struct {
	baseURL string
	http    *http.Client
	session session.Session
	nav     Navigator
	logger  *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

// New creates a client for the API at baseURL. The returned client has an
// empty in-memory session; use WithSession to bind it to a user.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: session.NewMemory(""),
		nav:     nopNavigator{},
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a shallow copy of c bound to sess and nav. The HTTP
// transport is shared.
func (c *Client) WithSession(sess session.Session, nav Navigator) *Client {
	cp := *c
	cp.session = sess
	if nav == nil {
		nav = nopNavigator{}
	}
	cp.nav = nav
	return &cp
}

func (c *Client) Session() session.Session { return c.session }

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
		contentType = "application/json"
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Fetch issues method endpoint with body and decodes a JSON answer into out
// (which may be nil). It reports noContent for a 204 answer.
func (c *Client) Fetch(ctx context.Context, method, endpoint string, body, out any) (noContent bool, err error) {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return false, err
	}
	if token, ok := c.session.Get(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.session.Clear(ctx); err != nil {
			c.logger.WarnContext(ctx, "Clearing expired session failed", log.FieldError, err)
		}
		c.nav.Navigate(ctx, LoginRoute)
		return false, ErrSessionExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return false, &Error{Status: resp.StatusCode, Message: errorMessage(raw, MsgGeneric)}
	}

	if resp.StatusCode == http.StatusNoContent {
		return true, nil
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%w: decode %s %s: %v", ErrNetwork, method, endpoint, err)
	}
	return false, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		c.logger.WarnContext(req.Context(), "API request failed",
			log.NewFields().WithAPICall(req.Method, req.URL.Path, 0, elapsed).WithError(err).ToSlice()...)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
	}
	fields := log.NewFields().WithAPICall(req.Method, req.URL.Path, resp.StatusCode, elapsed).ToSlice()
	if resp.StatusCode >= 400 {
		c.logger.WarnContext(req.Context(), "API request rejected", fields...)
	} else {
		c.logger.DebugContext(req.Context(), "API request completed", fields...)
	}
	return resp, nil
}

// Package api is the HTTP channel to the todo server. It attaches the
// bearer credential, tags every request with an id the server logs can be
// correlated against, and shapes every failure into one of three typed
// errors (HTTPError, NetworkError, DecodeError). It never retries; retry
// policy belongs to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource yields the current bearer token, or "" when logged out.
// *auth.Store satisfies it.
type TokenSource interface {
	Token() string
}

// Client talks to one todo server.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    *log.Logger
}

// NewClient creates a client for the server at base. logger may be nil to
// discard diagnostics.
func NewClient(base string, tokens TokenSource, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: 60 * time.Second},
		tokens: tokens,
		log:    logger,
	}
}

// do performs one JSON round-trip. body is marshalled when non-nil; the
// success payload is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.roundTrip(req, out)
}

// doForm performs one form-encoded round-trip (the signin endpoint speaks
// application/x-www-form-urlencoded, not JSON).
func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.roundTrip(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (c *Client) roundTrip(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Printf("api: %s %s: transport failure: %v", req.Method, req.URL.Path, err)
		return &NetworkError{URL: c.base, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{URL: c.base, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		he := newHTTPError(resp.StatusCode, raw)
		c.log.Printf("api: %s %s: status=%d code=%q request_id=%q detail=%q",
			req.Method, req.URL.Path, he.Status, he.Code, he.RequestID, he.Detail)
		return he
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.log.Printf("api: %s %s: undecodable body: %v: %q",
				req.Method, req.URL.Path, err, truncate(raw, 512))
			return &DecodeError{Err: err}
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

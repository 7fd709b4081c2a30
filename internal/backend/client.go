// Package backend talks to the admin panel backend. Every command endpoint
// answers with a Result; the order detail endpoint answers with an HTML fragment.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/apperr"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Client performs requests against one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	cookie  string
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCookie forwards a session cookie header verbatim.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// New returns a Client. A non-positive timeout leaves requests bounded only by ctx.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// GetText fetches path and returns the status and raw body. Only failures to
// obtain a response are errors; the caller decides what a status means.
func (c *Client) GetText(ctx context.Context, path string) (int, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", &apperr.TransportError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, "", &apperr.TransportError{Op: "GET " + path, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, string(b), nil
}

// PostResult sends body as JSON and decodes a strict Result.
func (c *Client) PostResult(ctx context.Context, path string, body any) (Result, error) {
	var res Result
	if err := c.PostJSON(ctx, path, body, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// GetResult fetches path and decodes a strict Result.
func (c *Client) GetResult(ctx context.Context, path string) (Result, error) {
	var res Result
	if err := c.GetJSON(ctx, path, &res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// PostJSON sends body as JSON and decodes the 2xx response into out.
// A nil body is sent as {}.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	if body == nil {
		body = struct{}{}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", path, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, "POST "+path, out)
}

// GetJSON fetches path and decodes the 2xx response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, "GET "+path, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, op string, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &apperr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &apperr.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return &apperr.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

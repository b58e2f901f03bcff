// Package apiclient is the single request pipeline every backend call goes
// through.  It attaches the bearer token to outgoing requests and, when the
// backend rejects that token, clears the session and sends the user to the
// login screen.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/logging"
)

// DefaultLoginPath is where the client navigates after a 401.
const DefaultLoginPath = "/auth"

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// TokenSource is the session state the pipeline needs: a read of the current
// token and the ability to drop it.
type TokenSource interface {
	Token() string
	Clear(ctx context.Context) error
}

// Redirector sends the user to another screen.
type Redirector interface {
	Redirect(path string)
}

// Request describes one backend call.  Path is relative to the base URL.
// Body is sent as JSON; Form, when set, is sent url-encoded instead.
// Anonymous requests never carry the bearer token.
type Request struct {
	Method    string
	Path      string
	RawQuery  string
	Body      any
	Form      url.Values
	Anonymous bool
}

// Client sends requests to the backend.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	redirect  Redirector
	loginPath string
	log       logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithRedirector sets who is told to navigate after a 401.
func WithRedirector(r Redirector) Option { return func(c *Client) { c.redirect = r } }

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(p string) Option { return func(c *Client) { c.loginPath = p } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a client for the API rooted at baseURL reading tokens from ts.
func New(baseURL string, ts TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		tokens:    ts,
		loginPath: DefaultLoginPath,
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends req and decodes a JSON response into out when out is non-nil.
// Non-2xx responses become *apperr.APIError; a 401 on a request that carried
// a token additionally wraps apperr.ErrAuthorizationExpired after the session
// has been cleared and the redirect issued.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}

	bearer := false
	if !req.Anonymous {
		if tok := c.tokens.Token(); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
			bearer = true
		}
	}
	reqID := uuid.NewString()
	httpReq.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debugf("request %s %s %s failed: %v", reqID, req.Method, req.Path, err)
		return &apperr.NetworkError{Op: req.Method + " " + req.Path, Err: err}
	}
	defer resp.Body.Close()
	c.log.Debugf("request %s %s %s -> %d in %s", reqID, req.Method, req.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apperr.APIError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Detail: readDetail(resp.Body),
		}
		if resp.StatusCode == http.StatusUnauthorized && bearer {
			c.expire(ctx)
			return fmt.Errorf("%w: %w", apperr.ErrAuthorizationExpired, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// Get, Post, Put and Delete are shorthands for Do.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// expire is the one place that reacts to a rejected token.
func (c *Client) expire(ctx context.Context) {
	c.log.Infof("backend rejected the session token; logging out")
	if err := c.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		c.log.Warnf("clear session after 401: %v", err)
	}
	if c.redirect != nil {
		c.redirect.Redirect(c.loginPath)
	}
}

// readDetail extracts FastAPI's {"detail": ...} message from an error body,
// falling back to the raw text.
func readDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(b) == 0 {
		return ""
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(b, &envelope) == nil {
		var s string
		if len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &s) == nil {
			return s
		}
		if len(envelope.Detail) > 0 {
			return string(envelope.Detail)
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(b))
}

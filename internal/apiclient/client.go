// Package apiclient talks to the Shaman chat backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CSRFHeader carries the anti-forgery token on mutating requests
const CSRFHeader = "X-CSRF-Token"

// Client is an HTTP client for the chat API. It keeps cookies between calls.
type Client struct {
	baseURL string
	client  *http.Client

	mu        sync.RWMutex
	csrfToken string
	authToken string
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added when missing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.client.Jar
		}
		c.client = hc
	}
}

// WithCSRFToken sets the token sent in X-CSRF-Token
func WithCSRFToken(token string) Option {
	return func(c *Client) { c.csrfToken = token }
}

// WithAuthToken sets the bearer token
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second, Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetCSRFToken replaces the CSRF token
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
}

// CSRFToken returns the current CSRF token
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfToken
}

// SetAuthToken replaces the bearer token
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.authToken = token
	c.mu.Unlock()
}

// AuthToken returns the current bearer token
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

// FetchCSRFToken asks the backend for a token and stores it
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	var body struct {
		CSRFToken *string `json:"csrf_token"`
	}
	const path = "/api/csrf"
	if err := c.getJSON(ctx, path, &body); err != nil {
		return "", err
	}
	if body.CSRFToken == nil || *body.CSRFToken == "" {
		return "", &MalformedResponseError{Path: path, Field: "csrf_token"}
	}
	c.SetCSRFToken(*body.CSRFToken)
	return *body.CSRFToken, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.execute(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.execute(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", out)
}

// execute sends the request and decodes a 2xx JSON body into out
func (c *Client) execute(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(CSRFHeader, token)
		} else {
			log.Warn().Str("path", path).Msg("CSRF token is not set, sending request without it")
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Method: method, Path: path, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, data),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &MalformedResponseError{Path: path, Err: err}
	}
	return nil
}

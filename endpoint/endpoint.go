// Package endpoint implements [chatter.Gateway] for a plain JSON chat
// endpoint: one POST per message, one reply per response.
package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/chatter"
	"golang.org/x/time/rate"
)

const (
	defaultUserField = "user"
	maxResponseBytes = 1 << 20
)

// Interface compliance check.
var _ chatter.Gateway = (*Client)(nil)

// Client posts user messages to a chat endpoint.
type Client struct {
	url        string
	userField  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserField sets the JSON key carrying the user identity. Defaults to
// "user".
func WithUserField(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.userField = name
		}
	}
}

// WithRateLimit throttles outgoing requests. Callers wait for a token, so a
// burst of submissions queues rather than fails.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// New creates a [Client] posting to url.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		userField:  defaultUserField,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// apiResponse covers both reply shapes and the error shape the backend
// returns with status 200 when its own upstream fails.
type apiResponse struct {
	Response *string `json:"response"`
	Message  *string `json:"message"`
	Error    any     `json:"error"`
	Detail   any     `json:"detail"`
}

// Send posts req.Text and returns the reply text.
func (c *Client) Send(ctx context.Context, req chatter.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("endpoint: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("endpoint: rate limit: %w: %w", chatter.ErrGateway, err)
		}
	}

	body, err := c.buildRequestBody(req)
	if err != nil {
		return "", fmt.Errorf("endpoint: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("endpoint: %w: %w", chatter.ErrGateway, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("endpoint: %w: %w", chatter.ErrGateway, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("endpoint: read body: %w: %w", chatter.ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseHTTPError(resp.StatusCode, data)
	}
	return parseReply(data)
}

func (c *Client) buildRequestBody(req chatter.Request) ([]byte, error) {
	payload := map[string]string{"message": req.Text}
	if req.User != "" {
		payload[c.userField] = req.User
	}
	return json.Marshal(payload)
}

func parseReply(data []byte) (string, error) {
	var r apiResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("endpoint: malformed response: %w: %w", chatter.ErrGateway, err)
	}
	if r.Error != nil {
		return "", fmt.Errorf("endpoint: upstream error: %v: %w", r.Error, chatter.ErrGateway)
	}
	var reply string
	switch {
	case r.Response != nil:
		reply = *r.Response
	case r.Message != nil:
		reply = *r.Message
	default:
		return "", fmt.Errorf("endpoint: response has no reply: %w", chatter.ErrGateway)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("endpoint: empty reply: %w", chatter.ErrGateway)
	}
	return reply, nil
}

func parseHTTPError(status int, body []byte) error {
	var r apiResponse
	if err := json.Unmarshal(body, &r); err == nil {
		switch {
		case r.Error != nil:
			return fmt.Errorf("endpoint: HTTP %d: %v: %w", status, r.Error, chatter.ErrGateway)
		case r.Detail != nil:
			return fmt.Errorf("endpoint: HTTP %d: %v: %w", status, r.Detail, chatter.ErrGateway)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return fmt.Errorf("endpoint: HTTP %d: %s: %w", status, text, chatter.ErrGateway)
}

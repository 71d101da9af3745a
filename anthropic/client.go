package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/fwojciec/chatter"
)

// Interface compliance check.
var _ chatter.Gateway = (*Client)(nil)

// Client implements [chatter.Gateway] for the Anthropic Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	maxTokens    int
	systemPrompt string
	httpClient   *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps the length of each reply.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send requests one reply to req.Text given the preceding history.
func (c *Client) Send(ctx context.Context, req chatter.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	body, err := c.buildRequestBody(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w: %w", chatter.ErrGateway, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w: %w", chatter.ErrGateway, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w: %w", chatter.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseHTTPError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w: read body: %w", chatter.ErrGateway, err)
	}
	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return "", fmt.Errorf("anthropic: %w: malformed response: %w", chatter.ErrGateway, err)
	}
	if apiResp.StopReason == "refusal" {
		return "", fmt.Errorf("anthropic: %w: request refused", chatter.ErrGateway)
	}

	var b strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("anthropic: %w: empty reply", chatter.ErrGateway)
	}
	return text, nil
}

func (c *Client) buildRequestBody(req chatter.Request) ([]byte, error) {
	apiReq := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    convertSystem(c.systemPrompt),
		Messages:  convertMessages(append(slices.Clip(req.History), chatter.Message{Role: chatter.RoleUser, Content: req.Text})),
	}
	injectCacheMarkers(&apiReq)
	return json.Marshal(apiReq)
}

// convertSystem converts a system prompt string to an array of content blocks
// suitable for the Anthropic API. Returns nil when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: prompt}}
}

// injectCacheMarkers sets cache_control breakpoints on the request:
//  1. Top-level: automatic caching for the conversation message window.
//  2. System prompt last block: stable content breakpoint.
func injectCacheMarkers(req *apiRequest) {
	// cc is shared across all breakpoints; safe because it is read-only after assignment.
	cc := &apiCacheControl{Type: "ephemeral"}
	req.CacheControl = cc
	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
}

// convertMessages maps session messages to API messages. Consecutive
// messages with the same role share one API message, and the result always
// starts with a user message. Unknown roles are skipped.
func convertMessages(msgs []chatter.Message) []apiMessage {
	var result []apiMessage
	for _, m := range msgs {
		var role string
		switch m.Role {
		case chatter.RoleUser:
			role = "user"
		case chatter.RoleResponder:
			role = "assistant"
		default:
			continue
		}
		if len(result) == 0 && role != "user" {
			continue
		}
		block := apiContentBlock{Type: "text", Text: m.Content}
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, block)
			continue
		}
		result = append(result, apiMessage{Role: role, Content: []apiContentBlock{block}})
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("anthropic: %w: HTTP %d (failed to read body: %w)", chatter.ErrGateway, resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		return fmt.Errorf("anthropic: %w: HTTP %d: %s", chatter.ErrGateway, resp.StatusCode, truncate(string(body), 200))
	}
	return fmt.Errorf("anthropic: %w: %s: %s", chatter.ErrGateway, apiErr.Error.Type, apiErr.Error.Message)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fwojciec/chatter"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ chatter.Gateway = (*Client)(nil)

// Client implements [chatter.Gateway] for the Google Gemini API.
type Client struct {
	client       *genai.Client
	model        string
	systemPrompt string
	baseURL      string
	httpClient   *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSystemPrompt sets the system instruction sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithBaseURL overrides the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{model: defaultModel}
	for _, o := range opts {
		o(c)
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Send generates one reply to req.Text given the preceding history.
func (c *Client) Send(ctx context.Context, req chatter.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	contents := append(ConvertMessages(req.History), genai.NewContentFromText(req.Text, genai.RoleUser))
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, c.buildConfig())
	if err != nil {
		return "", fmt.Errorf("gemini: %w: %w", chatter.ErrGateway, err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s: %w", resp.PromptFeedback.BlockReason, chatter.ErrGateway)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty reply: %w", chatter.ErrGateway)
	}
	return text, nil
}

func (c *Client) buildConfig() *genai.GenerateContentConfig {
	if c.systemPrompt == "" {
		return nil
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.systemPrompt, genai.RoleUser),
	}
}

// ConvertMessages converts chatter Messages to genai Contents. Responder
// messages become model turns. Exported for testing.
func ConvertMessages(msgs []chatter.Message) []*genai.Content {
	var result []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case chatter.RoleUser:
			result = append(result, genai.NewContentFromText(m.Content, genai.RoleUser))
		case chatter.RoleResponder:
			result = append(result, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}
	return result
}

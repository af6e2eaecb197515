package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eugene-nechvoloda/meetyai/httpapi"
)

const slackBaseURL = "https://slack.com/api"

// SlackNotifier delivers notifications through the Slack Web API using a
// bot token.
type SlackNotifier struct {
	api *httpapi.Client

	// HomeViewBuilder renders the home view payload for a user. The app's
	// UI layer supplies this; when nil, RefreshHomeView is a no-op.
	HomeViewBuilder func(ctx context.Context, userID string) (map[string]any, error)
}

// SlackOption configures SlackNotifier.
type SlackOption func(*slackConfig)

type slackConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithSlackBaseURL overrides the Slack API base URL (for tests).
func WithSlackBaseURL(url string) SlackOption {
	return func(c *slackConfig) { c.baseURL = url }
}

// WithSlackHTTPClient sets a custom HTTP client.
func WithSlackHTTPClient(hc *http.Client) SlackOption {
	return func(c *slackConfig) { c.httpClient = hc }
}

// NewSlackNotifier creates a notifier authenticated with botToken.
func NewSlackNotifier(botToken string, opts ...SlackOption) (*SlackNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("slack bot token is required")
	}

	cfg := slackConfig{baseURL: slackBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &SlackNotifier{
		api: httpapi.NewClient(httpapi.ClientConfig{
			Client:      cfg.httpClient,
			BaseURL:     cfg.baseURL,
			ServiceName: "slack",
			BeforeRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+botToken)
			},
		}),
	}, nil
}

// slackAPIResponse is the common Web API envelope.
type slackAPIResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostMessage implements Notifier via chat.postMessage.
func (n *SlackNotifier) PostMessage(ctx context.Context, recipient, text string) error {
	var out slackAPIResponse
	err := n.api.DoJSON(ctx, http.MethodPost, "/chat.postMessage", map[string]string{
		"channel": recipient,
		"text":    text,
	}, &out)
	if err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("slack chat.postMessage: %s", out.Error)
	}
	return nil
}

// RefreshHomeView implements Notifier via views.publish.
func (n *SlackNotifier) RefreshHomeView(ctx context.Context, userID string) error {
	if n.HomeViewBuilder == nil {
		return nil
	}

	view, err := n.HomeViewBuilder(ctx, userID)
	if err != nil {
		return fmt.Errorf("build home view: %w", err)
	}

	var out slackAPIResponse
	err = n.api.DoJSON(ctx, http.MethodPost, "/views.publish", map[string]any{
		"user_id": userID,
		"view":    view,
	}, &out)
	if err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("slack views.publish: %s", out.Error)
	}
	return nil
}

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eugene-nechvoloda/meetyai/httpapi"
)

const openaiBaseURL = "https://api.openai.com"

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	api *httpapi.Client
}

// OpenAIOption configures OpenAIClient.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithOpenAIBaseURL overrides the API base URL (for tests or gateways).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) { c.baseURL = url }
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *openaiConfig) { c.httpClient = hc }
}

// NewOpenAIClient creates a client authenticated with the given API key.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	cfg := openaiConfig{baseURL: openaiBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &OpenAIClient{
		api: httpapi.NewClient(httpapi.ClientConfig{
			Client:      cfg.httpClient,
			BaseURL:     cfg.baseURL,
			ServiceName: "openai",
			BeforeRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer "+apiKey)
			},
		}),
	}, nil
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete implements Client. The system prompt is sent as a leading
// system-role message per the chat completions convention.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body := openaiRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, openaiMessage{
			Role:    string(RoleSystem),
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openaiMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var out openaiResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/v1/chat/completions", body, &out); err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("openai response contains no choices")
	}

	return &CompletionResponse{
		Content: out.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
		},
	}, nil
}

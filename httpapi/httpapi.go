// Package httpapi provides the shared JSON-over-HTTP client used by the LLM
// provider clients and the export adapters, along with a common error
// taxonomy for non-success responses.
//
// The client deliberately performs no automatic retry: a transient failure
// surfaces to the caller, and any retry is an explicit user action
// (re-analysis or re-export).
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 60 * time.Second

// Client provides common HTTP functionality for external API clients.
type Client struct {
	client      *http.Client
	baseURL     string
	serviceName string

	// beforeRequest is called before each request (for auth headers, etc.)
	beforeRequest func(req *http.Request)
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client        *http.Client
	BaseURL       string
	ServiceName   string
	BeforeRequest func(req *http.Request)
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		client:        cfg.Client,
		baseURL:       cfg.BaseURL,
		serviceName:   cfg.ServiceName,
		beforeRequest: cfg.BeforeRequest,
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}

	return c
}

// ServiceName returns the name this client reports in errors.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Do executes a single HTTP request with a JSON body and returns the raw
// response. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	return c.DoWithHeaders(ctx, method, path, body, nil)
}

// DoWithHeaders executes a single HTTP request with custom headers.
func (c *Client) DoWithHeaders(
	ctx context.Context,
	method, path string,
	body any,
	headers map[string]string,
) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.beforeRequest != nil {
		c.beforeRequest(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.serviceName, err)
	}

	return resp, nil
}

// DoJSON executes a request and decodes a JSON response into out.
// Non-2xx responses are returned as *APIError.
func (c *Client) DoJSON(ctx context.Context, method, path string, body, out any) error {
	return c.DoJSONWithHeaders(ctx, method, path, body, out, nil)
}

// DoJSONWithHeaders executes a request with custom headers and decodes a
// JSON response into out.
func (c *Client) DoJSONWithHeaders(
	ctx context.Context,
	method, path string,
	body, out any,
	headers map[string]string,
) error {
	resp, err := c.DoWithHeaders(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ParseError(resp, c.serviceName, path)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}

	return nil
}

// ParseError builds an *APIError from a non-success response, consuming the
// body for the error message.
func ParseError(resp *http.Response, service, endpoint string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := string(bytes.TrimSpace(data))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    message,
		Endpoint:   endpoint,
		RequestID:  resp.Header.Get("X-Request-Id"),
	}
}

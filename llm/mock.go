package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests. With a fixed response list it
// cycles through the responses in order; WithCompleteFunc takes full control.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	next      int
	complete  func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Requests records every request received, in order.
	Requests []CompletionRequest
}

// NewMockClient creates a mock that always returns response.
func NewMockClient(response string) *MockClient {
	return &MockClient{responses: []string{response}}
}

// WithResponses replaces the scripted responses and returns the mock.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.responses = responses
	m.next = 0
	return m
}

// WithCompleteFunc replaces the completion behavior entirely.
func (m *MockClient) WithCompleteFunc(
	fn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error),
) *MockClient {
	m.complete = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fn := m.complete
	var content string
	var ok bool
	if fn == nil && len(m.responses) > 0 {
		content = m.responses[m.next%len(m.responses)]
		m.next++
		ok = true
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if !ok {
		return nil, fmt.Errorf("mock client has no responses")
	}

	return &CompletionResponse{Content: content}, nil
}

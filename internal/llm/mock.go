package llm

import (
	"context"
	"sync"
)

// MockResponse is one scripted answer. A non-nil Err is returned instead
// of a Response.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error
}

// MockProvider replays scripted answers in order and records every
// request it sees. Once the script runs out it asks Respond, or fails
// with ErrProviderUnavailable when Respond is nil.
type MockProvider struct {
	Respond func(Request) MockResponse

	mu       sync.Mutex
	script   []MockResponse
	requests []Request
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	next, ok, err := m.next(ctx, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrProviderUnavailable{}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Text: next.Text, Usage: next.Usage, Model: "mock", StopReason: "end"}, nil
}

// next records req and pops the next answer. A cancelled request leaves
// the script untouched.
func (m *MockProvider) next(ctx context.Context, req Request) (MockResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return MockResponse{}, false, err
	}
	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r, true, nil
	}
	if m.Respond != nil {
		return m.Respond(req), true, nil
	}
	return MockResponse{}, false, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount reports how many requests were made, including cancelled ones.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Call returns the i-th recorded request.
func (m *MockProvider) Call(i int) Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

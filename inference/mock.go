package inference

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a lightweight in-memory Client useful for tests & examples.
// Responses are selected by substring match against the prompt so domain
// prompts, decision prompts and so on can be distinguished without exact
// prompt reproduction in tests.
type MockClient struct {
	mu        sync.Mutex
	rules     []mockRule
	failures  []error
	prompts   []string
	callCount int
}

type mockRule struct {
	match    string
	response string
}

// NewMockClient constructs an empty mock backend.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// AddResponse registers a canned completion returned when the prompt
// contains match. Rules are evaluated in registration order.
func (m *MockClient) AddResponse(match, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, response: response})
}

// FailNext queues errors returned (in order) by upcoming calls before any
// rule matching happens. Used to exercise retry and degradation paths.
func (m *MockClient) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, errs...)
}

// Calls returns how many Complete invocations the mock has served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of every prompt seen so far.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Complete implements Client.
func (m *MockClient) Complete(_ context.Context, prompt string, _ CallOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return "", err
	}
	for _, rule := range m.rules {
		if rule.match == "" || containsFold(prompt, rule.match) {
			return rule.response, nil
		}
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements Client.
func (m *MockClient) Info() Info { return Info{Backend: "mock", Model: "mock"} }

package llm

import (
	"context"
	"sync"
)

// MockClient is a test implementation of Client.
// Each Send pops the next scripted error, if any, before answering with Reply.
type MockClient struct {
	// Reply builds the answer for a message; it defaults to echoing the input.
	Reply    func(text string) string
	StartErr error
	errs     []error
	sent     []string
	mu       sync.Mutex
}

// NewMockClient creates a mock that fails the first len(errs) sends with errs in order.
func NewMockClient(errs ...error) *MockClient {
	return &MockClient{errs: errs}
}

// StartConversation returns a conversation backed by the mock.
func (m *MockClient) StartConversation(_ context.Context) (Conversation, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return &mockConversation{client: m}, nil
}

// Close does nothing.
func (m *MockClient) Close() error {
	return nil
}

// Sent returns every text passed to Send, including failed attempts.
func (m *MockClient) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

// FailNext queues errors for the following sends.
func (m *MockClient) FailNext(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

type mockConversation struct {
	client *MockClient
	history
}

func (c *mockConversation) Send(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := c.client
	m.mu.Lock()
	m.sent = append(m.sent, text)
	var err error
	if len(m.errs) > 0 {
		err, m.errs = m.errs[0], m.errs[1:]
	}
	reply := m.Reply
	m.mu.Unlock()

	if err != nil {
		return "", err
	}

	answer := "echo: " + text
	if reply != nil {
		answer = reply(text)
	}
	c.commit(text, answer)
	return answer, nil
}

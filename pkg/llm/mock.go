package llm

import "context"

// MockChatClient is a configurable ChatClient for tests.
type MockChatClient struct {
	// CompleteFunc is called when Complete is invoked. If nil, an empty
	// completion is returned.
	CompleteFunc func(ctx context.Context, systemMessage, prompt string) (*Completion, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	CompleteCalls int
}

// NewMockChatClient creates a mock with defaults.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{ModelName: "mock-model"}
}

func (m *MockChatClient) Complete(ctx context.Context, systemMessage, prompt string) (*Completion, error) {
	m.CompleteCalls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemMessage, prompt)
	}
	return &Completion{}, nil
}

func (m *MockChatClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

var _ ChatClient = (*MockChatClient)(nil)

package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/copilot/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// GenerateFunc is called by Generate if set, and by Stream when
	// StreamFunc is nil to produce the text that gets streamed.
	GenerateFunc func(ctx context.Context, messages []ai.Message) (string, error)

	// StreamFunc is called by Stream if set.
	StreamFunc func(ctx context.Context, messages []ai.Message, onChunk func(string) error) (string, error)

	mu        sync.Mutex
	callCount int
	calls     [][]ai.Message
}

// NewMockChatModel creates a mock chat model with default echo behavior.
// Note: Returns concrete type to allow test assertions via GetMockChatModel().
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Generate returns the injected response or echoes the last user message.
func (m *MockChatModel) Generate(ctx context.Context, messages []ai.Message) (string, error) {
	m.record(messages)
	return m.generate(ctx, messages)
}

// Stream emits the response word by word.
func (m *MockChatModel) Stream(ctx context.Context, messages []ai.Message, onChunk func(string) error) (string, error) {
	m.record(messages)

	m.mu.Lock()
	fn := m.StreamFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, messages, onChunk)
	}

	text, err := m.generate(ctx, messages)
	if err != nil {
		return "", err
	}
	for _, chunk := range strings.SplitAfter(text, " ") {
		if chunk == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := onChunk(chunk); err != nil {
			return "", err
		}
	}
	return text, nil
}

func (m *MockChatModel) generate(ctx context.Context, messages []ai.Message) (string, error) {
	m.mu.Lock()
	fn := m.GenerateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, messages)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == ai.RoleUser {
			return "mock response to: " + messages[i].Content, nil
		}
	}
	return "mock response", nil
}

func (m *MockChatModel) record(messages []ai.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.calls = append(m.calls, append([]ai.Message(nil), messages...))
}

// CallCount returns the number of times Generate or Stream was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Calls returns copies of the message lists of every call, in call order.
func (m *MockChatModel) Calls() [][]ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ai.Message(nil), m.calls...)
}

// Reset clears the call history and custom functions.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = nil
	m.GenerateFunc = nil
	m.StreamFunc = nil
}

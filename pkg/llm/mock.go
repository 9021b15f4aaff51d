package llm

import (
	"context"
	"sync"
)

// MockGenerator is a configurable mock for testing model-backed stages.
// Set GenerateResponseFunc to control behavior, or queue Responses to
// return in order. Safe for concurrent use.
type MockGenerator struct {
	mu sync.Mutex

	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, responses are popped from Responses; when that is empty an
	// empty result is returned.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResult, error)

	// Responses are returned in order when GenerateResponseFunc is nil.
	Responses []string

	// Err, if set, is returned by every call (when GenerateResponseFunc is nil).
	Err error

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// Call tracking for verification.
	Calls   int
	Prompts []string
	Temps   []float64
}

// NewMockGenerator creates a mock that returns the given responses in order.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{Responses: responses}
}

// GenerateResponse implements Generator.
func (m *MockGenerator) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResult, error) {
	m.mu.Lock()
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	m.Temps = append(m.Temps, temperature)
	fn := m.GenerateResponseFunc
	err := m.Err
	var content string
	if fn == nil && err == nil {
		if len(m.Responses) > 0 {
			content = m.Responses[0]
			m.Responses = m.Responses[1:]
		}
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, systemMessage, temperature)
	}
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Content: content}, nil
}

// Name implements Generator.
func (m *MockGenerator) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

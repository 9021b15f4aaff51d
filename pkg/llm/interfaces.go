// Package llm provides the model capability consumed by the pipeline:
// interchangeable generator implementations, a priority-ordered fallback
// chain, error classification, and JSON extraction from model output.
package llm

import "context"

// GenerateResult holds a completed generation with usage stats.
type GenerateResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator is the single model capability: generate(prompt, options) ->
// text. Implementations are interchangeable and selected at call time by
// the fallback chain. Use this interface for dependency injection to
// enable mocking in tests.
type Generator interface {
	// GenerateResponse generates a completion for the prompt.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResult, error)

	// Name returns the provider name for logging and fallback ordering.
	Name() string
}

// Compile-time interface checks.
var (
	_ Generator = (*OpenAIClient)(nil)
	_ Generator = (*AnthropicClient)(nil)
	_ Generator = (*Chain)(nil)
	_ Generator = (*MockGenerator)(nil)
)

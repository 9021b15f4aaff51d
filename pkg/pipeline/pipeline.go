// Package pipeline orchestrates the analysis stages: plan, explore,
// generate SQL, execute, visualize, synthesize insight. Stage outputs
// are immutable value records threaded through the orchestrator; no
// shared mutable session state.
package pipeline

import (
	"context"
	"time"

	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/retry"
)

// callModel is the single path from a stage to the model capability:
// per-call timeout plus bounded retries for transient provider errors.
// Fallback across providers happens inside the Generator itself.
func callModel(ctx context.Context, gen llm.Generator, timeout time.Duration, prompt, system string, temperature float64) (*llm.GenerateResult, error) {
	return retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*llm.GenerateResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return gen.GenerateResponse(callCtx, prompt, system, temperature)
	})
}

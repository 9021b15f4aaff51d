package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/dataset"
	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
)

func newTestGenerator(gen llm.Generator, exec *fakeExecutor, maxAttempts int) SQLGenerator {
	return NewSQLGenerator(gen, exec, GeneratorConfig{
		Temperature:  0.1,
		ModelTimeout: time.Second,
		MaxAttempts:  maxAttempts,
		RowLimit:     1000,
	}, zap.NewNop())
}

func TestGenerator_AcceptsFirstValidCandidate(t *testing.T) {
	gen := llm.NewMockGenerator(sqlBlock("SELECT region, SUM(revenue) AS total FROM sales GROUP BY region"))
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, _ string, _ int) (*models.ResultSet, error) {
			return resultSet(
				[]models.ColumnInfo{{Name: "region", Type: "VARCHAR"}, {Name: "total", Type: "DOUBLE"}},
				[]map[string]any{{"region": "north", "total": 430.5}},
			), nil
		},
	}

	candidate, err := newTestGenerator(gen, exec, 3).Generate(
		context.Background(), "revenue by region", salesSchema(), nil, nil)

	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.True(t, candidate.Accepted())
	assert.Equal(t, 1, candidate.Attempt)
	assert.Equal(t, 1, gen.Calls)
}

func TestGenerator_OneCorrectionCycleAfterExecutionError(t *testing.T) {
	gen := llm.NewMockGenerator(
		sqlBlock("SELECT regon FROM sales"),
		sqlBlock("SELECT region FROM sales"),
	)
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, query string, _ int) (*models.ResultSet, error) {
			if query == "SELECT regon FROM sales" {
				return nil, &dataset.ExecutionError{
					Kind:    dataset.KindSyntax,
					Message: `column "regon" does not exist`,
				}
			}
			return resultSet(
				[]models.ColumnInfo{{Name: "region", Type: "VARCHAR"}},
				[]map[string]any{{"region": "north"}},
			), nil
		},
	}

	candidate, err := newTestGenerator(gen, exec, 3).Generate(
		context.Background(), "regions", salesSchema(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, candidate.Attempt)
	assert.True(t, candidate.Accepted())

	// The correction prompt carries the prior SQL and the exact error.
	require.Len(t, gen.Prompts, 2)
	assert.Contains(t, gen.Prompts[1], "SELECT regon FROM sales")
	assert.Contains(t, gen.Prompts[1], `column "regon" does not exist`)
}

func TestGenerator_ValidationFailureSkipsExecution(t *testing.T) {
	gen := llm.NewMockGenerator(
		sqlBlock("DELETE FROM sales"),
		sqlBlock("SELECT region FROM sales"),
	)
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, _ string, _ int) (*models.ResultSet, error) {
			return resultSet(
				[]models.ColumnInfo{{Name: "region", Type: "VARCHAR"}},
				[]map[string]any{{"region": "north"}},
			), nil
		},
	}

	candidate, err := newTestGenerator(gen, exec, 3).Generate(
		context.Background(), "regions", salesSchema(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, candidate.Attempt)
	// Only the corrected candidate reached the gateway.
	assert.Equal(t, 1, exec.calls())
}

func TestGenerator_ExhaustsBudget(t *testing.T) {
	gen := &llm.MockGenerator{
		GenerateResponseFunc: func(_ context.Context, _, _ string, _ float64) (*llm.GenerateResult, error) {
			return &llm.GenerateResult{Content: sqlBlock("SELECT broken FROM nowhere")}, nil
		},
	}
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, _ string, _ int) (*models.ResultSet, error) {
			return nil, &dataset.ExecutionError{Kind: dataset.KindSyntax, Message: "syntax error"}
		},
	}

	candidate, err := newTestGenerator(gen, exec, 3).Generate(
		context.Background(), "q", salesSchema(), nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	require.NotNil(t, candidate)
	assert.Equal(t, 3, candidate.Attempt)
	assert.False(t, candidate.Accepted())
	assert.Equal(t, 3, gen.Calls)
}

func TestGenerator_ZeroRowsIsAccepted(t *testing.T) {
	gen := llm.NewMockGenerator(sqlBlock("SELECT region FROM sales WHERE region = 'nowhere'"))
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, _ string, _ int) (*models.ResultSet, error) {
			return resultSet([]models.ColumnInfo{{Name: "region", Type: "VARCHAR"}}, []map[string]any{}), nil
		},
	}

	candidate, err := newTestGenerator(gen, exec, 3).Generate(
		context.Background(), "q", salesSchema(), nil, nil)

	require.NoError(t, err)
	assert.True(t, candidate.Accepted())
	assert.True(t, candidate.Result.Empty())
}

func TestGenerator_ProviderFailureIsFatal(t *testing.T) {
	gen := &llm.MockGenerator{Err: errors.New("invalid api key")}
	exec := &fakeExecutor{}

	candidate, err := newTestGenerator(gen, exec, 3).Generate(
		context.Background(), "q", salesSchema(), nil, nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAttemptsExhausted)
	assert.Nil(t, candidate)
	assert.Zero(t, exec.calls())
}

func TestGenerator_ValidationErrorsTakePrecedenceInCorrection(t *testing.T) {
	candidate := &models.CandidateQuery{
		ValidationErrors: []models.ValidationIssue{
			{Kind: models.IssueForbiddenStatement, Message: "forbidden keyword DELETE in query"},
		},
		ExecErr: "should never win",
	}

	assert.Equal(t, "forbidden keyword DELETE in query", candidate.FailureMessage())
}

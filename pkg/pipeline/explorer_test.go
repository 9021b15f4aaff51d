package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/dataset"
	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
)

func newTestExplorer(gen llm.Generator, exec *fakeExecutor) Explorer {
	return NewExplorer(gen, exec, ExplorerConfig{
		Temperature:  0.1,
		ModelTimeout: time.Second,
		ProbeTimeout: time.Second,
		RowLimit:     50,
		Concurrency:  2,
	}, zap.NewNop())
}

func TestExplorer_RunsProbesInPlanOrder(t *testing.T) {
	gen := &llm.MockGenerator{
		GenerateResponseFunc: func(_ context.Context, prompt, _ string, _ float64) (*llm.GenerateResult, error) {
			if strings.Contains(prompt, "how many regions?") {
				return &llm.GenerateResult{Content: sqlBlock("SELECT COUNT(DISTINCT region) AS regions FROM sales")}, nil
			}
			return &llm.GenerateResult{Content: sqlBlock("SELECT MIN(order_date) AS earliest FROM sales")}, nil
		},
	}
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, query string, _ int) (*models.ResultSet, error) {
			if query == "SELECT COUNT(DISTINCT region) AS regions FROM sales" {
				return resultSet(
					[]models.ColumnInfo{{Name: "regions", Type: "INT8"}},
					[]map[string]any{{"regions": int64(2)}},
				), nil
			}
			return resultSet(
				[]models.ColumnInfo{{Name: "earliest", Type: "DATE"}},
				[]map[string]any{{"earliest": "2024-01-03"}},
			), nil
		},
	}

	plan := &models.AnalysisPlan{ExploratoryQuestions: []string{"how many regions?", "earliest order?"}}
	steps := newTestExplorer(gen, exec).Explore(context.Background(), salesSchema(), plan)

	require.Len(t, steps, 2)
	assert.Equal(t, "how many regions?", steps[0].Question)
	assert.Equal(t, "earliest order?", steps[1].Question)
	assert.True(t, steps[0].Succeeded())
	assert.Equal(t, "1 rows; first row: regions=2", steps[0].Findings)
}

func TestExplorer_NoQuestionsNoProbes(t *testing.T) {
	gen := llm.NewMockGenerator()
	exec := &fakeExecutor{}

	steps := newTestExplorer(gen, exec).Explore(context.Background(), salesSchema(), models.DefaultPlan("q"))

	assert.Empty(t, steps)
	assert.Zero(t, gen.Calls)
}

func TestExplorer_InvalidProbeSQLIsRecordedNotExecuted(t *testing.T) {
	gen := llm.NewMockGenerator(sqlBlock("DROP TABLE sales"))
	exec := &fakeExecutor{}

	plan := &models.AnalysisPlan{ExploratoryQuestions: []string{"destructive probe"}}
	steps := newTestExplorer(gen, exec).Explore(context.Background(), salesSchema(), plan)

	require.Len(t, steps, 1)
	assert.False(t, steps[0].Succeeded())
	assert.Contains(t, steps[0].Err, "probe SQL rejected")
	assert.Zero(t, exec.calls())
}

func TestExplorer_ExecutionFailureBecomesTrailEntry(t *testing.T) {
	gen := llm.NewMockGenerator(
		sqlBlock("SELECT region FROM sales"),
		sqlBlock("SELECT revenue FROM sales"),
	)
	exec := &fakeExecutor{
		execFunc: func(_ context.Context, query string, _ int) (*models.ResultSet, error) {
			if query == "SELECT region FROM sales" {
				return nil, &dataset.ExecutionError{Kind: dataset.KindTimeout, Message: "query exceeded the execution timeout"}
			}
			return resultSet(
				[]models.ColumnInfo{{Name: "revenue", Type: "DOUBLE"}},
				[]map[string]any{{"revenue": 120.5}},
			), nil
		},
	}

	plan := &models.AnalysisPlan{ExploratoryQuestions: []string{"regions?", "revenues?"}}
	steps := newTestExplorer(gen, exec).Explore(context.Background(), salesSchema(), plan)

	require.Len(t, steps, 2)
	assert.False(t, steps[0].Succeeded())
	assert.Contains(t, steps[0].Err, "timeout")
	assert.True(t, steps[1].Succeeded())
}

func TestExplorer_ProbeGenerationFailureDoesNotAbortStage(t *testing.T) {
	gen := &llm.MockGenerator{Err: errors.New("invalid api key")}
	exec := &fakeExecutor{}

	plan := &models.AnalysisPlan{ExploratoryQuestions: []string{"q1", "q2"}}
	steps := newTestExplorer(gen, exec).Explore(context.Background(), salesSchema(), plan)

	require.Len(t, steps, 2)
	for _, step := range steps {
		assert.False(t, step.Succeeded())
		assert.Contains(t, step.Err, "probe SQL generation failed")
	}
}

func TestSummarizeRows_Deterministic(t *testing.T) {
	rs := resultSet(
		[]models.ColumnInfo{{Name: "b", Type: "INT8"}, {Name: "a", Type: "VARCHAR"}},
		[]map[string]any{{"b": 1, "a": "x"}, {"b": 2, "a": "y"}},
	)

	first := summarizeRows(rs)
	second := summarizeRows(rs)

	assert.Equal(t, first, second)
	assert.Equal(t, "2 rows; first row: a=x, b=1", first)
}

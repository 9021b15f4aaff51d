package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
)

func newTestPlanner(gen llm.Generator) Planner {
	return NewPlanner(gen, 0.5, time.Second, zap.NewNop())
}

func TestPlanner_ParsesPlan(t *testing.T) {
	gen := llm.NewMockGenerator(`{
		"understanding": "compare revenue across regions",
		"approach": "group by region and sum revenue",
		"exploratory_questions": ["what regions exist?"]
	}`)

	plan := newTestPlanner(gen).Plan(context.Background(), "revenue by region", salesSchema(), nil)

	require.NotNil(t, plan)
	assert.False(t, plan.Degraded)
	assert.Equal(t, "compare revenue across regions", plan.Understanding)
	assert.Equal(t, []string{"what regions exist?"}, plan.ExploratoryQuestions)
}

func TestPlanner_CapsExploratoryQuestions(t *testing.T) {
	gen := llm.NewMockGenerator(`{
		"understanding": "u",
		"approach": "a",
		"exploratory_questions": ["q1", "q2", "q3", "q4", "q5"]
	}`)

	plan := newTestPlanner(gen).Plan(context.Background(), "q", salesSchema(), nil)

	assert.Len(t, plan.ExploratoryQuestions, models.MaxExploratoryQuestions)
}

func TestPlanner_ProviderFailureFallsBackToDefault(t *testing.T) {
	gen := &llm.MockGenerator{Err: errors.New("invalid api key")}

	plan := newTestPlanner(gen).Plan(context.Background(), "revenue by region", salesSchema(), nil)

	require.NotNil(t, plan)
	assert.True(t, plan.Degraded)
	assert.Equal(t, "revenue by region", plan.Understanding)
	assert.Empty(t, plan.ExploratoryQuestions)
}

func TestPlanner_UnparseableResponseFallsBackToDefault(t *testing.T) {
	gen := llm.NewMockGenerator("here is my plan: look at the data")

	plan := newTestPlanner(gen).Plan(context.Background(), "q", salesSchema(), nil)

	assert.True(t, plan.Degraded)
}

func TestPlanner_HistoryIsIncludedInPrompt(t *testing.T) {
	gen := llm.NewMockGenerator(emptyPlanJSON)

	newTestPlanner(gen).Plan(context.Background(), "and by region?", salesSchema(), []models.Exchange{
		{Question: "total revenue?", Answer: "475.5 overall"},
	})

	require.Len(t, gen.Prompts, 1)
	assert.Contains(t, gen.Prompts[0], "475.5 overall")
}

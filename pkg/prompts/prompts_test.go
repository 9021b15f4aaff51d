package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datavibe/vibe-engine/pkg/models"
)

func testSchema() *models.SchemaContext {
	mean := 42.5
	minV, maxV := 1.0, 99.0
	return &models.SchemaContext{
		TableName: "sales",
		RowCount:  500,
		Columns: []models.ColumnProfile{
			{
				Name:         "region",
				DeclaredType: "VARCHAR",
				SemanticType: models.SemanticCategorical,
				TopValues:    []models.TopValue{{Value: "north", Count: 300}, {Value: "south", Count: 200}},
			},
			{
				Name:         "unit_price",
				DeclaredType: "DOUBLE",
				SemanticType: models.SemanticCurrency,
				Stats:        &models.ColumnStats{Min: &minV, Max: &maxV, Mean: &mean, DistinctCount: 87},
			},
		},
		BusinessPatterns: []string{"unit_price spans a wide range"},
	}
}

func TestFormatSchemaContext(t *testing.T) {
	out := FormatSchemaContext(testSchema())

	assert.Contains(t, out, "## Dataset: sales")
	assert.Contains(t, out, "region (VARCHAR, categorical)")
	assert.Contains(t, out, "values: north, south")
	assert.Contains(t, out, "range 1 to 99")
	assert.Contains(t, out, "### Observed Patterns")
}

func TestBuildPlanningPrompt(t *testing.T) {
	out := BuildPlanningPrompt("why did sales dip in Q2?", testSchema(), []models.Exchange{
		{Question: "total sales?", Answer: "1.2M across two regions"},
	})

	assert.Contains(t, out, "why did sales dip in Q2?")
	assert.Contains(t, out, "## Conversation So Far")
	assert.Contains(t, out, "1.2M across two regions")
	assert.Contains(t, out, `"exploratory_questions"`)
}

func TestBuildSQLPrompt_CarriesPlanAndFindings(t *testing.T) {
	plan := &models.AnalysisPlan{Understanding: "quarterly dip", Approach: "compare quarters"}
	trail := []models.ExplorationStep{
		{Question: "date range?", Findings: "3 rows; order_date spans 2024", SQL: "SELECT 1"},
		{Question: "broken probe", Err: "timeout"},
	}

	out := BuildSQLPrompt("why did sales dip?", testSchema(), plan, trail)

	assert.Contains(t, out, "compare quarters")
	assert.Contains(t, out, "order_date spans 2024")
	assert.NotContains(t, out, "broken probe")
	assert.Contains(t, out, "## Examples")
}

func TestBuildSQLPrompt_SkipsDegradedPlan(t *testing.T) {
	out := BuildSQLPrompt("top regions", testSchema(), models.DefaultPlan("top regions"), nil)

	assert.NotContains(t, out, "## Analysis Plan")
}

func TestBuildCorrectionPrompt(t *testing.T) {
	out := BuildCorrectionPrompt("top regions", testSchema(),
		"SELECT regon FROM sales", `column "regon" does not exist`)

	assert.Contains(t, out, "SELECT regon FROM sales")
	assert.Contains(t, out, `column "regon" does not exist`)
	assert.Contains(t, out, "## Previous Attempt")
}

func TestBuildVisualizationPrompt(t *testing.T) {
	result := &models.ResultSet{
		Columns:  []models.ColumnInfo{{Name: "region", Type: "VARCHAR"}, {Name: "total", Type: "DOUBLE"}},
		Rows:     []map[string]any{{"region": "north", "total": 12.5}},
		RowCount: 1,
	}

	out := BuildVisualizationPrompt("sales by region", result)

	assert.Contains(t, out, "region (VARCHAR)")
	assert.Contains(t, out, `"north"`)
	assert.Contains(t, out, `"visualizations"`)
}

func TestBuildInsightPrompt_MarksTruncation(t *testing.T) {
	result := &models.ResultSet{
		Columns:   []models.ColumnInfo{{Name: "n", Type: "INT8"}},
		Rows:      []map[string]any{{"n": 1}},
		RowCount:  1,
		Truncated: true,
	}

	out := BuildInsightPrompt("how many?", nil, result)

	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, `"key_findings"`)
}

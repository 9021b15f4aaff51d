package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/datavibe/vibe-engine/pkg/config"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/schema"
)

// fakeExecutor is an in-memory stand-in for the execution gateway.
type fakeExecutor struct {
	mu       sync.Mutex
	execFunc func(ctx context.Context, query string, rowLimit int) (*models.ResultSet, error)
	queries  []string
	limits   []int
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, rowLimit int) (*models.ResultSet, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, rowLimit)
	fn := f.execFunc
	f.mu.Unlock()
	return fn(ctx, query, rowLimit)
}

func (f *fakeExecutor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func resultSet(columns []models.ColumnInfo, rows []map[string]any) *models.ResultSet {
	return &models.ResultSet{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}
}

func salesSchema() *models.SchemaContext {
	return &models.SchemaContext{
		TableName: "sales",
		RowCount:  100,
		Columns: []models.ColumnProfile{
			{Name: "product_name", SemanticType: models.SemanticCategorical},
			{Name: "region", SemanticType: models.SemanticCategorical},
			{Name: "revenue", SemanticType: models.SemanticCurrency},
			{Name: "order_date", SemanticType: models.SemanticTemporal},
		},
	}
}

func salesSample() schema.RawDataset {
	return schema.RawDataset{
		TableName: "sales",
		Columns: []schema.RawColumn{
			{Name: "product_name", DeclaredType: "VARCHAR"},
			{Name: "region", DeclaredType: "VARCHAR"},
			{Name: "revenue", DeclaredType: "DOUBLE"},
			{Name: "order_date", DeclaredType: "VARCHAR"},
		},
		Rows: [][]any{
			{"keyboard", "north", 120.5, "2024-01-03"},
			{"mouse", "south", 45.0, "2024-02-11"},
			{"monitor", "north", 310.0, "2024-03-20"},
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			PlanningTemperature:      0.5,
			GenerationTemperature:    0.1,
			InsightTemperature:       0.7,
			VisualizationTemperature: 0.2,
			MaxSQLAttempts:           3,
			ProbeConcurrency:         2,
			ModelCallTimeout:         5 * time.Second,
		},
		Dataset: config.DatasetConfig{
			ResultRowLimit: 1000,
			ProbeRowLimit:  50,
			QueryTimeout:   5 * time.Second,
			ProbeTimeout:   5 * time.Second,
		},
	}
}

const emptyPlanJSON = `{"understanding":"top products by revenue","approach":"aggregate revenue per product","exploratory_questions":[]}`

func sqlBlock(query string) string {
	return "```sql\n" + query + "\n```"
}

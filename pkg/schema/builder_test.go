package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/models"
)

func sampleDataset() RawDataset {
	rows := make([][]any, 0, 100)
	for i := 0; i < 100; i++ {
		region := "north"
		if i%2 == 1 {
			region = "south"
		}
		rows = append(rows, []any{
			i + 1,
			float64(10 + i),
			region,
			"2024-03-15",
			i % 2,
		})
	}
	return RawDataset{
		TableName: "sales",
		Columns: []RawColumn{
			{Name: "order_id", DeclaredType: "INTEGER"},
			{Name: "unit_price", DeclaredType: "DOUBLE"},
			{Name: "region", DeclaredType: "VARCHAR"},
			{Name: "order_date", DeclaredType: "VARCHAR"},
			{Name: "returned", DeclaredType: "INTEGER"},
		},
		Rows: rows,
	}
}

func TestBuild_SemanticTypes(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(sampleDataset())

	require.Len(t, ctx.Columns, 5)
	assert.False(t, ctx.Degraded)

	tests := []struct {
		column string
		want   models.SemanticType
	}{
		{"order_id", models.SemanticIdentifier},
		{"unit_price", models.SemanticCurrency},
		{"region", models.SemanticCategorical},
		{"order_date", models.SemanticTemporal},
		{"returned", models.SemanticBoolean},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			col := ctx.Column(tt.column)
			require.NotNil(t, col)
			assert.Equal(t, tt.want, col.SemanticType)
		})
	}
}

func TestBuild_NumericStats(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(sampleDataset())

	col := ctx.Column("unit_price")
	require.NotNil(t, col)
	require.NotNil(t, col.Stats)
	require.NotNil(t, col.Stats.Min)
	require.NotNil(t, col.Stats.Max)
	require.NotNil(t, col.Stats.Mean)

	assert.Equal(t, 10.0, *col.Stats.Min)
	assert.Equal(t, 109.0, *col.Stats.Max)
	assert.InDelta(t, 59.5, *col.Stats.Mean, 0.001)
	assert.Equal(t, 100, col.Stats.DistinctCount)
}

func TestBuild_TemporalStats(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(RawDataset{
		TableName: "events",
		Columns:   []RawColumn{{Name: "occurred_at", DeclaredType: "VARCHAR"}},
		Rows: [][]any{
			{"2024-01-10"},
			{"2023-06-01"},
			{"2024-05-20"},
		},
	})

	col := ctx.Column("occurred_at")
	require.NotNil(t, col)
	require.NotNil(t, col.Stats)
	assert.Equal(t, "2023-06-01", col.Stats.MinDate)
	assert.Equal(t, "2024-05-20", col.Stats.MaxDate)
}

func TestBuild_SampleValuesCapped(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(sampleDataset())

	for _, col := range ctx.Columns {
		assert.LessOrEqual(t, len(col.SampleValues), maxSampleValues, col.Name)
	}
}

func TestBuild_NullRatio(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(RawDataset{
		TableName: "t",
		Columns:   []RawColumn{{Name: "v", DeclaredType: "DOUBLE"}},
		Rows:      [][]any{{1.0}, {nil}, {3.0}, {nil}},
	})

	col := ctx.Column("v")
	require.NotNil(t, col)
	assert.InDelta(t, 0.5, col.NullRatio, 0.001)
}

func TestBuild_TopValuesForCategorical(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(sampleDataset())

	col := ctx.Column("region")
	require.NotNil(t, col)
	require.Len(t, col.TopValues, 2)
	assert.Equal(t, "north", col.TopValues[0].Value)
	assert.Equal(t, 50, col.TopValues[0].Count)
}

func TestBuild_EmptyInputIsDegraded(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	ctx := b.Build(RawDataset{})

	assert.True(t, ctx.Degraded)
	assert.Equal(t, "dataset", ctx.TableName)
	assert.Empty(t, ctx.Columns)
}

func TestBuild_ShortRowsAreTolerated(t *testing.T) {
	b := NewBuilder(zap.NewNop())

	ctx := b.Build(RawDataset{
		TableName: "ragged",
		Columns: []RawColumn{
			{Name: "a", DeclaredType: "INTEGER"},
			{Name: "b", DeclaredType: "VARCHAR"},
		},
		Rows: [][]any{{1, "x"}, {2}, {3, "y"}},
	})

	require.Len(t, ctx.Columns, 2)
	colB := ctx.Column("b")
	require.NotNil(t, colB)
	assert.InDelta(t, 1.0/3.0, colB.NullRatio, 0.001)
}

func TestBuild_BusinessPatterns(t *testing.T) {
	b := NewBuilder(zap.NewNop())
	ctx := b.Build(RawDataset{
		TableName: "orders",
		Columns: []RawColumn{
			{Name: "price", DeclaredType: "DOUBLE"},
			{Name: "quantity", DeclaredType: "INTEGER"},
		},
		Rows: [][]any{
			{9.99, 2}, {19.99, 5}, {4.50, 11}, {7.25, 3},
			{12.00, 8}, {3.10, 6}, {22.40, 1}, {15.75, 9},
		},
	})

	require.NotEmpty(t, ctx.BusinessPatterns)
	assert.Contains(t, ctx.BusinessPatterns[0], "price")
	assert.Contains(t, ctx.BusinessPatterns[0], "quantity")
}

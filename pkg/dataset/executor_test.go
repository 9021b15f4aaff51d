package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapWithLimit(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  string
	}{
		{
			name:  "plain select",
			query: "SELECT * FROM sales",
			limit: 10,
			want:  "SELECT * FROM (SELECT * FROM sales) AS _limited LIMIT 11",
		},
		{
			name:  "trailing semicolon stripped",
			query: "SELECT * FROM sales;",
			limit: 10,
			want:  "SELECT * FROM (SELECT * FROM sales) AS _limited LIMIT 11",
		},
		{
			name:  "existing limit is still capped",
			query: "SELECT * FROM sales LIMIT 50000",
			limit: 100,
			want:  "SELECT * FROM (SELECT * FROM sales LIMIT 50000) AS _limited LIMIT 101",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapWithLimit(tt.query, tt.limit))
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, MaxRowLimit, clampLimit(0))
	assert.Equal(t, MaxRowLimit, clampLimit(-5))
	assert.Equal(t, MaxRowLimit, clampLimit(MaxRowLimit+1))
	assert.Equal(t, 50, clampLimit(50))
}

func TestGuardReadOnly(t *testing.T) {
	assert.Nil(t, guardReadOnly("SELECT 1"))
	assert.Nil(t, guardReadOnly("  with x as (select 1) select * from x"))

	err := guardReadOnly("DROP TABLE sales")
	require.NotNil(t, err)
	assert.Equal(t, KindPermission, err.Kind)
}

func TestTruncate(t *testing.T) {
	rows := []map[string]any{{"a": 1}, {"a": 2}, {"a": 3}}

	kept, truncated := truncate(rows, 2)
	assert.Len(t, kept, 2)
	assert.True(t, truncated)

	kept, truncated = truncate(rows, 3)
	assert.Len(t, kept, 3)
	assert.False(t, truncated)
}

func TestClassifyExecutionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"duckdb parser error", errors.New(`Parser Error: syntax error at or near "FORM"`), KindSyntax},
		{"duckdb binder error", errors.New(`Binder Error: Referenced column "profit" not found in FROM clause!`), KindSyntax},
		{"postgres missing column", errors.New(`ERROR: column "profit" does not exist (SQLSTATE 42703)`), KindSyntax},
		{"postgres statement timeout", errors.New("ERROR: canceling statement due to statement timeout"), KindTimeout},
		{"permission denied", errors.New("ERROR: permission denied for table sales"), KindPermission},
		{"connection drop", errors.New("unexpected EOF on client connection"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execErr := ClassifyExecutionError(tt.err)
			require.NotNil(t, execErr)
			assert.Equal(t, tt.want, execErr.Kind)
		})
	}

	assert.Nil(t, ClassifyExecutionError(nil))
}

func TestExecutionError_IsRetryable(t *testing.T) {
	assert.True(t, (&ExecutionError{Kind: KindTimeout}).IsRetryable())
	assert.False(t, (&ExecutionError{Kind: KindSyntax}).IsRetryable())
	assert.False(t, (&ExecutionError{Kind: KindPermission}).IsRetryable())
	assert.False(t, (&ExecutionError{Kind: KindUnknown}).IsRetryable())
}

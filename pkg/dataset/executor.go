// Package dataset is the execution gateway: the only path from a
// validated query to the data store. Every implementation caps rows,
// bounds execution time, and refuses non-read statements outright.
package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// MaxRowLimit is the hard cap on returned rows, regardless of what a
// caller asks for.
const MaxRowLimit = 1000

// Executor runs a read-only query against the dataset store.
type Executor interface {
	Execute(ctx context.Context, query string, rowLimit int) (*models.ResultSet, error)
}

// clampLimit normalizes a requested row limit into (0, MaxRowLimit].
func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxRowLimit {
		return MaxRowLimit
	}
	return limit
}

// wrapWithLimit wraps the query so the store can never return more than
// limit+1 rows; the extra row signals truncation. A trailing semicolon
// would break the subquery form, so it is stripped first.
func wrapWithLimit(query string, limit int) string {
	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSuffix(trimmed, ";")
	return fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", trimmed, limit+1)
}

// guardReadOnly is the gateway's own fail-fast check, independent of
// upstream static validation. Anything that is not a SELECT or WITH
// statement never reaches the store.
func guardReadOnly(query string) *ExecutionError {
	normalized := strings.ToUpper(strings.TrimSpace(query))
	if strings.HasPrefix(normalized, "SELECT") || strings.HasPrefix(normalized, "WITH") {
		return nil
	}
	return &ExecutionError{
		Kind:    KindPermission,
		Message: "only SELECT statements may be executed",
	}
}

// truncate applies the limit+1 contract to collected rows.
func truncate(rows []map[string]any, limit int) ([]map[string]any, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// DuckDBExecutor runs queries against an in-memory DuckDB instance.
// Datasets are registered as views over CSV files, so the analysis
// layer sees one stable table name per dataset.
type DuckDBExecutor struct {
	db      *sql.DB
	timeout time.Duration
	logger  *zap.Logger
}

var _ Executor = (*DuckDBExecutor)(nil)

// NewDuckDBExecutor opens an in-memory DuckDB database.
func NewDuckDBExecutor(timeout time.Duration, logger *zap.Logger) (*DuckDBExecutor, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &DuckDBExecutor{
		db:      db,
		timeout: timeout,
		logger:  logger.Named("duckdb"),
	}, nil
}

// RegisterCSV exposes a CSV file as a view named table. Existing views
// with the same name are replaced.
func (e *DuckDBExecutor) RegisterCSV(ctx context.Context, table, path string) error {
	stmt := fmt.Sprintf(
		"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s)",
		quoteIdentifier(table), quoteLiteral(path))
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("register csv %s as %s: %w", path, table, err)
	}
	e.logger.Info("dataset registered", zap.String("table", table), zap.String("path", path))
	return nil
}

// Execute runs a read-only query with the row cap and timeout applied.
func (e *DuckDBExecutor) Execute(ctx context.Context, query string, rowLimit int) (*models.ResultSet, error) {
	if execErr := guardReadOnly(query); execErr != nil {
		return nil, execErr
	}

	limit := clampLimit(rowLimit)
	wrapped := wrapWithLimit(query, limit)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	rows, err := e.db.QueryContext(ctx, wrapped)
	if err != nil {
		return nil, ClassifyExecutionError(err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, ClassifyExecutionError(err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, ClassifyExecutionError(err)
	}

	columns := make([]models.ColumnInfo, len(columnNames))
	for i, name := range columnNames {
		columns[i] = models.ColumnInfo{Name: name, Type: columnTypes[i].DatabaseTypeName()}
	}

	collected := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, ClassifyExecutionError(err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col.Name] = normalizeValue(values[i])
		}
		collected = append(collected, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, ClassifyExecutionError(err)
	}

	kept, truncated := truncate(collected, limit)

	result := &models.ResultSet{
		Columns:   columns,
		Rows:      kept,
		RowCount:  len(kept),
		Truncated: truncated,
		ElapsedMs: time.Since(started).Milliseconds(),
	}

	e.logger.Debug("query executed",
		zap.Int("rows", result.RowCount),
		zap.Bool("truncated", result.Truncated),
		zap.Int64("elapsed_ms", result.ElapsedMs))

	return result, nil
}

// Close releases the underlying database.
func (e *DuckDBExecutor) Close() error {
	return e.db.Close()
}

// normalizeValue makes driver values JSON-friendly.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// quoteIdentifier double-quotes an identifier, escaping embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a string literal, escaping embedded quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

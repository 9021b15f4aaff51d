package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// PostgresExecutor runs queries against a PostgreSQL dataset through a
// shared connection pool.
type PostgresExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

var _ Executor = (*PostgresExecutor)(nil)

// NewPostgresExecutor connects a pool to the given connection string.
func NewPostgresExecutor(ctx context.Context, connString string, timeout time.Duration, logger *zap.Logger) (*PostgresExecutor, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &PostgresExecutor{
		pool:    pool,
		timeout: timeout,
		logger:  logger.Named("postgres"),
	}, nil
}

// Execute runs a read-only query with the row cap and timeout applied.
func (e *PostgresExecutor) Execute(ctx context.Context, query string, rowLimit int) (*models.ResultSet, error) {
	if execErr := guardReadOnly(query); execErr != nil {
		return nil, execErr
	}

	limit := clampLimit(rowLimit)
	wrapped := wrapWithLimit(query, limit)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	rows, err := e.pool.Query(ctx, wrapped)
	if err != nil {
		return nil, ClassifyExecutionError(err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]models.ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = models.ColumnInfo{
			Name: string(fd.Name),
			Type: pgTypeNameFromOID(fd.DataTypeOID),
		}
	}

	collected := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
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

// Close releases the pool.
func (e *PostgresExecutor) Close() {
	e.pool.Close()
}

// pgTypeNameFromOID maps common PostgreSQL type OIDs to readable names.
func pgTypeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1700:
		return "NUMERIC"
	case 2950:
		return "UUID"
	case 3802:
		return "JSONB"
	default:
		return "UNKNOWN"
	}
}

package writer

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/persistbench/persistbench/internal/database"
	benchErrors "github.com/persistbench/persistbench/internal/errors"
	"github.com/persistbench/persistbench/pkg/types"
	"go.uber.org/zap"
)

// DefaultTable is the table the purchase orders are inserted into.
const DefaultTable = "purchase_order"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableWriter inserts records into a fixed-schema table, one transaction
// per batch.
type TableWriter struct {
	db        *database.DB
	table     string
	insertSQL string
	logger    *zap.Logger
}

// NewTableWriter creates a table-backed writer. An empty table name selects
// DefaultTable.
func NewTableWriter(db *database.DB, table string, logger *zap.Logger) (*TableWriter, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, benchErrors.NewConfigError(fmt.Sprintf("invalid table name %q", table), nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableWriter{
		db:    db,
		table: table,
		insertSQL: fmt.Sprintf("INSERT INTO %s (id, product_name, price, quantity) VALUES (%s)",
			table, database.Placeholders(db.Dialect, 4)),
		logger: logger,
	}, nil
}

// Backend returns "table".
func (w *TableWriter) Backend() string {
	return BackendTable
}

// Table returns the table name.
func (w *TableWriter) Table() string {
	return w.table
}

// Reset is a no-op; the table is recreated by Prepare.
func (w *TableWriter) Reset(ctx context.Context) error {
	return nil
}

// Prepare drops and recreates the table.
func (w *TableWriter) Prepare(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", w.table),
		fmt.Sprintf(`CREATE TABLE %s (
			id BIGINT PRIMARY KEY,
			product_name VARCHAR(180),
			price DOUBLE PRECISION,
			quantity BIGINT
		)`, w.table),
	}
	for _, stmt := range stmts {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return benchErrors.NewDatabaseError(benchErrors.CodeSchemaFailed, "failed to recreate table", err).
				WithDetails(map[string]interface{}{"table": w.table})
		}
	}
	w.logger.Debug("table recreated", zap.String("table", w.table))
	return nil
}

// WriteBatch inserts records inside a single transaction with one prepared
// statement. Any failure rolls the whole batch back.
func (w *TableWriter) WriteBatch(ctx context.Context, records []types.Record) (n int, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, benchErrors.NewDatabaseError(benchErrors.CodeInsertFailed, "failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				w.logger.Warn("rollback failed", zap.Error(rbErr))
			}
			n = 0
		}
	}()

	stmt, err := tx.PrepareContext(ctx, w.insertSQL)
	if err != nil {
		return 0, benchErrors.NewDatabaseError(benchErrors.CodeInsertFailed, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, r.ID, r.ProductName, r.Price, r.Quantity); err != nil {
			return 0, benchErrors.NewDatabaseError(benchErrors.CodeInsertFailed, "failed to insert record", err).
				WithDetails(map[string]interface{}{"record_id": r.ID, "table": w.table})
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, benchErrors.NewDatabaseError(benchErrors.CodeInsertFailed, "failed to commit batch", err)
	}
	return len(records), nil
}

// Count returns the number of rows in the table.
func (w *TableWriter) Count(ctx context.Context) (int, error) {
	return w.scalar(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", w.table))
}

// CountDistinctIDs returns the number of distinct ids in the table.
func (w *TableWriter) CountDistinctIDs(ctx context.Context) (int, error) {
	return w.scalar(ctx, fmt.Sprintf("SELECT COUNT(DISTINCT id) FROM %s", w.table))
}

// Load reads every row back ordered by id.
func (w *TableWriter) Load(ctx context.Context) ([]types.Record, error) {
	rows, err := w.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, product_name, price, quantity FROM %s ORDER BY id", w.table))
	if err != nil {
		return nil, benchErrors.NewDatabaseError(benchErrors.CodeQueryFailed, "failed to query table", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var r types.Record
		if err := rows.Scan(&r.ID, &r.ProductName, &r.Price, &r.Quantity); err != nil {
			return nil, benchErrors.NewDatabaseError(benchErrors.CodeQueryFailed, "failed to scan row", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, benchErrors.NewDatabaseError(benchErrors.CodeQueryFailed, "row iteration failed", err)
	}
	return records, nil
}

func (w *TableWriter) scalar(ctx context.Context, query string) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, benchErrors.NewDatabaseError(benchErrors.CodeQueryFailed, "failed to query table", err).
			WithDetails(map[string]interface{}{"table": w.table})
	}
	return n, nil
}

// Package mssql is the SQL Server sink. Batches travel through the
// go-mssqldb bulk copy API.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"surveyetl/internal/storage"
)

// Config is the subset of storage.Config a SQL Server sink needs.
type Config struct {
	DSN   string
	Table string
}

// Dialect is the T-SQL flavour. SQL Server has no CREATE TABLE IF NOT EXISTS,
// so creation is guarded by OBJECT_ID.
var Dialect = storage.Dialect{
	Name:       "mssql",
	Ident:      bracket,
	TextType:   "NVARCHAR(MAX)",
	NumberType: "FLOAT",
	CreateTemplate: func(quoted, raw, defs string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
			strings.ReplaceAll(raw, "'", "''"), quoted, defs)
	},
	TruncateTemplate: storage.TruncateTable,
}

// Repository loads survey rows into SQL Server through the TDS bulk copy
// protocol.
type Repository struct {
	db   *sql.DB
	cfg  Config
	bulk mssql.BulkOptions
}

// NewRepository validates the DSN, opens a pool and checks connectivity. The
// returned func closes the pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql: parse dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mssql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mssql: ping: %w", err)
	}
	r := &Repository{
		db:  db,
		cfg: cfg,
		// Missing cells arrive as nil and must stay NULL rather than pick up
		// column defaults.
		bulk: mssql.BulkOptions{KeepNulls: true, Tablock: true},
	}
	return r, func() { _ = db.Close() }, nil
}

// CopyFrom sends one batch through a bulk copy statement inside its own
// transaction, so a failed batch leaves no rows behind.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n, err := r.bulkCopy(ctx, tx, columns, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit batch: %w", err)
	}
	return n, nil
}

// bulkCopy queues every row on a CopyIn statement and flushes it with the
// final argument-less Exec, which reports the affected row count.
func (r *Repository) bulkCopy(ctx context.Context, tx *sql.Tx, columns []string, rows [][]any) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.cfg.Table, r.bulk, columns...))
	if err != nil {
		return 0, fmt.Errorf("mssql: prepare copy into %s: %w", r.cfg.Table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("mssql: queue row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("mssql: flush copy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}
	return n, nil
}

// Exec runs a DDL statement such as the guarded CREATE TABLE.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() storage.Dialect { return Dialect }

func bracket(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// Package sqlite is the embedded sink: a local SQLite database opened through
// the pure-Go modernc driver, so the CLI needs no cgo or server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"surveyetl/internal/storage"
)

// Config is the subset of storage.Config the SQLite sink reads.
type Config struct {
	// DSN is a file path or URI such as "file:findex.db?_pragma=busy_timeout(5000)".
	DSN string

	// Table is the destination table. "main.findex" is accepted.
	Table string
}

// Dialect is the SQLite SQL flavour. SQLite has no TRUNCATE.
var Dialect = storage.Dialect{
	Name:             "sqlite",
	Ident:            storage.DoubleQuote,
	TextType:         "TEXT",
	NumberType:       "REAL",
	CreateTemplate:   storage.IfNotExists,
	TruncateTemplate: func(quoted string) string { return "DELETE FROM " + quoted },
}

// Repository writes survey rows into a SQLite file (or ":memory:").
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, errors.New("sqlite: empty dsn")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open %s: %w", cfg.DSN, err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// insertSQL renders the positional INSERT for columns.
func (r *Repository) insertSQL(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Dialect.Ident(c)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	return "INSERT INTO " + Dialect.Table(r.cfg.Table) +
		" (" + strings.Join(quoted, ",") + ") VALUES (" + marks + ")"
}

// CopyFrom inserts one batch through a prepared statement. The batch is
// committed as a unit.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	switch {
	case len(columns) == 0:
		return 0, errors.New("sqlite: copy without columns")
	case len(rows) == 0:
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ins, err := tx.PrepareContext(ctx, r.insertSQL(columns))
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert into %s: %w", r.cfg.Table, err)
	}
	defer ins.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("sqlite: row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if _, err := ins.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("sqlite: insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit batch: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec runs one statement, typically DDL.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() storage.Dialect { return Dialect }

// Package store provides the embedded DuckDB database of the pipeline.
//
// A Store backs the published sales database file and, opened without a
// path, the in-memory engine used to cross-check published Parquet files.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// pingTimeout bounds the connection check when a database is opened.
const pingTimeout = 5 * time.Second

// Store wraps one DuckDB connection. DuckDB allows a single writer per
// file, so the pool is capped at one connection.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the database file at path. An empty path opens
// an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect duckdb %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory database.
func OpenMemory() (*Store, error) {
	return Open("")
}

// Close releases the connection. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// TransactionContext runs fn inside a transaction. The transaction commits
// when fn returns nil and rolls back otherwise, including on panic.
func (s *Store) TransactionContext(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// QueryRowContext runs a query expected to return at most one row.
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement that returns no rows.
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

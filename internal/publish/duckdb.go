package publish

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/xtxerr/medallion/internal/store"
)

// DuckDBSink writes one table per dataset into a DuckDB file.
type DuckDBSink struct {
	File string
}

func (s *DuckDBSink) Name() string { return "duckdb" }

func (s *DuckDBSink) Write(ctx context.Context, dir string, datasets []Dataset) ([]string, error) {
	path := filepath.Join(dir, s.File)

	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	err = db.TransactionContext(ctx, func(tx *sql.Tx) error {
		for i := range datasets {
			d := &datasets[i]
			if err := store.ReplaceTable(ctx, tx, d.Table, dbRows(d)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "CHECKPOINT"); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("close database: %w", err)
	}
	return []string{path}, nil
}

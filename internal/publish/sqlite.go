package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xtxerr/medallion/internal/schema"
	"github.com/xtxerr/medallion/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteBatchRows bounds the rows per INSERT so the parameter count stays
// below SQLite's limit.
const sqliteBatchRows = 100

// SQLiteSink writes one table per dataset into a SQLite file. Dates are
// stored as YYYY-MM-DD text and amounts as fixed four-decimal text, so
// values are exact.
type SQLiteSink struct {
	File string
}

func (s *SQLiteSink) Name() string { return "sqlite" }

func (s *SQLiteSink) Write(ctx context.Context, dir string, datasets []Dataset) ([]string, error) {
	path := filepath.Join(dir, s.File)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range datasets {
			if err := replaceSQLiteTable(tx, &datasets[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Close(); err != nil {
		return nil, fmt.Errorf("close database: %w", err)
	}
	return []string{path}, nil
}

func sqliteType(t schema.Type) (string, error) {
	switch t {
	case schema.TypeInt32, schema.TypeInt64:
		return "INTEGER", nil
	case schema.TypeDate, schema.TypeDecimal, schema.TypeString:
		return "TEXT", nil
	default:
		return "", fmt.Errorf("column type %s has no database type", t)
	}
}

func replaceSQLiteTable(tx *gorm.DB, d *Dataset) error {
	name := store.QuoteIdent(d.Table.Name)

	cols := make([]string, len(d.Table.Columns))
	for i, c := range d.Table.Columns {
		typ, err := sqliteType(c.Type)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Table.Name, c.Name, err)
		}
		cols[i] = store.QuoteIdent(c.Name) + " " + typ
		if !c.Nullable {
			cols[i] += " NOT NULL"
		}
	}

	if err := tx.Exec("DROP TABLE IF EXISTS " + name).Error; err != nil {
		return fmt.Errorf("drop %s: %w", d.Table.Name, err)
	}
	if err := tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(cols, ", "))).Error; err != nil {
		return fmt.Errorf("create %s: %w", d.Table.Name, err)
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	rows := dbRows(d)
	for start := 0; start < len(rows); start += sqliteBatchRows {
		end := min(start+sqliteBatchRows, len(rows))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*len(cols))
		for _, row := range rows[start:end] {
			values = append(values, placeholders)
			args = append(args, row...)
		}

		stmt := fmt.Sprintf("INSERT INTO %s VALUES %s", name, strings.Join(values, ", "))
		if err := tx.Exec(stmt, args...).Error; err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", d.Table.Name, start, end-1, err)
		}
	}
	return nil
}

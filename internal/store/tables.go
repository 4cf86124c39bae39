package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	defaults "github.com/xtxerr/medallion/config"
	"github.com/xtxerr/medallion/internal/schema"
)

// =============================================================================
// Table Replacement
// =============================================================================

// ColumnType returns the DuckDB type of a schema column type.
func ColumnType(t schema.Type) (string, error) {
	switch t {
	case schema.TypeInt32:
		return "INTEGER", nil
	case schema.TypeInt64:
		return "BIGINT", nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", defaults.MoneyPrecision, defaults.MoneyScale), nil
	case schema.TypeString:
		return "VARCHAR", nil
	default:
		return "", fmt.Errorf("column type %s has no database type", t)
	}
}

// CreateTableSQL returns the CREATE TABLE statement for t.
func CreateTableSQL(t schema.Table) (string, error) {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typ, err := ColumnType(c.Type)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		cols[i] = QuoteIdent(c.Name) + " " + typ
		if !c.Nullable {
			cols[i] += " NOT NULL"
		}
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(t.Name), strings.Join(cols, ", ")), nil
}

// InsertSQL returns a parameterized INSERT for t. Date and decimal
// parameters are passed as text and cast by the database.
func InsertSQL(t schema.Table) string {
	params := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		switch c.Type {
		case schema.TypeDate, schema.TypeDecimal:
			typ, _ := ColumnType(c.Type)
			params[i] = "CAST(? AS " + typ + ")"
		default:
			params[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdent(t.Name), strings.Join(params, ", "))
}

// ReplaceTable drops t if it exists, recreates it and inserts rows. Each row
// holds one driver value per column; nil is NULL.
func ReplaceTable(ctx context.Context, tx *sql.Tx, t schema.Table, rows [][]any) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(t.Name)); err != nil {
		return fmt.Errorf("drop %s: %w", t.Name, err)
	}

	ddl, err := CreateTableSQL(t)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}

	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, InsertSQL(t))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%s row %d: %d values for %d columns", t.Name, i, len(row), len(t.Columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// QuoteIdent quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

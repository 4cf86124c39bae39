// Package query cross-checks a published output set with SQL.
//
// Verify reads the published Parquet files with an in-memory DuckDB and
// recomputes totals independently of the pipeline's own arithmetic.
package query

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	defaults "github.com/xtxerr/medallion/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/store"
)

// Totals are the measures of one published dataset.
type Totals struct {
	Rows     int64
	Revenue  decimal.Decimal
	Quantity int64
}

// Report is the outcome of a verification.
type Report struct {
	Datasets map[string]Totals

	// OrphanLines counts order lines whose order is missing from sales_per_order.
	OrphanLines int64

	// Mismatches lists every failed check; empty when the set is consistent.
	Mismatches []string
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Verify checks that every Gold dataset and order_lines under
// <outputDir>/parquet carry the same revenue and quantity totals and that
// every order line belongs to an order in sales_per_order. A failed check
// returns the report with an ErrVerification error.
func Verify(ctx context.Context, outputDir string) (*Report, error) {
	log := logging.ForStage(ctx, "verify")

	db, err := store.OpenMemory()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	datasets := append([]string{defaults.DatasetOrderLines}, defaults.GoldDatasets...)
	table := func(name string) string {
		path := filepath.ToSlash(filepath.Join(outputDir, "parquet", name+".parquet"))
		return "read_parquet(" + store.QuoteLiteral(path) + ")"
	}

	report := &Report{Datasets: make(map[string]Totals, len(datasets))}
	for _, name := range datasets {
		var rows, quantity int64
		var revenue string

		query := fmt.Sprintf(`
			SELECT
				count(*),
				CAST(coalesce(sum(revenue), 0) AS VARCHAR),
				CAST(coalesce(sum(quantity), 0) AS BIGINT)
			FROM %s`, table(name))

		if err := db.QueryRowContext(ctx, query).Scan(&rows, &revenue, &quantity); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rev, err := decimal.NewFromString(revenue)
		if err != nil {
			return nil, fmt.Errorf("%s: revenue %q: %w", name, revenue, err)
		}
		report.Datasets[name] = Totals{Rows: rows, Revenue: rev, Quantity: quantity}
	}

	orphans := fmt.Sprintf(`
		SELECT count(*) FROM %s
		WHERE order_id NOT IN (SELECT order_id FROM %s)`,
		table(defaults.DatasetOrderLines), table(defaults.DatasetSalesPerOrder))
	if err := db.QueryRowContext(ctx, orphans).Scan(&report.OrphanLines); err != nil {
		return nil, fmt.Errorf("orphan lines: %w", err)
	}

	base := report.Datasets[defaults.DatasetOrderLines]
	for _, name := range defaults.GoldDatasets {
		got := report.Datasets[name]
		if !got.Revenue.Equal(base.Revenue) {
			report.Mismatches = append(report.Mismatches,
				fmt.Sprintf("%s revenue %s != order_lines %s", name, got.Revenue, base.Revenue))
		}
		if got.Quantity != base.Quantity {
			report.Mismatches = append(report.Mismatches,
				fmt.Sprintf("%s quantity %d != order_lines %d", name, got.Quantity, base.Quantity))
		}
	}
	if report.OrphanLines > 0 {
		report.Mismatches = append(report.Mismatches,
			fmt.Sprintf("%d order lines without a sales_per_order row", report.OrphanLines))
	}

	if !report.OK() {
		log.Error("published datasets disagree", "mismatches", len(report.Mismatches))
		return report, fmt.Errorf("%s: %w", strings.Join(report.Mismatches, "; "), merrors.ErrVerification)
	}

	log.Info("published datasets verified",
		"orders", report.Datasets[defaults.DatasetSalesPerOrder].Rows,
		"lines", base.Rows,
		"revenue", base.Revenue.StringFixed(defaults.MoneyScale),
		"quantity", base.Quantity)
	return report, nil
}

package gold

import (
	"context"
	"fmt"

	defaults "github.com/xtxerr/medallion/config"
	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/schema"
	"github.com/xtxerr/medallion/internal/storage/parquet"
)

// Stats summarizes a Gold run.
type Stats struct {
	Lines       int
	Orders      int
	Rows        map[string]int
	OrderValues Summary
}

// Run reads the Silver order lines and the Bronze orders of paths and writes
// every Gold dataset under paths.GoldDir.
func Run(ctx context.Context, paths config.Paths, opts parquet.Options) (*Stats, error) {
	log := logging.ForStage(ctx, "gold")

	lineRows, err := parquet.ReadFile[parquet.OrderLineRow](paths.SilverOrderLines, schema.OrderLines)
	if err != nil {
		return nil, fmt.Errorf("read silver order lines: %w", err)
	}
	orderRows, err := parquet.ReadFile[parquet.OrderRow](paths.BronzeOrders, schema.Orders)
	if err != nil {
		return nil, fmt.Errorf("read bronze orders: %w", err)
	}

	lines := parquet.FromRows(lineRows, parquet.RowToOrderLine)
	orders := parquet.FromRows(orderRows, parquet.RowToOrder)
	ds := Aggregate(lines, orders)

	if err := Write(ctx, paths, ds, opts); err != nil {
		return nil, err
	}

	stats := &Stats{
		Lines:  len(lines),
		Orders: len(orders),
		Rows: map[string]int{
			defaults.DatasetSalesByDay:     len(ds.ByDay),
			defaults.DatasetSalesByMonth:   len(ds.ByMonth),
			defaults.DatasetSalesByYear:    len(ds.ByYear),
			defaults.DatasetSalesByProduct: len(ds.ByProduct),
			defaults.DatasetSalesPerOrder:  len(ds.PerOrder),
		},
		OrderValues: OrderValues(ds),
	}

	ov := stats.OrderValues
	log.Info("gold datasets written",
		"lines", stats.Lines,
		"orders", stats.Orders,
		"days", len(ds.ByDay),
		"products", len(ds.ByProduct))
	log.Info("order value distribution",
		"orders", ov.Count,
		"revenue", ov.Sum.StringFixed(defaults.MoneyScale),
		"p50", ov.P50,
		"p90", ov.P90,
		"p99", ov.P99)

	return stats, nil
}

// Write persists the five datasets under paths.GoldDir.
func Write(ctx context.Context, paths config.Paths, ds *Datasets, opts parquet.Options) error {
	steps := []struct {
		name  string
		write func(path string) error
	}{
		{defaults.DatasetSalesByDay, func(p string) error {
			return writeTable(p, ds.ByDay, parquet.SalesByDayToRow, opts)
		}},
		{defaults.DatasetSalesByMonth, func(p string) error {
			return writeTable(p, ds.ByMonth, parquet.SalesByMonthToRow, opts)
		}},
		{defaults.DatasetSalesByYear, func(p string) error {
			return writeTable(p, ds.ByYear, parquet.SalesByYearToRow, opts)
		}},
		{defaults.DatasetSalesByProduct, func(p string) error {
			return writeTable(p, ds.ByProduct, parquet.SalesByProductToRow, opts)
		}},
		{defaults.DatasetSalesPerOrder, func(p string) error {
			return writeTable(p, ds.PerOrder, parquet.SalesPerOrderToRow, opts)
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.write(paths.GoldTable(s.name)); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func writeTable[M, R any](path string, items []M, conv func(*M) (R, error), opts parquet.Options) error {
	rows, err := parquet.ToRows(items, conv)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, merrors.ErrLayerWrite)
	}
	return parquet.WriteFile(path, rows, opts)
}

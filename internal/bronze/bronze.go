package bronze

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/model"
	"github.com/xtxerr/medallion/internal/storage/parquet"
)

// Options configures an ingest.
type Options struct {
	// Delimiter separates fields in both feeds. Zero sniffs it per feed.
	Delimiter rune

	// Parquet configures the Bronze table files.
	Parquet parquet.Options

	// IngestedAt stamps every Bronze row. Zero means time.Now.
	IngestedAt time.Time
}

// Stats summarizes one ingest.
type Stats struct {
	Orders         int
	Prices         int
	CatalogPresent bool
	OrdersDropped  *merrors.Counter
	PricesDropped  *merrors.Counter
	OrdersPath     string
	ProductsPath   string // empty when the price feed was absent
	IngestedAtMs   int64
}

// Run ingests both feeds and writes the Bronze partitions named in paths.
// Both feeds are read completely before anything is written.
func Run(ctx context.Context, paths config.Paths, opts Options) (*Stats, error) {
	log := logging.ForStage(ctx, "bronze")

	ingestedAt := opts.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now()
	}
	stats := &Stats{
		OrdersDropped: merrors.NewCounter(),
		PricesDropped: merrors.NewCounter(),
		IngestedAtMs:  ingestedAt.UnixMilli(),
	}

	orders, err := readOrdersFile(paths.OrdersFeed, opts.Delimiter, stats.OrdersDropped)
	if err != nil {
		return nil, err
	}
	stats.Orders = len(orders)

	prices, err := readPricesFile(paths.ProductsFeed, opts.Delimiter, stats.PricesDropped)
	switch {
	case merrors.Is(err, merrors.ErrOptionalInputAbsent):
		log.Warn("price feed absent, revenue will be zero", "path", paths.ProductsFeed)
	case err != nil:
		return nil, err
	default:
		stats.CatalogPresent = true
		stats.Prices = len(prices)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orderRows := make([]parquet.OrderRow, len(orders))
	for i := range orders {
		orderRows[i] = parquet.OrderToRow(&orders[i], stats.IngestedAtMs)
	}
	if err := parquet.WriteFile(paths.BronzeOrders, orderRows, opts.Parquet); err != nil {
		return nil, err
	}
	stats.OrdersPath = paths.BronzeOrders

	if stats.CatalogPresent {
		productRows, err := parquet.ToRows(prices, func(p *model.ProductPrice) (parquet.ProductRow, error) {
			return parquet.ProductToRow(p, stats.IngestedAtMs)
		})
		if err != nil {
			return nil, fmt.Errorf("products: %w", err)
		}
		if err := parquet.WriteFile(paths.BronzeProducts, productRows, opts.Parquet); err != nil {
			return nil, err
		}
		stats.ProductsPath = paths.BronzeProducts
	} else if err := removeStale(paths.BronzeProducts); err != nil {
		return nil, fmt.Errorf("remove stale products table: %v: %w", err, merrors.ErrLayerWrite)
	}

	log.Info("bronze ingested",
		"orders", stats.Orders,
		"prices", stats.Prices,
		"catalog", stats.CatalogPresent,
		"partition", paths.IngestionDate)
	if n := stats.OrdersDropped.Total(); n > 0 {
		log.Warn("order rows dropped", "count", n, "reasons", stats.OrdersDropped.String())
	}
	if n := stats.PricesDropped.Total(); n > 0 {
		log.Warn("price rows dropped", "count", n, "reasons", stats.PricesDropped.String())
	}

	return stats, nil
}

func readOrdersFile(path string, delimiter rune, dropped *merrors.Counter) ([]model.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("orders feed %s: %v: %w", path, err, merrors.ErrMissingRequiredInput)
	}
	defer f.Close()

	orders, err := ReadOrders(f, delimiter, dropped)
	if err != nil {
		if merrors.Is(err, merrors.ErrSchemaMismatch) {
			return nil, fmt.Errorf("orders feed %s: %w", path, err)
		}
		return nil, fmt.Errorf("orders feed %s: %v: %w", path, err, merrors.ErrMissingRequiredInput)
	}
	return orders, nil
}

// readPricesFile returns ErrOptionalInputAbsent when path is empty or does
// not exist. A feed that exists but cannot be read is an error.
func readPricesFile(path string, delimiter rune, dropped *merrors.Counter) ([]model.ProductPrice, error) {
	if path == "" {
		return nil, merrors.ErrOptionalInputAbsent
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("price feed %s: %w", path, merrors.ErrOptionalInputAbsent)
	}
	if err != nil {
		return nil, fmt.Errorf("price feed %s: %w", path, err)
	}
	defer f.Close()

	prices, err := ReadPrices(f, delimiter, dropped)
	if err != nil {
		return nil, fmt.Errorf("price feed %s: %w", path, err)
	}
	return prices, nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

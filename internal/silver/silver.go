// Package silver turns Bronze orders into priced order lines.
//
// Every valid Products entry of an order becomes one OrderLine. Prices are
// looked up by ProductID in the Bronze price table; a missing table or an
// unmatched ProductID yields a zero price and a null name.
package silver

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/model"
	"github.com/xtxerr/medallion/internal/schema"
	"github.com/xtxerr/medallion/internal/storage/parquet"
)

// Drop reasons counted while exploding orders.
const (
	DropMissingProductID = "missing_product_id"
	DropMissingQuantity  = "missing_quantity"
	DropNegativeQuantity = "negative_quantity"
)

// Catalog resolves prices by ProductID. The first row of a ProductID in feed
// order supplies the price; the first row with a non-null name supplies the
// name.
type Catalog struct {
	prices map[string]decimal.Decimal
	names  map[string]string
}

// NewCatalog builds a catalog from price rows in feed order. A nil catalog
// matches nothing.
func NewCatalog(prices []model.ProductPrice) *Catalog {
	c := &Catalog{
		prices: make(map[string]decimal.Decimal, len(prices)),
		names:  make(map[string]string, len(prices)),
	}
	for _, p := range prices {
		if _, ok := c.prices[p.ProductID]; !ok {
			c.prices[p.ProductID] = p.UnitPrice
		}
		if p.ProductName == nil {
			continue
		}
		if _, ok := c.names[p.ProductID]; !ok {
			c.names[p.ProductID] = *p.ProductName
		}
	}
	return c
}

// Lookup returns the price and name of id. ok is false when id is unknown.
func (c *Catalog) Lookup(id string) (price decimal.Decimal, name *string, ok bool) {
	if c == nil {
		return decimal.Zero, nil, false
	}
	price, ok = c.prices[id]
	if !ok {
		return decimal.Zero, nil, false
	}
	if n, has := c.names[id]; has {
		name = &n
	}
	return price, name, true
}

// Len returns the number of distinct products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.prices)
}

// Result is the outcome of a transform.
type Result struct {
	Lines     []model.OrderLine
	Unmatched int
	Dropped   *merrors.Counter
}

// Transform explodes orders into order lines priced from catalog, in
// (OrderID, line position) order. A nil catalog prices every line at zero.
func Transform(orders []model.Order, catalog *Catalog) *Result {
	res := &Result{Dropped: merrors.NewCounter()}

	for _, o := range orders {
		for i, item := range o.Products {
			if reason := dropReason(item); reason != "" {
				res.Dropped.Add(reason)
				continue
			}

			price, name, ok := catalog.Lookup(*item.ProductID)
			if !ok {
				res.Unmatched++
			}

			res.Lines = append(res.Lines, model.OrderLine{
				OrderID:     o.OrderID,
				OrderDate:   o.OrderDate,
				CustomerID:  o.CustomerID,
				LineNo:      int32(i),
				ProductID:   *item.ProductID,
				ProductName: name,
				Quantity:    *item.Quantity,
				UnitPrice:   price,
				Revenue:     price.Mul(decimal.NewFromInt(*item.Quantity)),
			})
		}
	}

	model.SortOrderLines(res.Lines)
	return res
}

// dropReason returns why item cannot become an order line, or "".
func dropReason(item model.LineItem) string {
	switch {
	case item.ProductID == nil:
		return DropMissingProductID
	case item.Quantity == nil:
		return DropMissingQuantity
	case *item.Quantity < 0:
		return DropNegativeQuantity
	}
	return ""
}

// Stats summarizes a Silver run.
type Stats struct {
	Orders         int
	Lines          int
	Unmatched      int
	CatalogPresent bool
	Dropped        *merrors.Counter
}

// Run reads the Bronze partition of paths, transforms it and writes the
// Silver order_lines table.
func Run(ctx context.Context, paths config.Paths, opts parquet.Options) (*Stats, error) {
	log := logging.ForStage(ctx, "silver")

	orderRows, err := parquet.ReadFile[parquet.OrderRow](paths.BronzeOrders, schema.Orders)
	if err != nil {
		return nil, fmt.Errorf("read bronze orders: %w", err)
	}
	orders := parquet.FromRows(orderRows, parquet.RowToOrder)

	catalog, err := readCatalog(paths.BronzeProducts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := Transform(orders, catalog)

	rows, err := parquet.ToRows(res.Lines, parquet.OrderLineToRow)
	if err != nil {
		return nil, fmt.Errorf("order lines: %v: %w", err, merrors.ErrLayerWrite)
	}
	if err := parquet.WriteFile(paths.SilverOrderLines, rows, opts); err != nil {
		return nil, err
	}

	stats := &Stats{
		Orders:         len(orders),
		Lines:          len(res.Lines),
		Unmatched:      res.Unmatched,
		CatalogPresent: catalog != nil,
		Dropped:        res.Dropped,
	}

	log.Info("silver order lines written",
		"orders", stats.Orders,
		"lines", stats.Lines,
		"catalog", catalog != nil,
		"products", catalog.Len(),
		"unmatched", stats.Unmatched)
	if n := res.Dropped.Total(); n > 0 {
		log.Warn("product entries dropped", "count", n, "reasons", res.Dropped.String())
	}

	return stats, nil
}

// readCatalog returns nil when the price table does not exist.
func readCatalog(path string) (*Catalog, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[parquet.ProductRow](path, schema.Products)
	if err != nil {
		return nil, fmt.Errorf("read bronze products: %w", err)
	}
	return NewCatalog(parquet.FromRows(rows, parquet.RowToProduct)), nil
}

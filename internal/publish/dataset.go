package publish

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	defaults "github.com/xtxerr/medallion/config"
	"github.com/xtxerr/medallion/internal/config"
	"github.com/xtxerr/medallion/internal/model"
	"github.com/xtxerr/medallion/internal/schema"
	"github.com/xtxerr/medallion/internal/storage/parquet"
)

// Dataset is one published table in publication order. Each row holds one
// cell per column of Table: int32, int64, model.Date, decimal.Decimal or
// string, with nil for null.
type Dataset struct {
	Table schema.Table
	Rows  [][]any

	writeParquet func(path string, opts parquet.Options) error
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.Table.Name
}

// WriteParquet writes the dataset as a Parquet table.
func (d *Dataset) WriteParquet(path string, opts parquet.Options) error {
	return d.writeParquet(path, opts)
}

func newDataset[M, R any](t schema.Table, items []M, cells func(*M) []any, conv func(*M) (R, error)) Dataset {
	rows := make([][]any, len(items))
	for i := range items {
		rows[i] = cells(&items[i])
	}
	return Dataset{
		Table: t,
		Rows:  rows,
		writeParquet: func(path string, opts parquet.Options) error {
			out, err := parquet.ToRows(items, conv)
			if err != nil {
				return err
			}
			return parquet.WriteFile(path, out, opts)
		},
	}
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// =============================================================================
// Dataset constructors
// =============================================================================

// SalesByDay builds the sales_by_day dataset.
func SalesByDay(rows []model.SalesByDay) Dataset {
	return newDataset(schema.SalesByDay, rows, func(r *model.SalesByDay) []any {
		return []any{r.Date, r.Revenue, r.Quantity}
	}, parquet.SalesByDayToRow)
}

// SalesByMonth builds the sales_by_month dataset.
func SalesByMonth(rows []model.SalesByMonth) Dataset {
	return newDataset(schema.SalesByMonth, rows, func(r *model.SalesByMonth) []any {
		return []any{int32(r.Year), int32(r.Month), r.Revenue, r.Quantity}
	}, parquet.SalesByMonthToRow)
}

// SalesByYear builds the sales_by_year dataset.
func SalesByYear(rows []model.SalesByYear) Dataset {
	return newDataset(schema.SalesByYear, rows, func(r *model.SalesByYear) []any {
		return []any{int32(r.Year), r.Revenue, r.Quantity}
	}, parquet.SalesByYearToRow)
}

// SalesByProduct builds the sales_by_product dataset.
func SalesByProduct(rows []model.SalesByProduct) Dataset {
	return newDataset(schema.SalesByProduct, rows, func(r *model.SalesByProduct) []any {
		return []any{r.ProductID, nullable(r.ProductName), r.Revenue, r.Quantity}
	}, parquet.SalesByProductToRow)
}

// SalesPerOrder builds the sales_per_order dataset.
func SalesPerOrder(rows []model.SalesPerOrder) Dataset {
	return newDataset(schema.SalesPerOrder, rows, func(r *model.SalesPerOrder) []any {
		return []any{r.OrderID, r.OrderDate, r.Revenue, r.Quantity}
	}, parquet.SalesPerOrderToRow)
}

// OrderLines builds the order_lines dataset.
func OrderLines(lines []model.OrderLine) Dataset {
	return newDataset(schema.OrderLines, lines, func(l *model.OrderLine) []any {
		return []any{
			l.OrderID, l.OrderDate, nullable(l.CustomerID), l.LineNo, l.ProductID,
			nullable(l.ProductName), l.Quantity, l.UnitPrice, l.Revenue,
		}
	}, parquet.OrderLineToRow)
}

// =============================================================================
// Loading from the lake
// =============================================================================

// Load reads the Gold datasets and the Silver order lines named in paths,
// in publication order.
func Load(paths config.Paths) ([]Dataset, error) {
	day, err := parquet.ReadFile[parquet.SalesByDayRow](paths.GoldTable(defaults.DatasetSalesByDay), schema.SalesByDay)
	if err != nil {
		return nil, err
	}
	month, err := parquet.ReadFile[parquet.SalesByMonthRow](paths.GoldTable(defaults.DatasetSalesByMonth), schema.SalesByMonth)
	if err != nil {
		return nil, err
	}
	year, err := parquet.ReadFile[parquet.SalesByYearRow](paths.GoldTable(defaults.DatasetSalesByYear), schema.SalesByYear)
	if err != nil {
		return nil, err
	}
	product, err := parquet.ReadFile[parquet.SalesByProductRow](paths.GoldTable(defaults.DatasetSalesByProduct), schema.SalesByProduct)
	if err != nil {
		return nil, err
	}
	perOrder, err := parquet.ReadFile[parquet.SalesPerOrderRow](paths.GoldTable(defaults.DatasetSalesPerOrder), schema.SalesPerOrder)
	if err != nil {
		return nil, err
	}
	lines, err := parquet.ReadFile[parquet.OrderLineRow](paths.SilverOrderLines, schema.OrderLines)
	if err != nil {
		return nil, err
	}

	byDay := parquet.FromRows(day, parquet.RowToSalesByDay)
	byMonth := parquet.FromRows(month, parquet.RowToSalesByMonth)
	byYear := parquet.FromRows(year, parquet.RowToSalesByYear)
	byProduct := parquet.FromRows(product, parquet.RowToSalesByProduct)
	byOrder := parquet.FromRows(perOrder, parquet.RowToSalesPerOrder)
	orderLines := parquet.FromRows(lines, parquet.RowToOrderLine)

	model.SortSalesByDay(byDay)
	model.SortSalesByMonth(byMonth)
	model.SortSalesByYear(byYear)
	model.SortSalesByProduct(byProduct)
	model.SortSalesPerOrder(byOrder)
	model.SortOrderLines(orderLines)

	return []Dataset{
		SalesByDay(byDay),
		SalesByMonth(byMonth),
		SalesByYear(byYear),
		SalesByProduct(byProduct),
		SalesPerOrder(byOrder),
		OrderLines(orderLines),
	}, nil
}

// =============================================================================
// Cell rendering
// =============================================================================

// FormatCell renders a cell as text: dates as YYYY-MM-DD, amounts with
// exactly four fractional digits, null as "".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case model.Date:
		return x.String()
	case decimal.Decimal:
		return model.FormatMoney(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// dbValue converts a cell to a database/sql argument. Dates and amounts are
// passed as text.
func dbValue(v any) any {
	switch x := v.(type) {
	case model.Date, decimal.Decimal:
		return FormatCell(x)
	default:
		return v
	}
}

func dbRows(d *Dataset) [][]any {
	out := make([][]any, len(d.Rows))
	for i, row := range d.Rows {
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = dbValue(v)
		}
		out[i] = args
	}
	return out
}

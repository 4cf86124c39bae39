package parquet

import (
	"fmt"

	"github.com/xtxerr/medallion/internal/model"
)

// Money columns are int64 counts of 10^-4 units annotated as DECIMAL(18,4);
// the tag must agree with config.MoneyScale and config.MoneyPrecision.

// LineItemRow is one Products entry of an OrderRow.
type LineItemRow struct {
	ProductID *string `parquet:"product_id"`
	Quantity  *int64  `parquet:"quantity"`
}

// OrderRow is the Bronze orders table row.
type OrderRow struct {
	OrderID      string        `parquet:"order_id"`
	OrderDate    int32         `parquet:"order_date,date"`
	CustomerID   *string       `parquet:"customer_id"`
	Products     []LineItemRow `parquet:"products"`
	IngestedAtMs int64         `parquet:"ingested_at_ms"`
}

// ProductRow is the Bronze products table row.
type ProductRow struct {
	ProductID    string  `parquet:"product_id"`
	UnitPrice    int64   `parquet:"unit_price,decimal(4:18)"`
	ProductName  *string `parquet:"product_name"`
	IngestedAtMs int64   `parquet:"ingested_at_ms"`
}

// OrderLineRow is the Silver order_lines table row.
type OrderLineRow struct {
	OrderID     string  `parquet:"order_id"`
	OrderDate   int32   `parquet:"order_date,date"`
	CustomerID  *string `parquet:"customer_id"`
	LineNo      int32   `parquet:"line_no"`
	ProductID   string  `parquet:"product_id"`
	ProductName *string `parquet:"product_name"`
	Quantity    int64   `parquet:"quantity"`
	UnitPrice   int64   `parquet:"unit_price,decimal(4:18)"`
	Revenue     int64   `parquet:"revenue,decimal(4:18)"`
}

// SalesByDayRow is the sales_by_day table row.
type SalesByDayRow struct {
	Date     int32 `parquet:"date,date"`
	Revenue  int64 `parquet:"revenue,decimal(4:18)"`
	Quantity int64 `parquet:"quantity"`
}

// SalesByMonthRow is the sales_by_month table row.
type SalesByMonthRow struct {
	Year     int32 `parquet:"year"`
	Month    int32 `parquet:"month"`
	Revenue  int64 `parquet:"revenue,decimal(4:18)"`
	Quantity int64 `parquet:"quantity"`
}

// SalesByYearRow is the sales_by_year table row.
type SalesByYearRow struct {
	Year     int32 `parquet:"year"`
	Revenue  int64 `parquet:"revenue,decimal(4:18)"`
	Quantity int64 `parquet:"quantity"`
}

// SalesByProductRow is the sales_by_product table row.
type SalesByProductRow struct {
	ProductID   string  `parquet:"product_id"`
	ProductName *string `parquet:"product_name"`
	Revenue     int64   `parquet:"revenue,decimal(4:18)"`
	Quantity    int64   `parquet:"quantity"`
}

// SalesPerOrderRow is the sales_per_order table row.
type SalesPerOrderRow struct {
	OrderID   string `parquet:"order_id"`
	OrderDate int32  `parquet:"order_date,date"`
	Revenue   int64  `parquet:"revenue,decimal(4:18)"`
	Quantity  int64  `parquet:"quantity"`
}

// =============================================================================
// Bronze conversions
// =============================================================================

// OrderToRow converts an Order to an OrderRow.
func OrderToRow(o *model.Order, ingestedAtMs int64) OrderRow {
	items := make([]LineItemRow, len(o.Products))
	for i, li := range o.Products {
		items[i] = LineItemRow{ProductID: li.ProductID, Quantity: li.Quantity}
	}
	return OrderRow{
		OrderID:      o.OrderID,
		OrderDate:    int32(o.OrderDate),
		CustomerID:   o.CustomerID,
		Products:     items,
		IngestedAtMs: ingestedAtMs,
	}
}

// RowToOrder converts an OrderRow to an Order.
func RowToOrder(r *OrderRow) model.Order {
	items := make([]model.LineItem, len(r.Products))
	for i, li := range r.Products {
		items[i] = model.LineItem{ProductID: li.ProductID, Quantity: li.Quantity}
	}
	return model.Order{
		OrderID:    r.OrderID,
		OrderDate:  model.Date(r.OrderDate),
		CustomerID: r.CustomerID,
		Products:   items,
	}
}

// ProductToRow converts a ProductPrice to a ProductRow.
func ProductToRow(p *model.ProductPrice, ingestedAtMs int64) (ProductRow, error) {
	price, err := model.MoneyToUnscaled(p.UnitPrice)
	if err != nil {
		return ProductRow{}, fmt.Errorf("product %s: %w", p.ProductID, err)
	}
	return ProductRow{
		ProductID:    p.ProductID,
		UnitPrice:    price,
		ProductName:  p.ProductName,
		IngestedAtMs: ingestedAtMs,
	}, nil
}

// RowToProduct converts a ProductRow to a ProductPrice.
func RowToProduct(r *ProductRow) model.ProductPrice {
	return model.ProductPrice{
		ProductID:   r.ProductID,
		UnitPrice:   model.MoneyFromUnscaled(r.UnitPrice),
		ProductName: r.ProductName,
	}
}

// =============================================================================
// Silver conversions
// =============================================================================

// OrderLineToRow converts an OrderLine to an OrderLineRow.
func OrderLineToRow(l *model.OrderLine) (OrderLineRow, error) {
	price, err := model.MoneyToUnscaled(l.UnitPrice)
	if err != nil {
		return OrderLineRow{}, fmt.Errorf("order %s line %d: %w", l.OrderID, l.LineNo, err)
	}
	revenue, err := model.MoneyToUnscaled(l.Revenue)
	if err != nil {
		return OrderLineRow{}, fmt.Errorf("order %s line %d: %w", l.OrderID, l.LineNo, err)
	}
	return OrderLineRow{
		OrderID:     l.OrderID,
		OrderDate:   int32(l.OrderDate),
		CustomerID:  l.CustomerID,
		LineNo:      l.LineNo,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		Quantity:    l.Quantity,
		UnitPrice:   price,
		Revenue:     revenue,
	}, nil
}

// RowToOrderLine converts an OrderLineRow to an OrderLine.
func RowToOrderLine(r *OrderLineRow) model.OrderLine {
	return model.OrderLine{
		OrderID:     r.OrderID,
		OrderDate:   model.Date(r.OrderDate),
		CustomerID:  r.CustomerID,
		LineNo:      r.LineNo,
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		UnitPrice:   model.MoneyFromUnscaled(r.UnitPrice),
		Revenue:     model.MoneyFromUnscaled(r.Revenue),
	}
}

// =============================================================================
// Gold conversions
// =============================================================================

func totalsToColumns(t model.Totals) (int64, int64, error) {
	revenue, err := model.MoneyToUnscaled(t.Revenue)
	if err != nil {
		return 0, 0, err
	}
	return revenue, t.Quantity, nil
}

func columnsToTotals(revenue, quantity int64) model.Totals {
	return model.Totals{Revenue: model.MoneyFromUnscaled(revenue), Quantity: quantity}
}

// SalesByDayToRow converts a SalesByDay to a SalesByDayRow.
func SalesByDayToRow(s *model.SalesByDay) (SalesByDayRow, error) {
	rev, qty, err := totalsToColumns(s.Totals)
	if err != nil {
		return SalesByDayRow{}, fmt.Errorf("day %s: %w", s.Date, err)
	}
	return SalesByDayRow{Date: int32(s.Date), Revenue: rev, Quantity: qty}, nil
}

// RowToSalesByDay converts a SalesByDayRow to a SalesByDay.
func RowToSalesByDay(r *SalesByDayRow) model.SalesByDay {
	return model.SalesByDay{Date: model.Date(r.Date), Totals: columnsToTotals(r.Revenue, r.Quantity)}
}

// SalesByMonthToRow converts a SalesByMonth to a SalesByMonthRow.
func SalesByMonthToRow(s *model.SalesByMonth) (SalesByMonthRow, error) {
	rev, qty, err := totalsToColumns(s.Totals)
	if err != nil {
		return SalesByMonthRow{}, fmt.Errorf("month %d-%02d: %w", s.Year, s.Month, err)
	}
	return SalesByMonthRow{Year: int32(s.Year), Month: int32(s.Month), Revenue: rev, Quantity: qty}, nil
}

// RowToSalesByMonth converts a SalesByMonthRow to a SalesByMonth.
func RowToSalesByMonth(r *SalesByMonthRow) model.SalesByMonth {
	return model.SalesByMonth{Year: int(r.Year), Month: int(r.Month), Totals: columnsToTotals(r.Revenue, r.Quantity)}
}

// SalesByYearToRow converts a SalesByYear to a SalesByYearRow.
func SalesByYearToRow(s *model.SalesByYear) (SalesByYearRow, error) {
	rev, qty, err := totalsToColumns(s.Totals)
	if err != nil {
		return SalesByYearRow{}, fmt.Errorf("year %d: %w", s.Year, err)
	}
	return SalesByYearRow{Year: int32(s.Year), Revenue: rev, Quantity: qty}, nil
}

// RowToSalesByYear converts a SalesByYearRow to a SalesByYear.
func RowToSalesByYear(r *SalesByYearRow) model.SalesByYear {
	return model.SalesByYear{Year: int(r.Year), Totals: columnsToTotals(r.Revenue, r.Quantity)}
}

// SalesByProductToRow converts a SalesByProduct to a SalesByProductRow.
func SalesByProductToRow(s *model.SalesByProduct) (SalesByProductRow, error) {
	rev, qty, err := totalsToColumns(s.Totals)
	if err != nil {
		return SalesByProductRow{}, fmt.Errorf("product %s: %w", s.ProductID, err)
	}
	return SalesByProductRow{ProductID: s.ProductID, ProductName: s.ProductName, Revenue: rev, Quantity: qty}, nil
}

// RowToSalesByProduct converts a SalesByProductRow to a SalesByProduct.
func RowToSalesByProduct(r *SalesByProductRow) model.SalesByProduct {
	return model.SalesByProduct{ProductID: r.ProductID, ProductName: r.ProductName, Totals: columnsToTotals(r.Revenue, r.Quantity)}
}

// SalesPerOrderToRow converts a SalesPerOrder to a SalesPerOrderRow.
func SalesPerOrderToRow(s *model.SalesPerOrder) (SalesPerOrderRow, error) {
	rev, qty, err := totalsToColumns(s.Totals)
	if err != nil {
		return SalesPerOrderRow{}, fmt.Errorf("order %s: %w", s.OrderID, err)
	}
	return SalesPerOrderRow{OrderID: s.OrderID, OrderDate: int32(s.OrderDate), Revenue: rev, Quantity: qty}, nil
}

// RowToSalesPerOrder converts a SalesPerOrderRow to a SalesPerOrder.
func RowToSalesPerOrder(r *SalesPerOrderRow) model.SalesPerOrder {
	return model.SalesPerOrder{OrderID: r.OrderID, OrderDate: model.Date(r.OrderDate), Totals: columnsToTotals(r.Revenue, r.Quantity)}
}

// =============================================================================
// Slice helpers
// =============================================================================

// ToRows converts a slice with a fallible per-element conversion.
func ToRows[M, R any](items []M, conv func(*M) (R, error)) ([]R, error) {
	rows := make([]R, len(items))
	for i := range items {
		r, err := conv(&items[i])
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return rows, nil
}

// FromRows converts a slice of rows back to model values.
func FromRows[R, M any](rows []R, conv func(*R) M) []M {
	items := make([]M, len(rows))
	for i := range rows {
		items[i] = conv(&rows[i])
	}
	return items
}

package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Totals is the measure pair every aggregate carries.
type Totals struct {
	Revenue  decimal.Decimal
	Quantity int64
}

// Add accumulates one order line.
func (t *Totals) Add(line OrderLine) {
	t.Revenue = t.Revenue.Add(line.Revenue)
	t.Quantity += line.Quantity
}

// SalesByDay aggregates order lines per order date.
type SalesByDay struct {
	Date Date
	Totals
}

// SalesByMonth aggregates order lines per calendar month.
type SalesByMonth struct {
	Year  int
	Month int
	Totals
}

// SalesByYear aggregates order lines per calendar year.
type SalesByYear struct {
	Year int
	Totals
}

// SalesByProduct aggregates order lines per product.
type SalesByProduct struct {
	ProductID   string
	ProductName *string
	Totals
}

// SalesPerOrder aggregates order lines per order. Orders without lines carry
// zero totals.
type SalesPerOrder struct {
	OrderID   string
	OrderDate Date
	Totals
}

// =============================================================================
// Publication sort orders
// =============================================================================

// SortSalesByDay orders rows ascending by Date.
func SortSalesByDay(rows []SalesByDay) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
}

// SortSalesByMonth orders rows ascending by (Year, Month).
func SortSalesByMonth(rows []SalesByMonth) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Month < rows[j].Month
	})
}

// SortSalesByYear orders rows ascending by Year.
func SortSalesByYear(rows []SalesByYear) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
}

// SortSalesByProduct orders rows ascending by ProductID, see CompareIDs.
func SortSalesByProduct(rows []SalesByProduct) {
	sort.Slice(rows, func(i, j int) bool { return CompareIDs(rows[i].ProductID, rows[j].ProductID) < 0 })
}

// SortSalesPerOrder orders rows ascending by OrderID, see CompareIDs.
func SortSalesPerOrder(rows []SalesPerOrder) {
	sort.Slice(rows, func(i, j int) bool { return CompareIDs(rows[i].OrderID, rows[j].OrderID) < 0 })
}

// SortOrderLines orders lines ascending by (OrderID, LineNo).
func SortOrderLines(lines []OrderLine) {
	sort.Slice(lines, func(i, j int) bool {
		if c := CompareIDs(lines[i].OrderID, lines[j].OrderID); c != 0 {
			return c < 0
		}
		return lines[i].LineNo < lines[j].LineNo
	})
}

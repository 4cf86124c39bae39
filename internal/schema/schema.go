// Package schema declares the typed column list of every persisted dataset
// and checks Parquet files against them at layer boundaries.
package schema

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
	defaults "github.com/xtxerr/medallion/config"
	"github.com/xtxerr/medallion/internal/errors"
)

// Type is the logical type of a column.
type Type int

const (
	TypeInt32 Type = iota
	TypeInt64
	TypeDate
	TypeDecimal
	TypeString
	TypeLineItems // repeated group of {product_id, quantity}
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeDate:
		return "date"
	case TypeDecimal:
		return fmt.Sprintf("decimal(%d,%d)", defaults.MoneyPrecision, defaults.MoneyScale)
	case TypeString:
		return "string"
	case TypeLineItems:
		return "line_items"
	default:
		return "unknown"
	}
}

// Column describes one column.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
}

// Table is the ordered column list of a dataset.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// =============================================================================
// Dataset schemas
// =============================================================================

var (
	Orders = Table{Name: defaults.DatasetOrders, Columns: []Column{
		{Name: "order_id", Type: TypeString},
		{Name: "order_date", Type: TypeDate},
		{Name: "customer_id", Type: TypeString, Nullable: true},
		{Name: "products", Type: TypeLineItems},
		{Name: "ingested_at_ms", Type: TypeInt64},
	}}

	Products = Table{Name: defaults.DatasetProducts, Columns: []Column{
		{Name: "product_id", Type: TypeString},
		{Name: "unit_price", Type: TypeDecimal},
		{Name: "product_name", Type: TypeString, Nullable: true},
		{Name: "ingested_at_ms", Type: TypeInt64},
	}}

	OrderLines = Table{Name: defaults.DatasetOrderLines, Columns: []Column{
		{Name: "order_id", Type: TypeString},
		{Name: "order_date", Type: TypeDate},
		{Name: "customer_id", Type: TypeString, Nullable: true},
		{Name: "line_no", Type: TypeInt32},
		{Name: "product_id", Type: TypeString},
		{Name: "product_name", Type: TypeString, Nullable: true},
		{Name: "quantity", Type: TypeInt64},
		{Name: "unit_price", Type: TypeDecimal},
		{Name: "revenue", Type: TypeDecimal},
	}}

	SalesByDay = Table{Name: defaults.DatasetSalesByDay, Columns: []Column{
		{Name: "date", Type: TypeDate},
		{Name: "revenue", Type: TypeDecimal},
		{Name: "quantity", Type: TypeInt64},
	}}

	SalesByMonth = Table{Name: defaults.DatasetSalesByMonth, Columns: []Column{
		{Name: "year", Type: TypeInt32},
		{Name: "month", Type: TypeInt32},
		{Name: "revenue", Type: TypeDecimal},
		{Name: "quantity", Type: TypeInt64},
	}}

	SalesByYear = Table{Name: defaults.DatasetSalesByYear, Columns: []Column{
		{Name: "year", Type: TypeInt32},
		{Name: "revenue", Type: TypeDecimal},
		{Name: "quantity", Type: TypeInt64},
	}}

	SalesByProduct = Table{Name: defaults.DatasetSalesByProduct, Columns: []Column{
		{Name: "product_id", Type: TypeString},
		{Name: "product_name", Type: TypeString, Nullable: true},
		{Name: "revenue", Type: TypeDecimal},
		{Name: "quantity", Type: TypeInt64},
	}}

	SalesPerOrder = Table{Name: defaults.DatasetSalesPerOrder, Columns: []Column{
		{Name: "order_id", Type: TypeString},
		{Name: "order_date", Type: TypeDate},
		{Name: "revenue", Type: TypeDecimal},
		{Name: "quantity", Type: TypeInt64},
	}}
)

// =============================================================================
// Parquet checks
// =============================================================================

// Check verifies that a Parquet schema carries exactly the table's columns,
// in order, with matching physical and logical types.
func (t Table) Check(s *parquet.Schema) error {
	fields := s.Fields()
	if len(fields) != len(t.Columns) {
		return fmt.Errorf("%s: expected %d columns, found %d: %w",
			t.Name, len(t.Columns), len(fields), errors.ErrSchemaMismatch)
	}

	for i, col := range t.Columns {
		if err := checkField(fields[i], col); err != nil {
			return fmt.Errorf("%s: %w", t.Name, err)
		}
	}
	return nil
}

func checkField(f parquet.Field, col Column) error {
	if f.Name() != col.Name {
		return fmt.Errorf("column %q found where %q expected: %w", f.Name(), col.Name, errors.ErrSchemaMismatch)
	}

	if col.Type == TypeLineItems {
		if f.Leaf() || !f.Repeated() {
			return fmt.Errorf("column %q must be a repeated group: %w", col.Name, errors.ErrSchemaMismatch)
		}
		return checkLineItems(f)
	}

	if !f.Leaf() || f.Repeated() {
		return fmt.Errorf("column %q must be a scalar: %w", col.Name, errors.ErrSchemaMismatch)
	}
	if f.Optional() != col.Nullable {
		return fmt.Errorf("column %q nullability mismatch: %w", col.Name, errors.ErrSchemaMismatch)
	}

	typ := f.Type()
	want := physicalKind(col.Type)
	if typ.Kind() != want {
		return fmt.Errorf("column %q has physical type %s, expected %s: %w",
			col.Name, typ.Kind(), want, errors.ErrSchemaMismatch)
	}

	lt := typ.LogicalType()
	switch col.Type {
	case TypeDate:
		if lt == nil || lt.Date == nil {
			return fmt.Errorf("column %q is not annotated as date: %w", col.Name, errors.ErrSchemaMismatch)
		}
	case TypeDecimal:
		if lt == nil || lt.Decimal == nil || lt.Decimal.Scale != defaults.MoneyScale {
			return fmt.Errorf("column %q is not decimal with scale %d: %w", col.Name, defaults.MoneyScale, errors.ErrSchemaMismatch)
		}
	}
	return nil
}

// lineItemFields is the element layout of a TypeLineItems column.
var lineItemFields = []Column{
	{Name: "product_id", Type: TypeString, Nullable: true},
	{Name: "quantity", Type: TypeInt64, Nullable: true},
}

func checkLineItems(f parquet.Field) error {
	sub := f.Fields()
	if len(sub) != len(lineItemFields) {
		return fmt.Errorf("column %q must have %d fields: %w", f.Name(), len(lineItemFields), errors.ErrSchemaMismatch)
	}
	for i, col := range lineItemFields {
		if sub[i].Name() != col.Name || !sub[i].Leaf() || sub[i].Type().Kind() != physicalKind(col.Type) {
			return fmt.Errorf("column %q field %d must be %s %q: %w", f.Name(), i, col.Type, col.Name, errors.ErrSchemaMismatch)
		}
	}
	return nil
}

func physicalKind(t Type) parquet.Kind {
	switch t {
	case TypeInt32, TypeDate:
		return parquet.Int32
	case TypeInt64, TypeDecimal:
		return parquet.Int64
	default:
		return parquet.ByteArray
	}
}

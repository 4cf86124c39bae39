package parquet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/model"
	"github.com/xtxerr/medallion/internal/schema"
)

func TestRowTypesMatchSchemas(t *testing.T) {
	tests := []struct {
		table schema.Table
		s     *parquet.Schema
	}{
		{schema.Orders, parquet.SchemaOf(new(OrderRow))},
		{schema.Products, parquet.SchemaOf(new(ProductRow))},
		{schema.OrderLines, parquet.SchemaOf(new(OrderLineRow))},
		{schema.SalesByDay, parquet.SchemaOf(new(SalesByDayRow))},
		{schema.SalesByMonth, parquet.SchemaOf(new(SalesByMonthRow))},
		{schema.SalesByYear, parquet.SchemaOf(new(SalesByYearRow))},
		{schema.SalesByProduct, parquet.SchemaOf(new(SalesByProductRow))},
		{schema.SalesPerOrder, parquet.SchemaOf(new(SalesPerOrderRow))},
	}

	for _, tt := range tests {
		if err := tt.table.Check(tt.s); err != nil {
			t.Errorf("%s: %v", tt.table.Name, err)
		}
	}
}

func TestOrderWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.parquet")

	orders := []model.Order{
		{
			OrderID:    "1",
			OrderDate:  model.NewDate(2024, time.January, 5),
			CustomerID: model.StringPtr("C-7"),
			Products: []model.LineItem{
				{ProductID: model.StringPtr("P-10"), Quantity: model.Int64Ptr(2)},
				{Quantity: model.Int64Ptr(1)},
			},
		},
		{
			OrderID:   "A-2",
			OrderDate: model.NewDate(2024, time.February, 1),
		},
	}

	rows := make([]OrderRow, len(orders))
	for i := range orders {
		rows[i] = OrderToRow(&orders[i], 1700000000000)
	}
	if err := WriteFile(path, rows, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	read, err := ReadFile[OrderRow](path, schema.Orders)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(read) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(read))
	}

	o := RowToOrder(&read[0])
	if o.OrderID != "1" || o.OrderDate.String() != "2024-01-05" {
		t.Errorf("unexpected order header: %+v", o)
	}
	if model.Deref(o.CustomerID) != "C-7" {
		t.Errorf("expected customer C-7, got %q", model.Deref(o.CustomerID))
	}
	if len(o.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(o.Products))
	}
	if *o.Products[0].ProductID != "P-10" || *o.Products[0].Quantity != 2 {
		t.Errorf("unexpected first entry: %+v", o.Products[0])
	}
	if o.Products[1].ProductID != nil {
		t.Errorf("expected null product id to survive, got %q", *o.Products[1].ProductID)
	}

	o = RowToOrder(&read[1])
	if o.OrderID != "A-2" {
		t.Errorf("expected order A-2, got %q", o.OrderID)
	}
	if o.CustomerID != nil {
		t.Error("expected null customer")
	}
	if len(o.Products) != 0 {
		t.Errorf("expected empty products, got %d", len(o.Products))
	}
}

func TestDecimalColumnsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.parquet")

	line := model.OrderLine{
		OrderID:   "7",
		OrderDate: model.NewDate(2023, time.December, 31),
		LineNo:    0,
		ProductID: "3",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("0.1"),
		Revenue:   decimal.RequireFromString("0.3"),
	}
	row, err := OrderLineToRow(&line)
	if err != nil {
		t.Fatalf("OrderLineToRow: %v", err)
	}
	if row.Revenue != 3000 {
		t.Errorf("expected unscaled revenue 3000, got %d", row.Revenue)
	}

	if err := WriteFile(path, []OrderLineRow{row}, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	read, err := ReadFile[OrderLineRow](path, schema.OrderLines)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	got := RowToOrderLine(&read[0])
	if !got.Revenue.Equal(line.Revenue) || !got.UnitPrice.Equal(line.UnitPrice) {
		t.Errorf("expected %s/%s, got %s/%s", line.UnitPrice, line.Revenue, got.UnitPrice, got.Revenue)
	}
	if got.ProductName != nil {
		t.Error("expected null product name")
	}
}

func TestReadRejectsSchemaDrift(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales_by_day.parquet")

	rows := []SalesByYearRow{{Year: 2024, Revenue: 10, Quantity: 1}}
	if err := WriteFile(path, rows, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := ReadFile[SalesByDayRow](path, schema.SalesByDay)
	if err == nil {
		t.Fatal("expected schema mismatch")
	}
	if !errors.Is(err, errors.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestWriterReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales_by_year.parquet")

	if err := WriteFile(path, []SalesByYearRow{{Year: 2023, Quantity: 1}}, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := NewWriter[SalesByYearRow](path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write([]SalesByYearRow{{Year: 2024, Quantity: 5}, {Year: 2025, Quantity: 6}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Before Close the previous table is still the visible one.
	read, err := ReadFile[SalesByYearRow](path, schema.SalesByYear)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(read) != 1 || read[0].Year != 2023 {
		t.Fatalf("expected previous table, got %+v", read)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	read, err = ReadFile[SalesByYearRow](path, schema.SalesByYear)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(read) != 2 {
		t.Fatalf("expected new table with 2 rows, got %d", len(read))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the table file, found %d entries", len(entries))
	}
}

func TestWriterAbortKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.parquet")

	if err := WriteFile(path, []SalesByYearRow{{Year: 2023}}, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := NewWriter[SalesByYearRow](path, DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.Abort()

	if err := w.Write([]SalesByYearRow{{Year: 2024}}); err != ErrWriterClosed {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}

	info, err := GetFileInfo(path)
	if err != nil {
		t.Fatalf("GetFileInfo: %v", err)
	}
	if info.NumRows != 1 || info.NumCols != 3 {
		t.Errorf("expected 1 row x 3 cols, got %d x %d", info.NumRows, info.NumCols)
	}
}

func TestEmptyTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.parquet")

	if err := WriteFile(path, []SalesPerOrderRow{}, DefaultOptions()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rows, err := ReadFile[SalesPerOrderRow](path, schema.SalesPerOrder)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := map[string]CompressionType{
		"snappy": CompressionSnappy,
		"zstd":   CompressionZstd,
		"lz4":    CompressionLZ4,
		"gzip":   CompressionGzip,
		"none":   CompressionNone,
		"":       CompressionNone,
		"bogus":  CompressionZstd,
	}
	for in, want := range tests {
		if got := ParseCompressionType(in); got != want {
			t.Errorf("ParseCompressionType(%q) = %d, want %d", in, got, want)
		}
	}
}

package bronze

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/model"
	"github.com/xtxerr/medallion/internal/schema"
	"github.com/xtxerr/medallion/internal/storage/parquet"
)

func TestParseProducts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []model.LineItem
		wantErr bool
	}{
		{"empty", "", []model.LineItem{}, false},
		{"null", "null", []model.LineItem{}, false},
		{"empty array", "[]", []model.LineItem{}, false},
		{
			name:  "json",
			input: `[{"ProductID": 1, "Quantity": 2}, {"ProductID": 7, "Quantity": 0}]`,
			want: []model.LineItem{
				{ProductID: model.StringPtr("1"), Quantity: model.Int64Ptr(2)},
				{ProductID: model.StringPtr("7"), Quantity: model.Int64Ptr(0)},
			},
		},
		{
			name:  "single quotes",
			input: `[{'ProductID': 3, 'Quantity': 4}]`,
			want:  []model.LineItem{{ProductID: model.StringPtr("3"), Quantity: model.Int64Ptr(4)}},
		},
		{
			name:  "integral float and numeric string",
			input: `[{"ProductID": "05", "Quantity": 2.0}, {"ProductID": 6.0, "Quantity": "3"}]`,
			want: []model.LineItem{
				{ProductID: model.StringPtr("5"), Quantity: model.Int64Ptr(2)},
				{ProductID: model.StringPtr("6"), Quantity: model.Int64Ptr(3)},
			},
		},
		{
			name:  "string product id",
			input: `[{'ProductID': 'P-10', 'Quantity': 2}, {"productid": " SKU 7 ", "quantity": 1}]`,
			want: []model.LineItem{
				{ProductID: model.StringPtr("P-10"), Quantity: model.Int64Ptr(2)},
				{ProductID: model.StringPtr("SKU 7"), Quantity: model.Int64Ptr(1)},
			},
		},
		{
			name:  "unusable product id",
			input: `[{"ProductID": "", "Quantity": 1}, {"ProductID": true, "Quantity": 1}]`,
			want:  []model.LineItem{{Quantity: model.Int64Ptr(1)}, {Quantity: model.Int64Ptr(1)}},
		},
		{
			name:  "missing quantity",
			input: `[{"ProductID": 1}]`,
			want:  []model.LineItem{{ProductID: model.StringPtr("1")}},
		},
		{
			name:  "fractional quantity",
			input: `[{"ProductID": 1, "Quantity": 1.5}]`,
			want:  []model.LineItem{{ProductID: model.StringPtr("1")}},
		},
		{
			name:  "python None",
			input: `[{'ProductID': None, 'Quantity': 1}]`,
			want:  []model.LineItem{{Quantity: model.Int64Ptr(1)}},
		},
		{
			name:  "non-object entry",
			input: `[42]`,
			want:  []model.LineItem{{}},
		},
		{"object", `{"ProductID": 1}`, nil, true},
		{"garbage", `not json`, nil, true},
		{"trailing data", `[] []`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProducts(tt.input)
			if tt.wantErr {
				if !merrors.Is(err, merrors.ErrRowValidation) {
					t.Fatalf("expected row validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d items, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if itemString(got[i]) != itemString(tt.want[i]) {
					t.Errorf("item %d: expected %s, got %s", i, itemString(tt.want[i]), itemString(got[i]))
				}
			}
		})
	}
}

func itemString(li model.LineItem) string {
	id, qty := "nil", "nil"
	if li.ProductID != nil {
		id = strconv.Quote(*li.ProductID)
	}
	if li.Quantity != nil {
		qty = strconv.FormatInt(*li.Quantity, 10)
	}
	return "{" + id + " " + qty + "}"
}

func TestSingleToDoubleQuotes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`[{'a': 1}]`, `[{"a": 1}]`},
		{`[{'name': 'it\'s'}]`, `[{"name": "it's"}]`},
		{`[{'name': 'say "hi"'}]`, `[{"name": "say \"hi\""}]`},
		{`[{"a": None}]`, `[{"a": null}]`},
		{`[{'a': 'None'}]`, `[{"a": "None"}]`},
	}

	for _, tt := range tests {
		if got := singleToDoubleQuotes(tt.input); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.input, tt.want, got)
		}
	}
}

func TestReadOrders(t *testing.T) {
	feed := strings.Join([]string{
		"\ufefforderid,OrderDate,products,CustomerID",
		`1,2024-01-15,"[{""ProductID"": 1, ""Quantity"": 2}]",C1`,
		`2,2024-01-16T10:30:00Z,[],`,
		`,2024-01-16,[],C3`,
		` A-1 ,2024-01-16,[],C3`,
		`3,not-a-date,[],C3`,
		`4,2024-01-17,{oops},C4`,
		`1,2024-02-01,[],C5`,
		`01,2024-02-02,[],C6`,
		`5,2024-01-18,,C5`,
		`,,,`,
	}, "\n")

	dropped := merrors.NewCounter()
	orders, err := ReadOrders(strings.NewReader(feed), ',', dropped)
	if err != nil {
		t.Fatalf("ReadOrders: %v", err)
	}

	if len(orders) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(orders))
	}
	if orders[0].OrderID != "1" || orders[0].OrderDate != model.NewDate(2024, time.January, 15) {
		t.Errorf("unexpected first order %+v", orders[0])
	}
	if model.Deref(orders[0].CustomerID) != "C1" {
		t.Errorf("expected customer C1, got %q", model.Deref(orders[0].CustomerID))
	}
	if len(orders[0].Products) != 1 || *orders[0].Products[0].Quantity != 2 {
		t.Errorf("unexpected products %+v", orders[0].Products)
	}
	if orders[1].OrderDate != model.NewDate(2024, time.January, 16) {
		t.Errorf("expected timestamp truncated to 2024-01-16, got %s", orders[1].OrderDate)
	}
	if orders[1].CustomerID != nil {
		t.Errorf("expected null customer, got %q", *orders[1].CustomerID)
	}
	if orders[2].OrderID != "A-1" {
		t.Errorf("expected text order id A-1, got %q", orders[2].OrderID)
	}
	if orders[3].OrderID != "5" || len(orders[3].Products) != 0 {
		t.Errorf("expected order 5 with no products, got %+v", orders[3])
	}

	for reason, want := range map[string]int{
		DropMissingOrderID:  1,
		DropInvalidDate:     1,
		DropInvalidProducts: 1,
		DropDuplicateOrder:  2,
	} {
		if got := dropped.Get(reason); got != want {
			t.Errorf("%s: expected %d drops, got %d", reason, want, got)
		}
	}
}

func TestReadOrdersMissingColumn(t *testing.T) {
	_, err := ReadOrders(strings.NewReader("OrderID,OrderDate\n1,2024-01-01\n"), ',', merrors.NewCounter())
	if !merrors.Is(err, merrors.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "Products") {
		t.Errorf("expected error to name the column, got %v", err)
	}

	_, err = ReadOrders(strings.NewReader(""), ',', merrors.NewCounter())
	if !merrors.Is(err, merrors.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch for empty feed, got %v", err)
	}
}

func TestReadOrdersDelimiter(t *testing.T) {
	feed := "OrderID;OrderDate;Products\n1;2024-03-01;[]\n2;2024-03-02;[]\n3;2024-03-03;[]\n"

	orders, err := ReadOrders(strings.NewReader(feed), ';', merrors.NewCounter())
	if err != nil {
		t.Fatalf("ReadOrders: %v", err)
	}
	if len(orders) != 3 {
		t.Errorf("expected 3 orders with ';', got %d", len(orders))
	}

	orders, err = ReadOrders(strings.NewReader(feed), 0, merrors.NewCounter())
	if err != nil {
		t.Fatalf("ReadOrders auto: %v", err)
	}
	if len(orders) != 3 {
		t.Errorf("expected 3 orders with sniffed delimiter, got %d", len(orders))
	}
}

func TestReadPrices(t *testing.T) {
	feed := strings.Join([]string{
		"productid,UnitPrice,ProductName",
		"1,9.99,Widget",
		"2,0,",
		"1,5.00,Widget B",
		",1.00,NoID",
		"P-7,1.00,Text ID",
		"3,-1,Negative",
		"4,abc,Text",
		"5,1.23456,TooPrecise",
	}, "\n")

	dropped := merrors.NewCounter()
	prices, err := ReadPrices(strings.NewReader(feed), ',', dropped)
	if err != nil {
		t.Fatalf("ReadPrices: %v", err)
	}

	if len(prices) != 4 {
		t.Fatalf("expected 4 prices, got %d", len(prices))
	}
	if prices[0].ProductID != "1" || prices[0].UnitPrice.String() != "9.99" {
		t.Errorf("unexpected first price %+v", prices[0])
	}
	if prices[1].ProductName != nil {
		t.Errorf("expected null name, got %q", *prices[1].ProductName)
	}
	if prices[2].ProductID != "1" || model.Deref(prices[2].ProductName) != "Widget B" {
		t.Errorf("expected duplicate kept in feed order, got %+v", prices[2])
	}

	if prices[3].ProductID != "P-7" {
		t.Errorf("expected text product id kept, got %+v", prices[3])
	}
	if dropped.Get(DropMissingProductID) != 1 {
		t.Errorf("unexpected id drops: %s", dropped)
	}
	if dropped.Get(DropInvalidPrice) != 3 {
		t.Errorf("expected 3 price drops, got %s", dropped)
	}
}

func TestReadPricesMissingPrice(t *testing.T) {
	_, err := ReadPrices(strings.NewReader("ProductID,ProductName\n1,A\n"), ',', merrors.NewCounter())
	if !merrors.Is(err, merrors.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

// =============================================================================
// Run
// =============================================================================

func testPaths(t *testing.T, orders, products string) config.Paths {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Lake.Dir = filepath.Join(dir, "lake")
	cfg.Output.Dir = filepath.Join(dir, "out")
	cfg.Input.Orders = filepath.Join(dir, "orders.csv")
	cfg.Input.Products = filepath.Join(dir, "products.csv")

	if orders != "" {
		if err := os.WriteFile(cfg.Input.Orders, []byte(orders), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if products != "" {
		if err := os.WriteFile(cfg.Input.Products, []byte(products), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg.Paths(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))
}

const ordersFeed = `OrderID,OrderDate,Products
1,2024-01-15,"[{'ProductID': 1, 'Quantity': 2}]"
2,2024-01-16,[]
`

const pricesFeed = `ProductID,Price,ProductName
1,2.50,Widget
`

func TestRun(t *testing.T) {
	paths := testPaths(t, ordersFeed, pricesFeed)
	at := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	stats, err := Run(context.Background(), paths, Options{Delimiter: ',', IngestedAt: at})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Orders != 2 || stats.Prices != 1 || !stats.CatalogPresent {
		t.Errorf("unexpected stats %+v", stats)
	}
	if !strings.Contains(paths.BronzeOrders, "ingestion_date=2024-05-01") {
		t.Errorf("expected partitioned path, got %s", paths.BronzeOrders)
	}

	rows, err := parquet.ReadFile[parquet.OrderRow](paths.BronzeOrders, schema.Orders)
	if err != nil {
		t.Fatalf("read bronze orders: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].IngestedAtMs != at.UnixMilli() {
		t.Errorf("expected ingested_at_ms %d, got %d", at.UnixMilli(), rows[0].IngestedAtMs)
	}
	if len(rows[1].Products) != 0 {
		t.Errorf("expected empty products for order 2, got %v", rows[1].Products)
	}

	products, err := parquet.ReadFile[parquet.ProductRow](paths.BronzeProducts, schema.Products)
	if err != nil {
		t.Fatalf("read bronze products: %v", err)
	}
	if len(products) != 1 || products[0].UnitPrice != 25000 {
		t.Errorf("unexpected products %+v", products)
	}
}

func TestRunWithoutPriceFeed(t *testing.T) {
	paths := testPaths(t, ordersFeed, pricesFeed)
	if _, err := Run(context.Background(), paths, Options{Delimiter: ','}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := os.Stat(paths.BronzeProducts); err != nil {
		t.Fatalf("expected products table after first run: %v", err)
	}

	if err := os.Remove(paths.ProductsFeed); err != nil {
		t.Fatal(err)
	}
	stats, err := Run(context.Background(), paths, Options{Delimiter: ','})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.CatalogPresent || stats.ProductsPath != "" {
		t.Errorf("expected absent catalog, got %+v", stats)
	}
	if _, err := os.Stat(paths.BronzeProducts); !os.IsNotExist(err) {
		t.Errorf("expected stale products table to be removed, got %v", err)
	}
}

func TestRunMissingOrders(t *testing.T) {
	paths := testPaths(t, "", pricesFeed)

	_, err := Run(context.Background(), paths, Options{Delimiter: ','})
	if !merrors.Is(err, merrors.ErrMissingRequiredInput) {
		t.Fatalf("expected ErrMissingRequiredInput, got %v", err)
	}
	if _, err := os.Stat(paths.LakeDir); !os.IsNotExist(err) {
		t.Errorf("expected nothing written, got %v", err)
	}
}

func TestRunBadPriceHeader(t *testing.T) {
	paths := testPaths(t, ordersFeed, "ProductID,Cost\n1,2\n")

	_, err := Run(context.Background(), paths, Options{Delimiter: ','})
	if !merrors.Is(err, merrors.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if _, err := os.Stat(paths.BronzeOrders); !os.IsNotExist(err) {
		t.Errorf("expected no orders table, got %v", err)
	}
}

// Package config provides configuration defaults for the medallion
// pipeline.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or command line flags.
package config

// =============================================================================
// Input Defaults
// =============================================================================

const (
	// DefaultOrdersPath is the orders feed read when none is configured.
	// Override via config: input.orders
	DefaultOrdersPath = "data/orders.csv"

	// DefaultProductsPath is the optional price feed.
	// A missing file at this path disables revenue computation.
	// Override via config: input.products
	DefaultProductsPath = "data/products.csv"

	// DefaultDelimiter separates fields in both input feeds.
	// The value "auto" sniffs the delimiter from the file content.
	// Override via config: input.delimiter
	DefaultDelimiter = ","

	// DelimiterAuto enables delimiter sniffing.
	DelimiterAuto = "auto"
)

// =============================================================================
// Layout Defaults
// =============================================================================

const (
	// DefaultLakeDir is the root of the bronze/silver/gold layers.
	// Override via config: lake.dir
	DefaultLakeDir = "datalake"

	// DefaultOutputDir receives the published dataset set.
	// Override via config: output.dir
	DefaultOutputDir = "output"

	// PartitionPrefix names Bronze ingestion partitions (ingestion_date=YYYY-MM-DD).
	PartitionPrefix = "ingestion_date="
)

// =============================================================================
// Publish Defaults
// =============================================================================

const (
	// DatabaseDuckDB selects the DuckDB embedded database.
	DatabaseDuckDB = "duckdb"

	// DatabaseSQLite selects the SQLite embedded database.
	DatabaseSQLite = "sqlite"

	// DefaultDatabaseDriver is the embedded database engine.
	// Override via config: output.database.driver
	DefaultDatabaseDriver = DatabaseDuckDB

	// DefaultDuckDBFile is the database file name for DuckDB.
	DefaultDuckDBFile = "sales.duckdb"

	// DefaultSQLiteFile is the database file name for SQLite.
	DefaultSQLiteFile = "sales.db"

	// DefaultWorkbookFile is the optional spreadsheet export.
	DefaultWorkbookFile = "sales.xlsx"

	// DefaultCompression is the Parquet codec used for every table.
	// Override via config: parquet.compression
	DefaultCompression = "zstd"
)

// =============================================================================
// Money
// =============================================================================

const (
	// MoneyScale is the number of fractional digits kept for prices and
	// revenue. Prices needing more digits are rejected rather than rounded.
	MoneyScale = 4

	// MoneyPrecision is the total number of digits of a stored amount.
	MoneyPrecision = 18
)

// =============================================================================
// Dataset Names
// =============================================================================

const (
	DatasetOrders         = "orders"
	DatasetProducts       = "products"
	DatasetOrderLines     = "order_lines"
	DatasetSalesByDay     = "sales_by_day"
	DatasetSalesByMonth   = "sales_by_month"
	DatasetSalesByYear    = "sales_by_year"
	DatasetSalesByProduct = "sales_by_product"
	DatasetSalesPerOrder  = "sales_per_order"
)

// GoldDatasets lists the aggregate datasets in publication order.
var GoldDatasets = []string{
	DatasetSalesByDay,
	DatasetSalesByMonth,
	DatasetSalesByYear,
	DatasetSalesByProduct,
	DatasetSalesPerOrder,
}

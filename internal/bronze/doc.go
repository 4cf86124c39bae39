// Package bronze ingests the source feeds into the Bronze layer.
//
// The orders feed is required; the price feed is optional. Both are
// delimited text with a header row. Rows that cannot be ingested are
// dropped and counted per reason; only a missing orders feed, a missing
// required column, or a failed table write aborts the stage.
//
// Layout:
//
//	<lake>/bronze/orders/ingestion_date=YYYY-MM-DD/orders.parquet
//	<lake>/bronze/products/ingestion_date=YYYY-MM-DD/products.parquet
package bronze

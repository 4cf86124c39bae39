// Package publish writes the Gold datasets and Silver's order lines to the
// output directory in every serving format.
//
// Layout of the output directory:
//
//	parquet/<dataset>.parquet
//	csv/<dataset>.csv
//	sales.duckdb or sales.db
//	xlsx/sales.xlsx            (optional)
//
// The whole set is written into a staging directory next to the output
// directory and swapped into place once every sink has succeeded. A failed
// publish leaves the previous output set as it was.
package publish

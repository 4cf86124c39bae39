// Package parquet implements Parquet table reading and writing for every
// pipeline layer.
//
// The package provides:
//   - Writer/Reader generic over a row struct
//   - Atomic replacement of table files (temp file + rename)
//   - Schema checks against internal/schema tables on read
//   - Support for multiple compression algorithms (snappy, zstd, lz4, gzip)
//   - Row types and conversions between model entities and Parquet rows
package parquet

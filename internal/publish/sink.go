package publish

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xtxerr/medallion/internal/storage/parquet"
)

// Sink writes every dataset in one format below an output directory.
type Sink interface {
	// Name identifies the format in logs and errors.
	Name() string

	// Write writes datasets below dir and returns the files it created.
	Write(ctx context.Context, dir string, datasets []Dataset) ([]string, error)
}

// =============================================================================
// Parquet
// =============================================================================

// ParquetSink writes parquet/<dataset>.parquet.
type ParquetSink struct {
	Options parquet.Options
}

func (s *ParquetSink) Name() string { return "parquet" }

func (s *ParquetSink) Write(ctx context.Context, dir string, datasets []Dataset) ([]string, error) {
	var files []string
	for i := range datasets {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		d := &datasets[i]
		path := filepath.Join(dir, "parquet", d.Name()+".parquet")
		if err := d.WriteParquet(path, s.Options); err != nil {
			return files, fmt.Errorf("%s: %w", d.Name(), err)
		}
		files = append(files, path)
	}
	return files, nil
}

// =============================================================================
// CSV
// =============================================================================

// CSVSink writes csv/<dataset>.csv with a header row, comma delimiter and
// empty fields for null.
type CSVSink struct{}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, dir string, datasets []Dataset) ([]string, error) {
	var files []string
	for i := range datasets {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		d := &datasets[i]
		path := filepath.Join(dir, "csv", d.Name()+".csv")
		if err := writeCSV(path, d); err != nil {
			return files, fmt.Errorf("%s: %w", d.Name(), err)
		}
		files = append(files, path)
	}
	return files, nil
}

func writeCSV(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(d.Table.ColumnNames()); err != nil {
		f.Close()
		return err
	}

	record := make([]string, len(d.Table.Columns))
	for _, row := range d.Rows {
		for j, v := range row {
			record[j] = FormatCell(v)
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	return f.Close()
}

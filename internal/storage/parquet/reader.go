package parquet

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/xtxerr/medallion/internal/schema"
)

// Reader reads rows of type T from a Parquet table file.
type Reader[T any] struct {
	file   *os.File
	reader *parquet.GenericReader[T]
}

// NewReader opens path after checking its schema against table.
func NewReader[T any](path string, table schema.Table) (*Reader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if err := table.Check(pf.Schema()); err != nil {
		f.Close()
		return nil, err
	}

	return &Reader[T]{
		file:   f,
		reader: parquet.NewGenericReader[T](f),
	}, nil
}

// ReadAll reads every row of the table.
func (r *Reader[T]) ReadAll() ([]T, error) {
	numRows := r.reader.NumRows()
	rows := make([]T, numRows)
	if numRows == 0 {
		return rows, nil
	}

	var total int
	for total < len(rows) {
		n, err := r.reader.Read(rows[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	if int64(total) != numRows {
		return nil, fmt.Errorf("read %d of %d rows", total, numRows)
	}

	return rows, nil
}

// Close closes the reader.
func (r *Reader[T]) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// ReadFile reads a whole table after checking its schema.
func ReadFile[T any](path string, table schema.Table) ([]T, error) {
	r, err := NewReader[T](path, table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer r.Close()

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// FileInfo holds information about a Parquet file.
type FileInfo struct {
	Path    string
	Size    int64
	NumRows int64
	NumCols int
}

// GetFileInfo returns information about a Parquet file.
func GetFileInfo(path string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:    path,
		Size:    stat.Size(),
		NumRows: pf.NumRows(),
		NumCols: len(pf.Schema().Fields()),
	}, nil
}

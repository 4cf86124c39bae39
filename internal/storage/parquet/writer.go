package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/xtxerr/medallion/internal/errors"
)

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression: CompressionZstd,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// Writer writes rows of type T to a Parquet table file. Rows go to a
// temporary file in the target directory; Close renames it over the target,
// so readers see either the previous table or the complete new one.
type Writer[T any] struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *parquet.GenericWriter[T]
	closed bool
}

// NewWriter creates a writer that replaces path on Close.
func NewWriter[T any](path string, opts Options) (*Writer[T], error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	writerOpts := []parquet.WriterOption{
		parquet.Compression(getCompression(opts.Compression)),
	}

	return &Writer[T]{
		path:   path,
		file:   f,
		writer: parquet.NewGenericWriter[T](f, writerOpts...),
	}, nil
}

// Write appends rows to the table.
func (w *Writer[T]) Write(rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	if _, err := w.writer.Write(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Close flushes the table and moves it into place.
func (w *Writer[T]) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	tmp := w.file.Name()
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		os.Remove(tmp)
		return fmt.Errorf("close writer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", w.path, err)
	}
	return nil
}

// Abort discards everything written so far and leaves the target untouched.
func (w *Writer[T]) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	w.file.Close()
	os.Remove(w.file.Name())
}

// WriteFile replaces path with a table holding rows. Failures are wrapped
// with errors.ErrLayerWrite.
func WriteFile[T any](path string, rows []T, opts Options) error {
	w, err := NewWriter[T](path, opts)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, errors.ErrLayerWrite)
	}
	if err := w.Write(rows); err != nil {
		w.Abort()
		return fmt.Errorf("%s: %v: %w", path, err, errors.ErrLayerWrite)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, errors.ErrLayerWrite)
	}
	return nil
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = fmt.Errorf("parquet writer is closed")

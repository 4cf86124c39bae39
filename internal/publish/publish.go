package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	defaults "github.com/xtxerr/medallion/config"
	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/storage/parquet"
)

// Options configures a publish.
type Options struct {
	// Parquet configures the published Parquet files.
	Parquet parquet.Options

	// Driver selects the embedded database: duckdb or sqlite.
	Driver string

	// DatabaseFile is the database file name inside the output directory.
	DatabaseFile string

	// XLSX additionally writes a workbook.
	XLSX bool

	// RunID names the staging directory. Required.
	RunID string
}

// Sinks returns the sinks selected by opts, in write order.
func Sinks(opts Options) ([]Sink, error) {
	sinks := []Sink{
		&ParquetSink{Options: opts.Parquet},
		&CSVSink{},
	}

	switch opts.Driver {
	case defaults.DatabaseDuckDB, "":
		file := opts.DatabaseFile
		if file == "" {
			file = defaults.DefaultDuckDBFile
		}
		sinks = append(sinks, &DuckDBSink{File: file})
	case defaults.DatabaseSQLite:
		file := opts.DatabaseFile
		if file == "" {
			file = defaults.DefaultSQLiteFile
		}
		sinks = append(sinks, &SQLiteSink{File: file})
	default:
		return nil, merrors.NewValidation("output.database.driver", fmt.Sprintf("unknown driver %q", opts.Driver))
	}

	if opts.XLSX {
		sinks = append(sinks, &XLSXSink{File: defaults.DefaultWorkbookFile})
	}
	return sinks, nil
}

// Result summarizes a publish.
type Result struct {
	Dir   string
	Rows  map[string]int
	Files []string
}

// Run loads the datasets named in paths from the lake and publishes them to
// paths.OutputDir.
func Run(ctx context.Context, paths config.Paths, opts Options) (*Result, error) {
	datasets, err := Load(paths)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}
	sinks, err := Sinks(opts)
	if err != nil {
		return nil, err
	}
	return Publish(ctx, paths.OutputDir, datasets, sinks, opts.RunID)
}

// Publish writes datasets with every sink into a staging directory and then
// replaces dir with it. On failure the staging directory is removed and dir
// is left as it was.
func Publish(ctx context.Context, dir string, datasets []Dataset, sinks []Sink, runID string) (*Result, error) {
	log := logging.ForStage(ctx, "publish")

	if runID == "" {
		return nil, fmt.Errorf("publish: empty run id")
	}
	dir = filepath.Clean(dir)
	staging := dir + ".staging-" + runID

	if err := os.RemoveAll(staging); err != nil {
		return nil, fmt.Errorf("clear staging: %v: %w", err, merrors.ErrLayerWrite)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, fmt.Errorf("create staging: %v: %w", err, merrors.ErrLayerWrite)
	}

	res := &Result{Dir: dir, Rows: make(map[string]int, len(datasets))}
	for _, d := range datasets {
		res.Rows[d.Name()] = len(d.Rows)
	}

	for _, s := range sinks {
		files, err := s.Write(ctx, staging, datasets)
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				log.Warn("failed to remove staging directory", "path", staging, "error", rmErr)
			}
			if ctx.Err() != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%s sink: %v: %w", s.Name(), err, merrors.ErrLayerWrite)
		}
		for _, f := range files {
			rel, err := filepath.Rel(staging, f)
			if err != nil {
				rel = f
			}
			res.Files = append(res.Files, filepath.Join(dir, rel))
		}
		log.Debug("sink written", "sink", s.Name(), "files", len(files))
	}

	if err := swap(staging, dir, runID); err != nil {
		os.RemoveAll(staging)
		return nil, fmt.Errorf("swap output: %v: %w", err, merrors.ErrLayerWrite)
	}

	log.Info("output published", "dir", dir, "datasets", len(datasets), "files", len(res.Files))
	return res, nil
}

// swap moves staging to dir. An existing dir is moved aside first and
// restored if the move fails.
func swap(staging, dir, runID string) error {
	previous := dir + ".previous-" + runID

	hadPrevious := false
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, previous); err != nil {
			return err
		}
		hadPrevious = true
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.Rename(staging, dir); err != nil {
		if hadPrevious {
			if rbErr := os.Rename(previous, dir); rbErr != nil {
				return fmt.Errorf("%v (restore previous output: %v)", err, rbErr)
			}
		}
		return err
	}

	if hadPrevious {
		if err := os.RemoveAll(previous); err != nil {
			logging.Component("publish").Warn("failed to remove previous output", "path", previous, "error", err)
		}
	}
	return nil
}

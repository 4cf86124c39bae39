// Package pipeline runs the Bronze, Silver, Gold and publish stages in
// order for one configuration.
//
// Each stage reads only what the previous stage persisted. A failing stage
// stops the run; its error is a *errors.StageError naming the stage. Layers
// written by earlier stages stay in place.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xtxerr/medallion/internal/bronze"
	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/gold"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/publish"
	"github.com/xtxerr/medallion/internal/query"
	"github.com/xtxerr/medallion/internal/silver"
	"github.com/xtxerr/medallion/internal/storage/parquet"
	"github.com/xtxerr/medallion/internal/storage/retention"
)

// Stage names as they appear in logs and errors.
const (
	StageBronze  = "bronze"
	StageSilver  = "silver"
	StageGold    = "gold"
	StagePublish = "publish"
	StageVerify  = "verify"
)

// Report summarizes a completed run.
type Report struct {
	RunID         string
	IngestionDate string
	Paths         config.Paths

	Bronze  *bronze.Stats
	Silver  *silver.Stats
	Gold    *gold.Stats
	Publish *publish.Result
	Verify  *query.Report // nil unless output.verify is set

	// PrunedPartitions counts Bronze partitions removed by retention.
	PrunedPartitions int

	Duration time.Duration
}

// Pipeline runs the stages for one configuration.
type Pipeline struct {
	config *config.Config

	// now is the clock used for the ingestion date and lineage timestamps.
	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline after validating cfg.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one full run.
func Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// Run executes one full run: bronze, silver, gold, publish and, when
// configured, verify.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := p.now()
	runID := uuid.New().String()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := logging.With("component", "pipeline", "run_id", runID)

	paths := p.config.Paths(start)
	report := &Report{
		RunID:         runID,
		IngestionDate: paths.IngestionDate,
		Paths:         paths,
	}

	pq := parquet.Options{Compression: parquet.ParseCompressionType(p.config.Parquet.Compression)}

	log.Info("run started",
		"orders", paths.OrdersFeed,
		"products", paths.ProductsFeed,
		"lake", paths.LakeDir,
		"output", paths.OutputDir)

	var err error

	report.Bronze, err = bronze.Run(ctx, paths, bronze.Options{
		Delimiter:  p.config.Input.DelimiterRune(),
		Parquet:    pq,
		IngestedAt: start,
	})
	if err != nil {
		return report, p.fail(log, StageBronze, err)
	}
	report.PrunedPartitions = p.prune(log, paths)

	report.Silver, err = silver.Run(ctx, paths, pq)
	if err != nil {
		return report, p.fail(log, StageSilver, err)
	}

	report.Gold, err = gold.Run(ctx, paths, pq)
	if err != nil {
		return report, p.fail(log, StageGold, err)
	}

	report.Publish, err = publish.Run(ctx, paths, publish.Options{
		Parquet:      pq,
		Driver:       p.config.Output.Database.Driver,
		DatabaseFile: paths.DatabaseFile,
		XLSX:         p.config.Output.XLSX,
		RunID:        runID,
	})
	if err != nil {
		return report, p.fail(log, StagePublish, err)
	}

	if p.config.Output.Verify {
		report.Verify, err = query.Verify(ctx, paths.OutputDir)
		if err != nil {
			return report, p.fail(log, StageVerify, err)
		}
	}

	report.Duration = p.now().Sub(start)
	log.Info("run completed",
		"duration", report.Duration,
		"orders", report.Bronze.Orders,
		"lines", report.Silver.Lines,
		"dropped_orders", report.Bronze.OrdersDropped.Total(),
		"dropped_entries", report.Silver.Dropped.Total())

	return report, nil
}

// prune applies Bronze retention. Failures are logged and never fail the run.
func (p *Pipeline) prune(log *slog.Logger, paths config.Paths) int {
	m := retention.New(paths.LakeDir, p.config.Lake.RetentionDays)
	if !m.Enabled() {
		return 0
	}

	results, err := m.RunCleanup(paths.IngestionDate)
	if err != nil {
		log.Warn("retention skipped", "error", err)
		return 0
	}

	deleted, freed, errs := retention.Total(results)
	for _, e := range errs {
		log.Warn("retention failed", "error", e)
	}
	if deleted > 0 {
		log.Info("bronze partitions pruned",
			"partitions", deleted,
			"freed", retention.FormatBytes(freed),
			"retention_days", p.config.Lake.RetentionDays)
	}
	return deleted
}

func (p *Pipeline) fail(log *slog.Logger, stage string, err error) error {
	serr := merrors.NewStageError(stage, err)
	log.Error("run failed", "stage", stage, "error", err)
	return serr
}

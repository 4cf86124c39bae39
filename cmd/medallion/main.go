// medallion runs the Bronze, Silver, Gold and publish stages once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtxerr/medallion/internal/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/logging"
	"github.com/xtxerr/medallion/internal/pipeline"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	orders := flag.String("orders", "", "orders feed (overrides config)")
	products := flag.String("products", "", "price feed (overrides config)")
	lake := flag.String("lake", "", "lake directory (overrides config)")
	output := flag.String("output", "", "output directory (overrides config)")
	dbDriver := flag.String("db-driver", "", "embedded database: duckdb or sqlite")
	xlsx := flag.Bool("xlsx", false, "also write an xlsx workbook")
	verify := flag.Bool("verify", false, "verify published totals after publishing")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "log in JSON format")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "medallion: %v\n", err)
			return 1
		}
	}

	// CLI overrides
	if *orders != "" {
		cfg.Input.Orders = *orders
	}
	if *products != "" {
		cfg.Input.Products = *products
	}
	if *lake != "" {
		cfg.Lake.Dir = *lake
	}
	if *output != "" {
		cfg.Output.Dir = *output
	}
	if *dbDriver != "" {
		cfg.Output.Database.Driver = *dbDriver
		cfg.Output.Database.File = ""
	}
	if *xlsx {
		cfg.Output.XLSX = true
	}
	if *verify {
		cfg.Output.Verify = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logJSON {
		cfg.Log.JSON = true
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)
	log := logging.Component("main")
	log.Info("medallion starting", "version", Version, "config", *cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := pipeline.Run(ctx, cfg)
	if err != nil {
		if stage := merrors.StageOf(err); stage != "" {
			log.Error("pipeline failed", "stage", stage, "error", err)
		} else {
			log.Error("pipeline failed", "error", err)
		}
		return 1
	}

	log.Info("pipeline finished",
		"run_id", report.RunID,
		"ingestion_date", report.IngestionDate,
		"orders", report.Bronze.Orders,
		"lines", report.Silver.Lines,
		"output", report.Publish.Dir,
		"files", len(report.Publish.Files),
		"order_value_p50", report.Gold.OrderValues.P50,
		"duration", report.Duration)
	return 0
}

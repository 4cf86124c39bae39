package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	merrors "github.com/xtxerr/medallion/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.Output.Database.Driver != "duckdb" {
		t.Errorf("expected duckdb driver by default, got %s", cfg.Output.Database.Driver)
	}
	if cfg.Output.DatabaseFile() != "sales.duckdb" {
		t.Errorf("expected sales.duckdb, got %s", cfg.Output.DatabaseFile())
	}
	if cfg.Output.XLSX {
		t.Error("expected xlsx disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty orders", func(c *Config) { c.Input.Orders = "" }, "input.orders"},
		{"bad driver", func(c *Config) { c.Output.Database.Driver = "mysql" }, "output.database.driver"},
		{"bad compression", func(c *Config) { c.Parquet.Compression = "brotli" }, "parquet.compression"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"multi-char delimiter", func(c *Config) { c.Input.Delimiter = ";;" }, "delimiter"},
		{"quote delimiter", func(c *Config) { c.Input.Delimiter = `"` }, "delimiter"},
		{"same dirs", func(c *Config) { c.Output.Dir = c.Lake.Dir }, "lake.dir"},
		{"lake inside output", func(c *Config) {
			c.Output.Dir = "work"
			c.Lake.Dir = filepath.Join("work", "datalake")
		}, "must not contain lake.dir"},
		{"output is parent of lake", func(c *Config) {
			c.Output.Dir = "."
			c.Lake.Dir = "datalake"
		}, "must not contain lake.dir"},
		{"orders feed inside output", func(c *Config) {
			c.Output.Dir = "data"
			c.Input.Orders = filepath.Join("data", "..", "data", "orders.csv")
		}, "must not contain input.orders"},
		{"products feed inside output", func(c *Config) {
			c.Output.Dir = "/srv/sales"
			c.Input.Products = "/srv/sales/feeds/products.csv"
		}, "must not contain input.products"},
		{"negative retention", func(c *Config) { c.Lake.RetentionDays = -1 }, "lake.retention_days"},
		{"db path", func(c *Config) { c.Output.Database.File = "sub/sales.db" }, "output.database.file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !merrors.Is(err, merrors.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to name %s, got %v", tt.field, err)
			}
		})
	}
}

func TestConfigValidateLayout(t *testing.T) {
	tests := []struct {
		name string
		out  string
		lake string
	}{
		{"siblings", "output", "datalake"},
		{"shared prefix", "/srv/out", "/srv/output-lake"},
		{"output inside lake", "/srv/lake/published", "/srv/lake"},
		{"dotted sibling", "/srv/out", "/srv/..lake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Input.Orders = "/feeds/orders.csv"
			cfg.Input.Products = "/feeds/products.csv"
			cfg.Output.Dir = tt.out
			cfg.Lake.Dir = tt.lake
			if err := cfg.Validate(); err != nil {
				t.Errorf("expected valid layout, got %v", err)
			}
		})
	}
}

func TestDelimiterRune(t *testing.T) {
	in := InputConfig{Delimiter: ";"}
	if in.DelimiterRune() != ';' {
		t.Errorf("expected ';', got %q", in.DelimiterRune())
	}
	in.Delimiter = "auto"
	if in.DelimiterRune() != 0 {
		t.Errorf("expected 0 for auto, got %q", in.DelimiterRune())
	}
	in.Delimiter = "\t"
	if err := in.Validate(); err != nil {
		t.Errorf("tab should be valid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
input:
  orders: feeds/orders.csv
  products: ""
  delimiter: ";"
lake:
  dir: /tmp/lake
output:
  dir: /tmp/out
  database:
    driver: sqlite
  xlsx: true
log:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Input.Orders != "feeds/orders.csv" {
		t.Errorf("expected orders path from file, got %s", cfg.Input.Orders)
	}
	if cfg.Input.Products != "" {
		t.Errorf("expected empty products path, got %s", cfg.Input.Products)
	}
	if cfg.Output.DatabaseFile() != "sales.db" {
		t.Errorf("expected sales.db for sqlite, got %s", cfg.Output.DatabaseFile())
	}
	if !cfg.Output.XLSX || !cfg.Log.JSON {
		t.Error("expected xlsx and json enabled")
	}
	// Unset keys keep their defaults.
	if cfg.Parquet.Compression != "zstd" {
		t.Errorf("expected default compression, got %s", cfg.Parquet.Compression)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("output:\n  database:\n    driver: oracle\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported driver")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lake.Dir = "/lake"
	cfg.Output.Dir = "/out"

	now := time.Date(2024, time.March, 9, 23, 59, 0, 0, time.UTC)
	p := cfg.Paths(now)

	if p.IngestionDate != "2024-03-09" {
		t.Errorf("expected ingestion date 2024-03-09, got %s", p.IngestionDate)
	}
	want := filepath.Join("/lake", "bronze", "orders", "ingestion_date=2024-03-09", "orders.parquet")
	if p.BronzeOrders != want {
		t.Errorf("expected %s, got %s", want, p.BronzeOrders)
	}
	want = filepath.Join("/lake", "silver", "order_lines", "order_lines.parquet")
	if p.SilverOrderLines != want {
		t.Errorf("expected %s, got %s", want, p.SilverOrderLines)
	}
	if p.GoldTable("sales_by_day") != filepath.Join("/lake", "gold", "sales_by_day.parquet") {
		t.Errorf("unexpected gold path %s", p.GoldTable("sales_by_day"))
	}
}

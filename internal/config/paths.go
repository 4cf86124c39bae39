package config

import (
	"path/filepath"
	"time"

	defaults "github.com/xtxerr/medallion/config"
)

// Paths names every location read or written during one run. It is a plain
// value: stages receive a copy and cannot affect each other's view.
type Paths struct {
	OrdersFeed   string
	ProductsFeed string

	LakeDir       string
	IngestionDate string

	BronzeOrders     string
	BronzeProducts   string
	SilverOrderLines string
	GoldDir          string

	OutputDir    string
	DatabaseFile string
}

// Paths resolves the configuration into the locations of a run ingesting at now.
func (c *Config) Paths(now time.Time) Paths {
	date := now.UTC().Format(time.DateOnly)
	bronze := filepath.Join(c.Lake.Dir, "bronze")
	partition := defaults.PartitionPrefix + date

	return Paths{
		OrdersFeed:   c.Input.Orders,
		ProductsFeed: c.Input.Products,

		LakeDir:       c.Lake.Dir,
		IngestionDate: date,

		BronzeOrders:     filepath.Join(bronze, defaults.DatasetOrders, partition, defaults.DatasetOrders+".parquet"),
		BronzeProducts:   filepath.Join(bronze, defaults.DatasetProducts, partition, defaults.DatasetProducts+".parquet"),
		SilverOrderLines: filepath.Join(c.Lake.Dir, "silver", defaults.DatasetOrderLines, defaults.DatasetOrderLines+".parquet"),
		GoldDir:          filepath.Join(c.Lake.Dir, "gold"),

		OutputDir:    c.Output.Dir,
		DatabaseFile: c.Output.DatabaseFile(),
	}
}

// GoldTable returns the lake path of a Gold dataset.
func (p Paths) GoldTable(name string) string {
	return filepath.Join(p.GoldDir, name+".parquet")
}

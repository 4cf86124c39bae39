// Package retention removes expired Bronze ingestion partitions.
//
// Bronze keeps one partition directory per ingestion date
// (bronze/<dataset>/ingestion_date=YYYY-MM-DD). Later layers are rebuilt
// from the current partition on every run, so older partitions are history
// only and can be pruned once they fall outside the configured window.
package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	defaults "github.com/xtxerr/medallion/config"
)

// Manager prunes partitions of the Bronze datasets under one lake.
type Manager struct {
	bronzeDir string
	days      int
}

// CleanupResult holds the result of cleaning one dataset.
type CleanupResult struct {
	Dataset           string
	PartitionsDeleted int
	BytesFreed        int64
	PartitionsSkipped int
	Errors            []error
}

// New creates a retention manager for lakeDir keeping partitions that are at
// most days old. days <= 0 keeps everything.
func New(lakeDir string, days int) *Manager {
	return &Manager{
		bronzeDir: filepath.Join(lakeDir, "bronze"),
		days:      days,
	}
}

// Enabled reports whether partitions are ever removed.
func (m *Manager) Enabled() bool {
	return m.days > 0
}

// RunCleanup removes expired partitions of every Bronze dataset relative to
// the ingestion date current (YYYY-MM-DD). The current partition is never
// removed.
func (m *Manager) RunCleanup(current string) ([]CleanupResult, error) {
	return m.run(current, false)
}

// DryRun reports what RunCleanup would remove without deleting anything.
func (m *Manager) DryRun(current string) ([]CleanupResult, error) {
	return m.run(current, true)
}

func (m *Manager) run(current string, dryRun bool) ([]CleanupResult, error) {
	if !m.Enabled() {
		return nil, nil
	}
	today, err := time.Parse(time.DateOnly, current)
	if err != nil {
		return nil, fmt.Errorf("ingestion date %q: %w", current, err)
	}
	cutoff := today.AddDate(0, 0, -m.days)

	var results []CleanupResult
	for _, dataset := range []string{defaults.DatasetOrders, defaults.DatasetProducts} {
		results = append(results, m.cleanupDataset(dataset, current, cutoff, dryRun))
	}
	return results, nil
}

// cleanupDataset performs cleanup for a single dataset.
func (m *Manager) cleanupDataset(dataset, current string, cutoff time.Time, dryRun bool) CleanupResult {
	result := CleanupResult{Dataset: dataset}

	partitions, err := m.listPartitions(filepath.Join(m.bronzeDir, dataset))
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, fmt.Errorf("list partitions: %w", err))
		}
		return result
	}

	for _, p := range partitions {
		date, err := parsePartitionDate(p.name)
		if err != nil || p.name == defaults.PartitionPrefix+current {
			result.PartitionsSkipped++
			continue
		}

		if !date.Before(cutoff) {
			result.PartitionsSkipped++
			continue
		}

		if !dryRun {
			if err := os.RemoveAll(p.path); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("delete %s: %w", p.path, err))
				continue
			}
		}

		result.PartitionsDeleted++
		result.BytesFreed += p.size
	}

	return result
}

// partitionInfo holds information about a partition directory.
type partitionInfo struct {
	name string
	path string
	size int64
}

// listPartitions lists the partition directories of a dataset, oldest first.
func (m *Manager) listPartitions(dir string) ([]partitionInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var partitions []partitionInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), defaults.PartitionPrefix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		partitions = append(partitions, partitionInfo{
			name: entry.Name(),
			path: path,
			size: dirSize(path),
		})
	}

	sort.Slice(partitions, func(i, j int) bool {
		return partitions[i].name < partitions[j].name
	})
	return partitions, nil
}

// parsePartitionDate extracts the date from "ingestion_date=YYYY-MM-DD".
func parsePartitionDate(name string) (time.Time, error) {
	value, ok := strings.CutPrefix(name, defaults.PartitionPrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("not a partition: %s", name)
	}
	return time.Parse(time.DateOnly, value)
}

func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
		}
		return nil
	})
	return total
}

// Total sums the results of a cleanup.
func Total(results []CleanupResult) (deleted int, freed int64, errs []error) {
	for _, r := range results {
		deleted += r.PartitionsDeleted
		freed += r.BytesFreed
		errs = append(errs, r.Errors...)
	}
	return deleted, freed, errs
}

// FormatBytes formats bytes as human-readable string.
func FormatBytes(b int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

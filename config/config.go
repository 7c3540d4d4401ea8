// Package config holds the settings of a profiling run.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/collect"
)

// Config holds the settings of a profiling run.
type Config struct {
	// RecordAll records every access, not only those inside annotated
	// regions, into a program-wide profile reported as an extra row.
	RecordAll bool `json:"record_all"`

	// SiteReport is the path of the per-region CSV report.
	// Default: siteReport.csv.
	SiteReport string `json:"site_report"`

	// DetailedSiteReport is the path of the per-activation CSV report.
	// Empty disables it. Default: detailedSiteReport.csv.
	DetailedSiteReport string `json:"detailed_site_report"`

	// TaskReport and DetailedTaskReport are accepted for compatibility with
	// task annotations. Task annotations are not supported, so nothing is
	// written to them.
	TaskReport         string `json:"task_report"`
	DetailedTaskReport string `json:"detailed_task_report"`

	// SQLiteReport is the base path of an SQLite report database. Empty
	// disables it.
	SQLiteReport string `json:"sqlite_report,omitempty"`

	// MergedTrace is the path where every merged cache line is dumped in
	// hex. Empty disables it.
	MergedTrace string `json:"merged_trace,omitempty"`

	// Echo prints the site report to stdout at exit.
	Echo bool `json:"echo"`

	// LineSize is the cache line size in bytes used to derive line ids.
	// Default: 64.
	LineSize int `json:"line_size"`

	// StoreCapacity is the number of line slots per thread store.
	// Default: 131072 (1 MiB of ids).
	StoreCapacity int `json:"store_capacity"`

	// Caches lists the configurations measured for every region.
	// Default: one 8 MB, 16-way configuration.
	Caches []cache.Config `json:"caches"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		SiteReport:         "siteReport.csv",
		DetailedSiteReport: "detailedSiteReport.csv",
		TaskReport:         "taskReport.csv",
		DetailedTaskReport: "detailedTaskReport.csv",
		Echo:               true,
		LineSize:           cache.DefaultBlockSize,
		StoreCapacity:      collect.DefaultStoreCapacity,
		Caches:             []cache.Config{cache.DefaultConfig()},
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the settings describe a runnable profile.
func (c *Config) Validate() error {
	if c.SiteReport == "" {
		return fmt.Errorf("site_report must not be empty")
	}
	if c.LineSize <= 0 || c.LineSize&(c.LineSize-1) != 0 {
		return fmt.Errorf("line_size must be a power of two, got %d", c.LineSize)
	}
	if c.StoreCapacity <= collect.StorePadding {
		return fmt.Errorf("store_capacity must be > %d, got %d",
			collect.StorePadding, c.StoreCapacity)
	}
	if len(c.Caches) == 0 {
		return fmt.Errorf("caches must list at least one configuration")
	}
	for i, cc := range c.Caches {
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("caches[%d]: %w", i, err)
		}
		if cc.BlockSize != c.LineSize {
			return fmt.Errorf("caches[%d]: block_size %d differs from line_size %d",
				i, cc.BlockSize, c.LineSize)
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Caches = append([]cache.Config(nil), c.Caches...)
	return &clone
}

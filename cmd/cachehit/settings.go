package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/config"
)

// settingsFlags are the flags shared by commands that build a config.
type settingsFlags struct {
	configPath string
	envFiles   []string
	recordAll  bool
	siteReport string
	detailed   string
	sqlite     string
	merged     string
	cacheSizes string
	policy     string
	noEcho     bool
}

func (s *settingsFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.configPath, "config", "", "path to a JSON config file")
	f.StringSliceVar(&s.envFiles, "env-file", nil, ".env files with CACHEHIT_* variables")
	f.BoolVar(&s.recordAll, "record-all", false, "also record accesses outside annotated regions")
	f.StringVar(&s.siteReport, "site-report", "", "site report file name")
	f.StringVar(&s.detailed, "detailed-site-report", "", "per-activation report file name")
	f.StringVar(&s.sqlite, "sqlite", "", "base name of an SQLite report database")
	f.StringVar(&s.merged, "merged-trace", "", "dump every merged cache line to this file")
	f.StringVar(&s.cacheSizes, "cache-sizes", "", "comma separated cache sizes, e.g. 2M,8M")
	f.StringVar(&s.policy, "policy", "", "replacement policy: mtf or lru")
	f.BoolVar(&s.noEcho, "no-echo", false, "do not print the report summary")
}

// load builds the config: defaults or the config file, then .env files and
// the process environment, then explicitly set flags.
func (s *settingsFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(s.configPath)
		if err != nil {
			return nil, err
		}
	}

	// Earlier files win over later ones, the process environment over both.
	for i := len(s.envFiles) - 1; i >= 0; i-- {
		lookup, err := config.ReadEnvFile(s.envFiles[i])
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(lookup); err != nil {
			return nil, fmt.Errorf("%s: %w", s.envFiles[i], err)
		}
	}
	if err := cfg.ApplyProcessEnv(); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("record-all") {
		cfg.RecordAll = s.recordAll
	}
	if f.Changed("site-report") {
		cfg.SiteReport = s.siteReport
	}
	if f.Changed("detailed-site-report") {
		cfg.DetailedSiteReport = s.detailed
	}
	if f.Changed("sqlite") {
		cfg.SQLiteReport = s.sqlite
	}
	if f.Changed("merged-trace") {
		cfg.MergedTrace = s.merged
	}
	if f.Changed("no-echo") {
		cfg.Echo = !s.noEcho
	}
	if s.cacheSizes != "" {
		sizes, err := config.ParseSizes(s.cacheSizes)
		if err != nil {
			return nil, fmt.Errorf("--cache-sizes: %w", err)
		}
		cfg.SetCacheSizes(sizes)
	}
	if s.policy != "" {
		cfg.SetPolicy(cache.Policy(s.policy))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

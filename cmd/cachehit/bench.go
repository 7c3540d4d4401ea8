package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachehit/benchmarks"
	"github.com/sarchlab/cachehit/cache"
	"github.com/sarchlab/cachehit/config"
)

var benchOpts struct {
	format        string
	cacheSizes    string
	policy        string
	storeCapacity int
	verbose       bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the synthetic workloads and print their hit ratios.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch benchOpts.format {
		case "text", "csv", "json":
		default:
			return fmt.Errorf("unknown format %q", benchOpts.format)
		}

		hc := benchmarks.DefaultConfig()
		hc.Output = cmd.OutOrStdout()
		hc.Verbose = benchOpts.verbose
		hc.StoreCapacity = benchOpts.storeCapacity

		if benchOpts.cacheSizes != "" {
			sizes, err := config.ParseSizes(benchOpts.cacheSizes)
			if err != nil {
				return fmt.Errorf("--cache-sizes: %w", err)
			}
			hc.Caches = hc.Caches[:0]
			for _, s := range sizes {
				hc.Caches = append(hc.Caches, cache.WithSize(s))
			}
		}
		if benchOpts.policy != "" {
			for i := range hc.Caches {
				hc.Caches[i].Policy = cache.Policy(benchOpts.policy)
			}
		}
		for i, c := range hc.Caches {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("cache %d: %w", i, err)
			}
		}

		harness := benchmarks.NewHarness(hc)
		harness.AddBenchmarks(benchmarks.GetWorkloads())

		results, err := harness.RunAll()
		if err != nil {
			return err
		}

		switch benchOpts.format {
		case "csv":
			harness.PrintCSV(results)
		case "json":
			return harness.PrintJSON(results)
		default:
			harness.PrintResults(results)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)

	f := benchCmd.Flags()
	f.StringVar(&benchOpts.format, "format", "text", "output format: text, csv or json")
	f.StringVar(&benchOpts.cacheSizes, "cache-sizes", "", "comma separated cache sizes, e.g. 256K,2M")
	f.StringVar(&benchOpts.policy, "policy", "", "replacement policy: mtf or lru")
	f.IntVar(&benchOpts.storeCapacity, "store-capacity", 0, "slots per thread store")
	f.BoolVarP(&benchOpts.verbose, "verbose", "v", false, "verbose output")
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"sync"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachehit/config"
	"github.com/sarchlab/cachehit/profiler"
	"github.com/sarchlab/cachehit/report"
	"github.com/sarchlab/cachehit/trace"
)

type runOptions struct {
	settingsFlags

	parallel   bool
	verbose    bool
	cpuProfile string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <trace>",
	Short: "Replay a trace and write the site report.",
	Long: "`run trace.txt` replays the events of an instrumentation trace " +
		"and writes the hit ratio of every annotated region to the site report.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := runOpts.load(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return runTrace(ctx, cfg, args[0], runOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runOpts.register(runCmd)
	runCmd.Flags().BoolVar(&runOpts.parallel, "parallel", false,
		"replay the accesses of every thread on its own goroutine")
	runCmd.Flags().BoolVarP(&runOpts.verbose, "verbose", "v", false, "verbose output")
	runCmd.Flags().StringVar(&runOpts.cpuProfile, "cpuprofile", "", "write cpu profile to file")
}

// runTrace replays one trace file. The reports are written once the trace
// ends, and also when the process exits early through atexit.Exit.
func runTrace(
	ctx context.Context,
	cfg *config.Config,
	tracePath string,
	opts runOptions,
	stdout, stderr io.Writer,
) error {
	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	in, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() { _ = in.Close() }()

	var popts []profiler.Option

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(stderr, "cachehit: ", log.Ltime)
		popts = append(popts, profiler.WithLogger(logger))
	}

	var dumper *report.LineDumper
	var dumpFile *os.File
	if cfg.MergedTrace != "" {
		dumpFile, err = os.Create(cfg.MergedTrace)
		if err != nil {
			return fmt.Errorf("failed to create merged trace: %w", err)
		}
		dumper = report.NewLineDumper(dumpFile)
		popts = append(popts, profiler.WithHook(dumper))
	}

	p, err := profiler.New(cfg, popts...)
	if err != nil {
		return err
	}

	var (
		once      sync.Once
		finishErr error
	)
	finish := func() {
		once.Do(func() {
			finishErr = writeReports(p, stdout, logger)
			if dumper != nil {
				_ = dumper.Flush()
				_ = dumpFile.Close()
			}
			if finishErr != nil {
				_, _ = fmt.Fprintf(stderr, "Error writing reports: %v\n", finishErr)
			}
		})
	}
	atexit.Register(finish)

	stats, err := trace.Replay(ctx, in, p, trace.Options{Parallel: opts.parallel})
	if err != nil {
		return err
	}
	logger.Printf("replayed %d events, %d accesses, %d regions, %d threads",
		stats.Events, stats.Accesses, stats.Regions, stats.Threads)

	finish()

	return finishErr
}

// writeReports drains the profiler and writes every configured report.
func writeReports(p *profiler.Profiler, stdout io.Writer, logger *log.Logger) error {
	cfg := p.Config()

	rep, err := p.Finish()
	if err != nil {
		return err
	}

	err = writeFile(cfg.SiteReport, func(w io.Writer) error {
		return report.WriteCSV(w, rep)
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Created Site report in %s\n", cfg.SiteReport)

	if cfg.DetailedSiteReport != "" {
		err = writeFile(cfg.DetailedSiteReport, func(w io.Writer) error {
			return report.WriteDetailedCSV(w, rep)
		})
		if err != nil {
			return err
		}
	}

	if cfg.SQLiteReport != "" {
		db, err := report.NewSQLiteWriter(cfg.SQLiteReport)
		if err != nil {
			return err
		}
		if err := db.Write(rep); err != nil {
			_ = db.Close()
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "Stored report in %s\n", db.Filename())
	}

	if cfg.Echo {
		report.PrintSummary(stdout, rep)
	}

	logger.Printf("%s", p.Diagnostics())
	if usage, err := report.ResourceUsage(); err == nil {
		logger.Printf("cpu %.1f%%, rss %d MB", usage.CPUPercent, usage.RSS/(1<<20))
	}

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}

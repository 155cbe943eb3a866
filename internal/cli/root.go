package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/query-crawler/internal/build"
	"github.com/rohmanhakim/query-crawler/internal/config"
	"github.com/rohmanhakim/query-crawler/internal/scheduler"
)

var (
	cfgFile     string
	query       string
	maxPages    int
	maxTime     time.Duration
	maxTimeouts int
	workers     int
	maxSeeds    int
	userAgent   string
	logPath     string
	debug       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "query-crawler",
	Version: build.FullVersion(),
	Short:   "A query-seeded polite web crawler.",
	Long: `query-crawler discovers seed URLs for a textual query from a public
search endpoint, then performs a bounded, priority-driven traversal of the
reachable web graph. Each fetch is recorded as one tab-separated log line,
followed by an aggregate summary when the crawl drains.

The crawl diversifies across hosts and registered domains: pages from
already-crawled hosts and already-broad domain groups are deprioritized.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		sched, schedErr := scheduler.NewScheduler(cfg)
		if schedErr != nil {
			return fmt.Errorf("failed to initialize crawl: %w", schedErr)
		}

		execution, execErr := sched.ExecuteCrawling(context.Background())
		if execErr != nil {
			return fmt.Errorf("crawl failed: %w", execErr)
		}

		fmt.Printf("Fetched %d pages (%d bytes) in %.2f seconds; log written to %s\n",
			execution.Stats.TotalPages,
			execution.Stats.TotalBytes,
			execution.Elapsed.Seconds(),
			cfg.LogPath(),
		)
		return nil
	},
}

// buildConfig assembles the effective Config: from the config file alone
// when one is given (the other flags are then not applied), otherwise from
// the flags on top of the defaults.
func buildConfig() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		return cfg, nil
	}

	if query == "" {
		return config.Config{}, fmt.Errorf("--query is required when no config file is given")
	}

	builder := config.WithDefault(query).
		MaxPages(maxPages).
		MaxTime(maxTime).
		MaxTimeouts(maxTimeouts).
		Workers(workers).
		MaxSeedResults(maxSeeds).
		LogPath(logPath).
		Debug(debug)
	if userAgent != "" {
		builder.UserAgent(userAgent)
	}
	return builder.Build()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&query, "query", "", "seed query submitted to the search endpoint")
	rootCmd.PersistentFlags().IntVar(&maxPages, "max-pages", 1000, "hard cap on fetched pages")
	rootCmd.PersistentFlags().DurationVar(&maxTime, "max-time", 60*time.Second, "wall-clock budget for the run")
	rootCmd.PersistentFlags().IntVar(&maxTimeouts, "max-timeouts", 2, "transport-failure cap per host")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 16, "number of concurrent crawl workers")
	rootCmd.PersistentFlags().IntVar(&maxSeeds, "max-seeds", 10, "maximum seed URLs taken from search results")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-path", "log.txt", "path of the crawl log file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose skip counting and per-skip prints")
}

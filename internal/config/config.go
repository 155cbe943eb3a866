package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Seed query submitted to the search endpoint to discover seed URLs.
	query string
	// Maximum number of seed URLs taken from the search results.
	maxSeedResults int

	//===============
	// Limits
	//===============
	// Hard cap on the number of pages fetched (|visited|).
	maxPages int
	// Wall-clock budget for the whole run.
	maxTime time.Duration
	// Per-host transport-failure cap; a host is excluded once reached.
	maxTimeouts int

	//===============
	// Concurrency
	//===============
	// Fixed size of the crawl worker pool; it does not control OS
	// threads or CPU parallelism.
	workers int

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request (pages and robots.txt alike).
	fetchTimeout time.Duration
	// User agent used in request headers. In raw string.
	userAgent string

	//===============
	// Seed query retry
	//===============
	maxAttempt             int
	jitter                 time.Duration
	randomSeed             int64
	backoffInitialDuration time.Duration
	backoffMultiplier      float64
	backoffMaxDuration     time.Duration

	//===============
	// Output
	//===============
	// Path of the crawl log file.
	logPath string
	// Toggle verbose skip counting and per-skip prints.
	debug bool
}

type configDTO struct {
	Query                  string        `json:"query"`
	MaxSeedResults         int           `json:"maxSeedResults,omitempty"`
	MaxPages               int           `json:"maxPages,omitempty"`
	MaxTime                time.Duration `json:"maxTime,omitempty"`
	MaxTimeouts            int           `json:"maxTimeouts,omitempty"`
	Workers                int           `json:"workers,omitempty"`
	FetchTimeout           time.Duration `json:"fetchTimeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	LogPath                string        `json:"logPath,omitempty"`
	Debug                  bool          `json:"debug,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	// Start with default config
	cfg, err := WithDefault(dto.Query).Build()
	if err != nil {
		return Config{}, err
	}

	// Only override when a non-zero value is provided
	if dto.MaxSeedResults != 0 {
		cfg.maxSeedResults = dto.MaxSeedResults
	}
	if dto.MaxPages != 0 {
		cfg.maxPages = dto.MaxPages
	}
	if dto.MaxTime != 0 {
		cfg.maxTime = dto.MaxTime
	}
	if dto.MaxTimeouts != 0 {
		cfg.maxTimeouts = dto.MaxTimeouts
	}
	if dto.Workers != 0 {
		cfg.workers = dto.Workers
	}
	if dto.FetchTimeout != 0 {
		cfg.fetchTimeout = dto.FetchTimeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.LogPath != "" {
		cfg.logPath = dto.LogPath
	}
	// Debug is a boolean; the DTO value is used as-is
	cfg.debug = dto.Debug

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileNotReadable, err.Error())
	}

	var dto configDTO
	if err := json.Unmarshal(configContent, &dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileContentInvalid, err.Error())
	}

	return newConfigFromDTO(dto)
}

// Getters

func (c Config) Query() string {
	return c.query
}

func (c Config) MaxSeedResults() int {
	return c.maxSeedResults
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) MaxTime() time.Duration {
	return c.maxTime
}

func (c Config) MaxTimeouts() int {
	return c.maxTimeouts
}

func (c Config) Workers() int {
	return c.workers
}

func (c Config) FetchTimeout() time.Duration {
	return c.fetchTimeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) LogPath() string {
	return c.logPath
}

func (c Config) Debug() bool {
	return c.debug
}

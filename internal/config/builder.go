package config

import "time"

// Builder assembles a Config starting from defaults, allowing selective
// overrides before validation in Build.
type Builder struct {
	cfg Config
}

// WithDefault returns a Builder seeded with the default configuration for
// the given query.
func WithDefault(query string) *Builder {
	return &Builder{
		cfg: Config{
			query:                  query,
			maxSeedResults:         10,
			maxPages:               1000,
			maxTime:                60 * time.Second,
			maxTimeouts:            2,
			workers:                16,
			fetchTimeout:           5 * time.Second,
			userAgent:              "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36",
			maxAttempt:             3,
			jitter:                 200 * time.Millisecond,
			randomSeed:             1,
			backoffInitialDuration: 1 * time.Second,
			backoffMultiplier:      2.0,
			backoffMaxDuration:     10 * time.Second,
			logPath:                "log.txt",
			debug:                  false,
		},
	}
}

func (b *Builder) MaxSeedResults(n int) *Builder {
	b.cfg.maxSeedResults = n
	return b
}

func (b *Builder) MaxPages(n int) *Builder {
	b.cfg.maxPages = n
	return b
}

func (b *Builder) MaxTime(d time.Duration) *Builder {
	b.cfg.maxTime = d
	return b
}

func (b *Builder) MaxTimeouts(n int) *Builder {
	b.cfg.maxTimeouts = n
	return b
}

func (b *Builder) Workers(n int) *Builder {
	b.cfg.workers = n
	return b
}

func (b *Builder) FetchTimeout(d time.Duration) *Builder {
	b.cfg.fetchTimeout = d
	return b
}

func (b *Builder) UserAgent(ua string) *Builder {
	b.cfg.userAgent = ua
	return b
}

func (b *Builder) RandomSeed(seed int64) *Builder {
	b.cfg.randomSeed = seed
	return b
}

func (b *Builder) LogPath(path string) *Builder {
	b.cfg.logPath = path
	return b
}

func (b *Builder) Debug(debug bool) *Builder {
	b.cfg.debug = debug
	return b
}

// Build validates the assembled configuration and returns it.
func (b *Builder) Build() (Config, error) {
	if b.cfg.query == "" {
		return Config{}, ErrQueryEmpty
	}
	if b.cfg.maxPages < 1 {
		return Config{}, ErrMaxPagesInvalid
	}
	if b.cfg.maxTime <= 0 {
		return Config{}, ErrMaxTimeInvalid
	}
	if b.cfg.workers < 1 {
		return Config{}, ErrWorkersInvalid
	}
	if b.cfg.maxTimeouts < 1 {
		return Config{}, ErrMaxTimeoutsInvalid
	}
	if b.cfg.logPath == "" {
		return Config{}, ErrLogPathEmpty
	}
	return b.cfg, nil
}

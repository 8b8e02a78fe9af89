// Package config builds the single Config value a postbot process runs with.
//
// Precedence, lowest to highest: Default(), the YAML file, environment
// variables, then command-line flags (applied by the cli package). The
// result is passed explicitly to every component; nothing reads global
// settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/postbot/internal/corpus"
	"github.com/roach88/postbot/internal/ledger"
	"github.com/roach88/postbot/internal/selector"
)

// Publisher kinds.
const (
	PublisherX      = "x"
	PublisherStdout = "stdout"
)

// Config is the complete process configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Lock      LockConfig      `yaml:"lock"`
	Publisher PublisherConfig `yaml:"publisher"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type CorpusConfig struct {
	Path      string `yaml:"path"`
	TextField string `yaml:"text_field"`
	MaxRange  int    `yaml:"max_range"`
}

type LedgerConfig struct {
	Backend string `yaml:"backend"` // "file" | "sqlite"
	Path    string `yaml:"path"`
}

type LockConfig struct {
	Path string `yaml:"path"`
}

type PublisherConfig struct {
	Kind      string        `yaml:"kind"` // "x" | "stdout"
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	TokenFile string        `yaml:"token_file"`
	ClientID  string        `yaml:"client_id"`

	// Environment only.
	ClientSecret string `yaml:"-"`
	AccessToken  string `yaml:"-"`
	RefreshToken string `yaml:"-"`
}

type ScheduleConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`
	Jitter      time.Duration `yaml:"jitter"`
	Floor       time.Duration `yaml:"floor"`
	RunTimeout  time.Duration `yaml:"run_timeout"`
}

type MetricsConfig struct {
	// Textfile is where run metrics are written in Prometheus text format.
	// Empty disables metrics output.
	Textfile string `yaml:"textfile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the built-in configuration. Paths are relative to the
// working directory.
func Default() Config {
	return Config{
		Corpus: CorpusConfig{
			Path:      "corpus.csv",
			TextField: corpus.DefaultTextField,
			MaxRange:  selector.DefaultMaxRange,
		},
		Ledger: LedgerConfig{
			Backend: ledger.BackendFile,
			Path:    "posted_hashes.txt",
		},
		Lock: LockConfig{Path: "posted.lock"},
		Publisher: PublisherConfig{
			Kind:    PublisherX,
			Timeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			MinInterval: 6 * time.Hour,
			MaxInterval: 12 * time.Hour,
			Jitter:      30 * time.Minute,
			Floor:       time.Hour,
			RunTimeout:  5 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over Default(), resolves relative paths against the
// file's directory, applies environment overrides and validates the result.
// An empty path skips the file.
func Load(path string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := validateSchema(path, data); err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.resolvePaths(filepath.Dir(path))
	}

	cfg.ApplyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Corpus.Path,
		&c.Ledger.Path,
		&c.Lock.Path,
		&c.Publisher.TokenFile,
		&c.Metrics.Textfile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// Validate checks semantic constraints the schema cannot express.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Corpus.Path != "", "corpus.path is required")
	check(c.Corpus.TextField != "", "corpus.text_field is required")
	check(c.Corpus.MaxRange > 0, "corpus.max_range must be positive, got %d", c.Corpus.MaxRange)
	check(c.Ledger.Backend == ledger.BackendFile || c.Ledger.Backend == ledger.BackendSQLite,
		"ledger.backend must be %q or %q, got %q", ledger.BackendFile, ledger.BackendSQLite, c.Ledger.Backend)
	check(c.Ledger.Path != "", "ledger.path is required")
	check(c.Lock.Path != "", "lock.path is required")
	check(c.Ledger.Path != c.Lock.Path, "ledger.path and lock.path must differ")
	check(c.Publisher.Kind == PublisherX || c.Publisher.Kind == PublisherStdout,
		"publisher.kind must be %q or %q, got %q", PublisherX, PublisherStdout, c.Publisher.Kind)
	check(c.Publisher.Timeout > 0, "publisher.timeout must be positive")
	check(c.Schedule.MinInterval > 0, "schedule.min_interval must be positive")
	check(c.Schedule.MinInterval <= c.Schedule.MaxInterval,
		"schedule.min_interval (%s) exceeds schedule.max_interval (%s)", c.Schedule.MinInterval, c.Schedule.MaxInterval)
	check(c.Schedule.Jitter >= 0, "schedule.jitter must not be negative")
	check(c.Schedule.Floor >= 0, "schedule.floor must not be negative")
	check(c.Schedule.RunTimeout > 0, "schedule.run_timeout must be positive")

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

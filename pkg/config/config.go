// Package config loads pipeline settings from the environment or a
// YAML file and builds pools and loggers from them.
//
// Settings layer in a fixed order: YAML values first, then FLUME_*
// environment variables, then documented defaults for anything still
// unset. Environment variables always win, so a deployed config file
// can be overridden per container without editing it.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/millrace/flume/pkg/flume"
	"github.com/millrace/flume/pkg/formatters"
	"github.com/millrace/flume/pkg/sinks"
	"github.com/millrace/flume/pkg/types"
)

// ErrUnknownPolicy reports an overflow policy name that is neither
// "block" nor "drop_oldest".
var ErrUnknownPolicy = errors.New("unknown overflow policy")

// Config describes one logger and the pool behind it.
type Config struct {
	// Level is the minimum severity the logger accepts.
	Level string `yaml:"level" env:"FLUME_LEVEL" env-default:"info"`

	// Format selects the formatter by its registered name.
	Format string `yaml:"format" env:"FLUME_FORMAT" env-default:"text"`

	// QueueSize is the shared queue capacity in messages.
	QueueSize int `yaml:"queueSize" env:"FLUME_QUEUE_SIZE" env-default:"8192"`

	// Workers is the number of dispatch goroutines.
	Workers int `yaml:"workers" env:"FLUME_WORKERS" env-default:"1"`

	// OverflowPolicy is what a full queue does to producers,
	// "block" or "drop_oldest".
	OverflowPolicy string `yaml:"overflowPolicy" env:"FLUME_OVERFLOW_POLICY" env-default:"block"`

	// FlushTimeout bounds how long shutdown waits for queued
	// messages to drain.
	FlushTimeout time.Duration `yaml:"flushTimeout" env:"FLUME_FLUSH_TIMEOUT" env-default:"5s"`

	// SourceInfo captures file, line and function on every record.
	SourceInfo bool `yaml:"sourceInfo" env:"FLUME_SOURCE_INFO" env-default:"false"`

	// File configures the file destination. Output goes to stdout
	// while Path is empty.
	File FileConfig `yaml:"file"`
}

// FileConfig selects and tunes the file destination.
type FileConfig struct {
	// Path is the log file location. Empty selects stdout.
	Path string `yaml:"path" env:"FLUME_FILE_PATH"`

	// Rotate switches the destination to size-based rotation.
	Rotate bool `yaml:"rotate" env:"FLUME_FILE_ROTATE" env-default:"false"`

	// MaxSizeMB is the rotation threshold in megabytes.
	MaxSizeMB int `yaml:"maxSizeMB" env:"FLUME_FILE_MAX_SIZE_MB" env-default:"100"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `yaml:"maxBackups" env:"FLUME_FILE_MAX_BACKUPS" env-default:"3"`

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `yaml:"maxAgeDays" env:"FLUME_FILE_MAX_AGE_DAYS" env-default:"7"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress" env:"FLUME_FILE_COMPRESS" env-default:"true"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	rot := sinks.DefaultRotationConfig()
	return Config{
		Level:          "info",
		Format:         "text",
		QueueSize:      flume.DefaultQueueSize,
		Workers:        flume.DefaultWorkers,
		OverflowPolicy: "block",
		FlushTimeout:   5 * time.Second,
		File: FileConfig{
			MaxSizeMB:  rot.MaxSizeMB,
			MaxBackups: rot.MaxBackups,
			MaxAgeDays: rot.MaxAgeDays,
			Compress:   rot.Compress,
		},
	}
}

// Load builds a Config from FLUME_* environment variables, falling
// back to the defaults for anything unset.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: reading environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a YAML file and applies FLUME_* environment
// variables on top of it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: reading environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names and ranges before anything is built.
func (c *Config) Validate() error {
	if _, err := types.ParseLevel(c.Level); err != nil {
		return errors.Wrap(err, "config")
	}
	if _, err := ParsePolicy(c.OverflowPolicy); err != nil {
		return err
	}
	if c.QueueSize < 1 {
		return errors.Wrapf(flume.ErrInvalidCapacity, "config: queue size %d", c.QueueSize)
	}
	if c.Workers < 1 || c.Workers > flume.MaxWorkers {
		return errors.Wrapf(flume.ErrInvalidWorkerCount, "config: workers %d", c.Workers)
	}
	if c.FlushTimeout <= 0 {
		return errors.Errorf("config: flush timeout must be positive, got %s", c.FlushTimeout)
	}
	if name := c.formatName(); !formatterKnown(name) {
		return errors.Errorf("config: unknown format %q", c.Format)
	}
	if c.File.Path != "" && c.File.Rotate && c.File.MaxSizeMB < 1 {
		return errors.Errorf("config: rotation size %d MB out of range", c.File.MaxSizeMB)
	}
	return nil
}

// ParsePolicy converts a policy name to its OverflowPolicy value.
// Matching is case-insensitive; the empty string means block.
func ParsePolicy(s string) (flume.OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block", "":
		return flume.OverflowBlock, nil
	case "drop_oldest", "drop-oldest", "dropoldest":
		return flume.OverflowDropOldest, nil
	default:
		return flume.OverflowBlock, errors.Wrapf(ErrUnknownPolicy, "config: %q", s)
	}
}

// Pool builds the worker pool described by the configuration. The
// pool starts immediately and is meant to be shared by every logger
// built from the same Config.
func (c *Config) Pool() (*flume.Pool, error) {
	return flume.NewPool(c.QueueSize, c.Workers)
}

// Logger builds a logger from the configuration. Passing a nil pool
// keeps the logger synchronous.
func (c *Config) Logger(name string, pool *flume.Pool) (*flume.Logger, error) {
	level, err := types.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	policy, err := ParsePolicy(c.OverflowPolicy)
	if err != nil {
		return nil, err
	}
	format, err := formatters.Create(c.formatName())
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	sink, err := c.sink()
	if err != nil {
		return nil, err
	}

	opts := []flume.Option{
		flume.WithLevel(level),
		flume.WithOverflowPolicy(policy),
		flume.WithFormatter(format),
		flume.WithSinks(sink),
	}
	if pool != nil {
		opts = append(opts, flume.WithPool(pool))
	}
	if c.SourceInfo {
		opts = append(opts, flume.WithSourceInfo())
	}
	return flume.New(name, opts...)
}

// sink picks the destination: stdout without a path, a plain append
// file, or a rotating file when rotation is on.
func (c *Config) sink() (types.Sink, error) {
	if c.File.Path == "" {
		return sinks.NewStdoutSink(), nil
	}
	if !c.File.Rotate {
		return sinks.NewFileSink(c.File.Path)
	}
	return sinks.NewRotatingFileSink(c.File.Path, sinks.RotationConfig{
		MaxSizeMB:  c.File.MaxSizeMB,
		MaxBackups: c.File.MaxBackups,
		MaxAgeDays: c.File.MaxAgeDays,
		Compress:   c.File.Compress,
	})
}

func (c *Config) formatName() string {
	if c.Format == "" {
		return "text"
	}
	return c.Format
}

func formatterKnown(name string) bool {
	for _, known := range formatters.List() {
		if known == name {
			return true
		}
	}
	return false
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/millrace/flume/pkg/flume"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.QueueSize != 8192 {
		t.Errorf("QueueSize = %d, want 8192", cfg.QueueSize)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if cfg.OverflowPolicy != "block" {
		t.Errorf("OverflowPolicy = %q, want block", cfg.OverflowPolicy)
	}
	if cfg.FlushTimeout != 5*time.Second {
		t.Errorf("FlushTimeout = %s, want 5s", cfg.FlushTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FLUME_LEVEL", "debug")
	t.Setenv("FLUME_FORMAT", "json")
	t.Setenv("FLUME_QUEUE_SIZE", "64")
	t.Setenv("FLUME_WORKERS", "2")
	t.Setenv("FLUME_OVERFLOW_POLICY", "drop_oldest")
	t.Setenv("FLUME_FLUSH_TIMEOUT", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.QueueSize != 64 {
		t.Errorf("QueueSize = %d, want 64", cfg.QueueSize)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.OverflowPolicy != "drop_oldest" {
		t.Errorf("OverflowPolicy = %q, want drop_oldest", cfg.OverflowPolicy)
	}
	if cfg.FlushTimeout != 250*time.Millisecond {
		t.Errorf("FlushTimeout = %s, want 250ms", cfg.FlushTimeout)
	}
}

func TestLoadDefaultsWhenEnvUnset(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := Default()
	if cfg.Level != want.Level || cfg.QueueSize != want.QueueSize || cfg.Workers != want.Workers {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown level",
			key:   "FLUME_LEVEL",
			value: "verbose",
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "verbose") {
					t.Errorf("error %q does not name the bad level", err)
				}
			},
		},
		{
			name:  "zero queue size",
			key:   "FLUME_QUEUE_SIZE",
			value: "0",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, flume.ErrInvalidCapacity) {
					t.Errorf("error = %v, want ErrInvalidCapacity", err)
				}
			},
		},
		{
			name:  "zero workers",
			key:   "FLUME_WORKERS",
			value: "0",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, flume.ErrInvalidWorkerCount) {
					t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
				}
			},
		},
		{
			name:  "unknown policy",
			key:   "FLUME_OVERFLOW_POLICY",
			value: "spill",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnknownPolicy) {
					t.Errorf("error = %v, want ErrUnknownPolicy", err)
				}
			},
		},
		{
			name:  "unknown format",
			key:   "FLUME_FORMAT",
			value: "xml",
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "xml") {
					t.Errorf("error %q does not name the bad format", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			tt.check(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flume.yaml")
	yamlData := `level: debug
format: json
queueSize: 128
workers: 2
overflowPolicy: drop_oldest
flushTimeout: 2s
file:
  path: /var/log/app.log
  rotate: true
  maxSizeMB: 50
  maxBackups: 5
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.QueueSize != 128 {
		t.Errorf("QueueSize = %d, want 128", cfg.QueueSize)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.FlushTimeout != 2*time.Second {
		t.Errorf("FlushTimeout = %s, want 2s", cfg.FlushTimeout)
	}
	if cfg.File.Path != "/var/log/app.log" {
		t.Errorf("File.Path = %q, want /var/log/app.log", cfg.File.Path)
	}
	if !cfg.File.Rotate {
		t.Error("File.Rotate = false, want true")
	}
	if cfg.File.MaxSizeMB != 50 {
		t.Errorf("File.MaxSizeMB = %d, want 50", cfg.File.MaxSizeMB)
	}
	if cfg.File.MaxBackups != 5 {
		t.Errorf("File.MaxBackups = %d, want 5", cfg.File.MaxBackups)
	}
}

func TestLoadFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flume.yaml")
	if err := os.WriteFile(path, []byte("level: warn\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("FLUME_LEVEL", "error")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Level != "error" {
		t.Errorf("Level = %q, want error from environment", cfg.Level)
	}
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flume.yaml")
	if err := os.WriteFile(path, []byte("workers: 3\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3 from file", cfg.Workers)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want default info", cfg.Level)
	}
	if cfg.QueueSize != 8192 {
		t.Errorf("QueueSize = %d, want default 8192", cfg.QueueSize)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadFile() succeeded on a missing file")
	}
}

func TestLoadFileBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flume.yaml")
	if err := os.WriteFile(path, []byte("level: [unclosed\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("LoadFile() succeeded on malformed YAML")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    flume.OverflowPolicy
		wantErr bool
	}{
		{in: "block", want: flume.OverflowBlock},
		{in: "BLOCK", want: flume.OverflowBlock},
		{in: "", want: flume.OverflowBlock},
		{in: "  block  ", want: flume.OverflowBlock},
		{in: "drop_oldest", want: flume.OverflowDropOldest},
		{in: "drop-oldest", want: flume.OverflowDropOldest},
		{in: "DropOldest", want: flume.OverflowDropOldest},
		{in: "spill", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q) succeeded, want error", tt.in)
			} else if !errors.Is(err, ErrUnknownPolicy) {
				t.Errorf("ParsePolicy(%q) error = %v, want ErrUnknownPolicy", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePolicy(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad level", mutate: func(c *Config) { c.Level = "shout" }},
		{name: "bad policy", mutate: func(c *Config) { c.OverflowPolicy = "spill" }},
		{name: "zero queue", mutate: func(c *Config) { c.QueueSize = 0 }},
		{name: "negative queue", mutate: func(c *Config) { c.QueueSize = -1 }},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }},
		{name: "too many workers", mutate: func(c *Config) { c.Workers = flume.MaxWorkers + 1 }},
		{name: "zero flush timeout", mutate: func(c *Config) { c.FlushTimeout = 0 }},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }},
		{name: "rotation size", mutate: func(c *Config) {
			c.File.Path = "/tmp/x.log"
			c.File.Rotate = true
			c.File.MaxSizeMB = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() passed, want error")
			}
		})
	}
}

func TestLoggerFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Level = "debug"
	cfg.File.Path = filepath.Join(t.TempDir(), "app.log")

	logger, err := cfg.Logger("app", nil)
	if err != nil {
		t.Fatalf("Logger() error: %v", err)
	}

	logger.Debug("built from settings")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(cfg.File.Path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "built from settings") {
		t.Errorf("log file %q missing the message", data)
	}
	if !strings.Contains(string(data), "[DEBUG]") {
		t.Errorf("log file %q missing the level", data)
	}
}

func TestLoggerFromConfigWithPool(t *testing.T) {
	cfg := Default()
	cfg.QueueSize = 16
	cfg.File.Path = filepath.Join(t.TempDir(), "app.log")

	pool, err := cfg.Pool()
	if err != nil {
		t.Fatalf("Pool() error: %v", err)
	}
	defer pool.Stop()

	logger, err := cfg.Logger("app", pool)
	if err != nil {
		t.Fatalf("Logger() error: %v", err)
	}

	for i := 0; i < 5; i++ {
		logger.Infof("queued message %d", i)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(cfg.File.Path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for i := 0; i < 5; i++ {
		want := "queued message " + string(rune('0'+i))
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q", want)
		}
	}
}

func TestLoggerFromConfigRotating(t *testing.T) {
	cfg := Default()
	cfg.File.Path = filepath.Join(t.TempDir(), "app.log")
	cfg.File.Rotate = true

	logger, err := cfg.Logger("app", nil)
	if err != nil {
		t.Fatalf("Logger() error: %v", err)
	}

	logger.Info("rotating destination")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(cfg.File.Path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "rotating destination") {
		t.Errorf("log file %q missing the message", data)
	}
}

func TestLoggerFromConfigBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Level = "shout"

	if _, err := cfg.Logger("app", nil); err == nil {
		t.Error("Logger() succeeded with a bad level")
	}
}

func TestLoggerFromConfigStdout(t *testing.T) {
	cfg := Default()

	logger, err := cfg.Logger("app", nil)
	if err != nil {
		t.Fatalf("Logger() error: %v", err)
	}
	defer logger.Close()

	names := make([]string, 0, 1)
	for _, s := range logger.Sinks() {
		names = append(names, s.Name())
	}
	if len(names) != 1 || names[0] != "stdout" {
		t.Errorf("sinks = %v, want [stdout]", names)
	}
}

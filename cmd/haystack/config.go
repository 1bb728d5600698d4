package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/haystack"
)

// Config is the file form of the global flags. Sizes are human readable
// ("10GB", "64MiB").
type Config struct {
	Dir          string       `yaml:"dir"`
	MaxStackSize string       `yaml:"max_stack_size"`
	LogLevel     string       `yaml:"log_level"`
	LogFormat    string       `yaml:"log_format"`
	LargeBlocks  string       `yaml:"large_blocks"`
	Durability   string       `yaml:"durability"`
	ReadCache    string       `yaml:"read_cache"`
	MetricsFile  string       `yaml:"metrics_file"`
	Backup       BackupConfig `yaml:"backup"`
}

// BackupConfig holds the defaults of the backup and restore commands.
type BackupConfig struct {
	Target      string `yaml:"target"`
	Compression string `yaml:"compression"`
	Concurrency int    `yaml:"concurrency"`
	RateLimit   string `yaml:"rate_limit"`
}

func defaultConfig() Config {
	return Config{
		Dir:          ".",
		MaxStackSize: humanize.Bytes(uint64(haystack.DefaultMaxStackSize)),
		LogLevel:     "info",
		LogFormat:    "text",
		Durability:   "sync",
		Backup: BackupConfig{
			Compression: "zstd",
			Concurrency: 4,
		},
	}
}

// loadConfig reads path over the defaults. Unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// parseSize parses a human readable byte size. The empty string is zero.
func parseSize(name, s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("invalid %s %q: too large", name, s)
	}
	return int64(n), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func parseDurability(s string) (haystack.Durability, error) {
	switch strings.ToLower(s) {
	case "", "sync":
		return haystack.DurabilitySync, nil
	case "async":
		return haystack.DurabilityAsync, nil
	default:
		return 0, fmt.Errorf("invalid durability %q", s)
	}
}

// newLogger builds the logger described by cfg, writing to w.
func (c Config) newLogger(w io.Writer) (*haystack.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return haystack.NewLogger(slog.NewTextHandler(w, opts)), nil
	case "json":
		return haystack.NewLogger(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", c.LogFormat)
	}
}

// storeOptions translates cfg into store options.
func (c Config) storeOptions(logger *haystack.Logger, mc haystack.MetricsCollector) ([]haystack.Option, error) {
	maxStackSize, err := parseSize("max stack size", c.MaxStackSize)
	if err != nil {
		return nil, err
	}
	largeBlocks, err := parseSize("large block size", c.LargeBlocks)
	if err != nil {
		return nil, err
	}
	readCache, err := parseSize("read cache size", c.ReadCache)
	if err != nil {
		return nil, err
	}
	durability, err := parseDurability(c.Durability)
	if err != nil {
		return nil, err
	}

	opts := []haystack.Option{
		haystack.WithMaxStackSize(maxStackSize),
		haystack.WithDurability(durability),
		haystack.WithLogger(logger),
		haystack.WithMetricsCollector(mc),
		haystack.WithCreateDir(),
	}
	if largeBlocks > 0 {
		opts = append(opts, haystack.WithLargeIO(int(largeBlocks)))
	}
	if readCache > 0 {
		opts = append(opts, haystack.WithReadCache(readCache))
	}
	return opts, nil
}

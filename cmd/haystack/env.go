package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/haystack"
	promcollector "github.com/hupe1980/haystack/metrics/prometheus"
)

// env is the state shared by all commands.
type env struct {
	cfg      Config
	logger   *haystack.Logger
	registry *prometheus.Registry
	metrics  *promcollector.Collector
}

// flagOverrides maps global flags onto config fields.
func flagOverrides(cfg *Config) map[string]*string {
	return map[string]*string{
		"dir":            &cfg.Dir,
		"max-stack-size": &cfg.MaxStackSize,
		"large-blocks":   &cfg.LargeBlocks,
		"durability":     &cfg.Durability,
		"read-cache":     &cfg.ReadCache,
		"log-level":      &cfg.LogLevel,
		"log-format":     &cfg.LogFormat,
		"metrics-file":   &cfg.MetricsFile,
	}
}

// newEnv loads the config file and applies the flags that were set on the
// command line on top of it.
func newEnv(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	for name, field := range flagOverrides(&cfg) {
		if c.IsSet(name) {
			*field = c.String(name)
		}
	}

	logger, err := cfg.newLogger(c.App.ErrWriter)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  promcollector.New(reg),
	}, nil
}

// open opens the haystack group in the configured directory.
func (e *env) open(extra ...haystack.Option) (*haystack.Store, error) {
	opts, err := e.cfg.storeOptions(e.logger, e.metrics)
	if err != nil {
		return nil, err
	}
	return haystack.Open(e.cfg.Dir, append(opts, extra...)...)
}

// close writes the metrics file if one is configured.
func (e *env) close() error {
	if e.cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(e.cfg.MetricsFile, e.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// action wraps a command body with env setup and teardown.
func action(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := newEnv(c)
		if err != nil {
			return err
		}
		err = fn(c, e)
		if cerr := e.close(); err == nil {
			err = cerr
		}
		return err
	}
}

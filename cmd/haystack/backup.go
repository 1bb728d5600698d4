package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/haystack/backup"
)

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "concurrency", Usage: "Files transferred in parallel"},
		&cli.StringFlag{Name: "rate-limit", Usage: "Maximum throughput, e.g. `50MB` per second"},
		&cli.StringFlag{Name: "prefix", Usage: "Object prefix inside the target"},
	}
}

// backupOptions merges the backup section of the config with the command flags.
func backupOptions(c *cli.Context, e *env) ([]backup.Option, error) {
	cfg := e.cfg.Backup
	if c.IsSet("compression") {
		cfg.Compression = c.String("compression")
	}
	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("rate-limit") {
		cfg.RateLimit = c.String("rate-limit")
	}

	compression, err := backup.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	rate, err := parseSize("rate limit", cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	return []backup.Option{
		backup.WithCompression(compression),
		backup.WithConcurrency(cfg.Concurrency),
		backup.WithRateLimit(rate),
		backup.WithPrefix(c.String("prefix")),
		backup.WithLogger(e.logger.Logger),
	}, nil
}

func resolveTarget(c *cli.Context, e *env, flag string) (target, error) {
	raw := c.String(flag)
	if raw == "" {
		raw = e.cfg.Backup.Target
	}
	if raw == "" {
		return target{}, fmt.Errorf("--%s is required", flag)
	}
	return parseTarget(raw)
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Copy a consistent snapshot of the haystack group to a target",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Backup target (dir://PATH, s3://BUCKET/PREFIX, minio://HOST/BUCKET/PREFIX)"},
			&cli.StringFlag{Name: "compression", Usage: "Compression (none, lz4, zstd)"},
		}, transferFlags()...),
		Action: action(func(c *cli.Context, e *env) error {
			t, err := resolveTarget(c, e, "target")
			if err != nil {
				return err
			}
			opts, err := backupOptions(c, e)
			if err != nil {
				return err
			}
			store, err := t.open(c.Context)
			if err != nil {
				return err
			}

			m, err := backup.Export(c.Context, e.cfg.Dir, store, opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "backed up %d shards, %s needles, %s (%s stored) to %s\n",
				len(m.Shards), humanize.Comma(m.NeedleCount()),
				humanize.Bytes(uint64(m.DataSize())), humanize.Bytes(uint64(m.StoredSize())), t)
			return nil
		}),
	}
}

func restoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Restore a backup into an empty haystack group directory",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Backup location, same forms as backup --target"},
		}, transferFlags()...),
		Action: action(func(c *cli.Context, e *env) error {
			t, err := resolveTarget(c, e, "source")
			if err != nil {
				return err
			}
			opts, err := backupOptions(c, e)
			if err != nil {
				return err
			}
			store, err := t.open(c.Context)
			if err != nil {
				return err
			}

			m, err := backup.Restore(c.Context, store, e.cfg.Dir, opts...)
			if err != nil {
				return err
			}

			// A restored group must already be consistent.
			s, err := e.open()
			if err != nil {
				return err
			}
			report, err := s.Recover()
			if err != nil {
				return err
			}
			if report.Repaired() > 0 {
				return errors.New("restored group needed repairs, the backup may be damaged")
			}

			fmt.Fprintf(c.App.Writer, "restored %d shards, %s needles, %s into %s\n",
				len(m.Shards), humanize.Comma(m.NeedleCount()), humanize.Bytes(uint64(m.DataSize())), e.cfg.Dir)
			return nil
		}),
	}
}

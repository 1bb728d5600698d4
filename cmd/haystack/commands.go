package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/haystack"
)

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Write files into the haystack group",
		ArgsUsage: "FILE...",
		Action: action(func(c *cli.Context, e *env) error {
			if c.NArg() == 0 {
				return errors.New("put: at least one file is required")
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			for _, path := range c.Args().Slice() {
				loc, err := s.WriteFile(path)
				if err != nil {
					return fmt.Errorf("put %s: %w", path, err)
				}
				fmt.Fprintf(c.App.Writer, "%s\t%d\t%d\t%s\n", path, loc.Shard, loc.Needle, humanize.IBytes(uint64(loc.Size)))
			}
			return nil
		}),
	}
}

func parseNeedleArgs(c *cli.Context) (sh, n int, err error) {
	if c.NArg() != 2 {
		return 0, 0, errors.New("expected SHARD NEEDLE")
	}
	if sh, err = strconv.Atoi(c.Args().Get(0)); err != nil {
		return 0, 0, fmt.Errorf("invalid shard %q", c.Args().Get(0))
	}
	if n, err = strconv.Atoi(c.Args().Get(1)); err != nil {
		return 0, 0, fmt.Errorf("invalid needle %q", c.Args().Get(1))
	}
	return sh, n, nil
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read a needle to stdout or a file",
		ArgsUsage: "SHARD NEEDLE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, TakesFile: true, Usage: "Write the needle to `FILE`"},
		},
		Action: action(func(c *cli.Context, e *env) error {
			sh, n, err := parseNeedleArgs(c)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			if out := c.String("output"); out != "" {
				_, err = s.ReadFile(out, sh, n)
			} else {
				_, err = s.ReadTo(c.App.Writer, sh, n)
			}
			if err != nil {
				return fmt.Errorf("get %d/%d: %w", sh, n, err)
			}
			return nil
		}),
	}
}

func recoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "recover",
		Usage: "Repair shards torn by a crash",
		Action: action(func(c *cli.Context, e *env) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			report, err := s.Recover()
			if err != nil {
				return err
			}
			printReport(c, report)
			return nil
		}),
	}
}

func printReport(c *cli.Context, report haystack.RecoveryReport) {
	for _, r := range report.Repairs {
		fmt.Fprintf(c.App.Writer, "shard %d: %s (index %d -> %d, stack %d -> %d)\n",
			r.Shard, r.Action, r.IndexBefore, r.IndexAfter, r.StackBefore, r.StackAfter)
	}
	fmt.Fprintf(c.App.Writer, "inspected %d shards, repaired %d\n", report.Inspected, report.Repaired())
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show shard and needle statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "shards", Usage: "List every shard"},
		},
		Action: action(func(c *cli.Context, e *env) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			st, err := s.Stats()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "directory\t%s\n", s.Dir())
			fmt.Fprintf(tw, "max stack size\t%s\n", humanize.Bytes(uint64(s.MaxStackSize())))
			fmt.Fprintf(tw, "shards\t%d\n", st.Shards)
			fmt.Fprintf(tw, "needles\t%s\n", humanize.Comma(st.Needles))
			fmt.Fprintf(tw, "data size\t%s\n", humanize.Bytes(uint64(st.DataSize)))

			if c.Bool("shards") {
				shards, err := s.Shards()
				if err != nil {
					return err
				}
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "SHARD\tNEEDLES\tINDEX\tSTACK")
				for _, sh := range shards {
					fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", sh.Number, sh.Needles, sh.IndexSize, humanize.Bytes(uint64(sh.StackSize)))
				}
			}
			return tw.Flush()
		}),
	}
}

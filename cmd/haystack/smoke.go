package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/haystack"
	"github.com/hupe1980/haystack/internal/fs"
	"github.com/hupe1980/haystack/internal/shard"
)

// maxRecoverPasses bounds the Recover loop of the smoke test. A shard torn in
// both files needs one pass per file.
const maxRecoverPasses = 3

func smokeCommand() *cli.Command {
	return &cli.Command{
		Name:      "smoke",
		Usage:     "Write a directory of files, simulate a crash, recover and verify",
		ArgsUsage: "INPUT_DIR",
		Description: "Every regular file in INPUT_DIR is written into the group. Then 8 bytes of\n" +
			"garbage are appended to the last index file and the stack of shard 0 is cut\n" +
			"short by up to --chop bytes within its last needle. After Recover every needle\n" +
			"is read back and compared with its input file.",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "chop", Value: 10000, Usage: "Bytes removed from the end of shard 0's stack"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Also write every needle read back into `DIR`"},
			&cli.BoolFlag{Name: "clean", Usage: "Delete existing shard files in the group directory first"},
		},
		Action: action(func(c *cli.Context, e *env) error {
			if c.NArg() != 1 {
				return errors.New("smoke: INPUT_DIR is required")
			}
			return runSmoke(c, e, c.Args().First())
		}),
	}
}

type smokeEntry struct {
	input string
	loc   haystack.Location
}

func runSmoke(c *cli.Context, e *env, inputDir string) error {
	out := c.App.Writer

	s, err := e.open()
	if err != nil {
		return err
	}
	if err := prepareSmokeDir(s, c.Bool("clean")); err != nil {
		return err
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return err
	}
	var written []smokeEntry
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		path := filepath.Join(inputDir, de.Name())
		loc, err := s.WriteFile(path)
		if errors.Is(err, haystack.ErrInvalidInput) {
			fmt.Fprintf(out, "%s : skipped (empty)\n", de.Name())
			continue
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, smokeEntry{input: path, loc: loc})
	}
	if len(written) == 0 {
		return fmt.Errorf("smoke: no input files in %s", inputDir)
	}

	if err := simulateCrash(s, c.Int64("chop")); err != nil {
		return err
	}

	for range maxRecoverPasses {
		report, err := s.Recover()
		if err != nil {
			return err
		}
		printReport(c, report)
		if report.Repaired() == 0 {
			break
		}
	}

	outDir := c.String("output")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}

	var ok, lost, bad int
	for _, w := range written {
		name := fmt.Sprintf("%d-%d%s", w.loc.Shard, w.loc.Needle, filepath.Ext(w.input))
		got, err := s.Read(w.loc.Shard, w.loc.Needle)
		if errors.Is(err, haystack.ErrNotFound) {
			fmt.Fprintf(out, "%s : lost\n", name)
			lost++
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if outDir != "" {
			if err := os.WriteFile(filepath.Join(outDir, name), got, 0o644); err != nil {
				return err
			}
		}

		want, err := os.ReadFile(w.input)
		if err != nil {
			return err
		}
		if bytes.Equal(want, got) {
			fmt.Fprintf(out, "%s : OK\n", name)
			ok++
		} else {
			fmt.Fprintf(out, "%s : Error\n", name)
			bad++
		}
	}

	fmt.Fprintf(out, "%d ok, %d lost, %d mismatched\n", ok, lost, bad)
	if bad > 0 {
		return fmt.Errorf("smoke: %d needles do not match their input", bad)
	}
	return nil
}

// prepareSmokeDir makes sure the group is empty, deleting shard files when
// clean is set.
func prepareSmokeDir(s *haystack.Store, clean bool) error {
	infos, err := shard.List(fs.Default, s.Dir())
	if err != nil {
		return err
	}
	if len(infos) > 0 && !clean {
		return fmt.Errorf("smoke: %s already holds %d shards, use --clean", s.Dir(), len(infos))
	}
	for _, info := range infos {
		for _, path := range []string{info.Index, info.Stack} {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

// simulateCrash tears the last index file and the stack of shard 0.
func simulateCrash(s *haystack.Store, chop int64) error {
	shards, err := s.Shards()
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return nil
	}

	last := shard.PathsFor(s.Dir(), shards[len(shards)-1].Number)
	f, err := os.OpenFile(last.Index, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	if _, err := f.Write(make([]byte, 8)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	first := shards[0]
	if first.Needles == 0 || chop <= 0 {
		return nil
	}
	loc, err := s.Locate(first.Number, int(first.Needles-1))
	if err != nil {
		return err
	}
	return os.Truncate(shard.PathsFor(s.Dir(), first.Number).Stack, first.StackSize-min(chop, loc.Size))
}

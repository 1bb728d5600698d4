// Command haystack stores files in a haystack group and manages its backups.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	Version   = "development"
	BuildTime = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "haystack:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "haystack",
		Usage:   "Pack small blobs into large append-only stack files",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Haystack group directory", EnvVars: []string{"HAYSTACK_DIR"}},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, TakesFile: true, Usage: "YAML config file", EnvVars: []string{"HAYSTACK_CONFIG"}},
			&cli.StringFlag{Name: "max-stack-size", Usage: "Soft cap of a stack file, e.g. `10GB`", EnvVars: []string{"HAYSTACK_MAX_STACK_SIZE"}},
			&cli.StringFlag{Name: "large-blocks", Usage: "Use buffered IO with blocks of `SIZE` (e.g. 1MiB) instead of direct 4 KiB blocks"},
			&cli.StringFlag{Name: "durability", Usage: "Append durability (sync, async)"},
			&cli.StringFlag{Name: "read-cache", Usage: "Needle read cache capacity, e.g. `64MiB`"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (debug, info, warn, error)", EnvVars: []string{"LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Usage: "Log format (text, json)", EnvVars: []string{"LOG_FORMAT"}},
			&cli.StringFlag{Name: "metrics-file", TakesFile: true, Usage: "Write Prometheus metrics in text format to `FILE` on exit"},
		},
		Commands: []*cli.Command{
			putCommand(),
			getCommand(),
			recoverCommand(),
			statsCommand(),
			smokeCommand(),
			backupCommand(),
			restoreCommand(),
		},
	}
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "signal",
		Usage:   "Arbitrate crypto trading signals from live candles",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration `FILE`. Defaults are used when empty.",
				Sources: cli.EnvVars("ARGO_SIGNAL_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			scanCommand(),
			watchCommand(),
			candlesCommand(),
			schemaCommand(),
			cooldownCommand(),
			biasCommand(),
			versionCommand(),
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

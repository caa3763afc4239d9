package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/app"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/urfave/cli/v3"
)

func biasCommand() *cli.Command {
	return &cli.Command{
		Name:  "bias",
		Usage: "Manage the open bias kept in the signal journal",
		Commands: []*cli.Command{
			{
				Name:      "close",
				Usage:     "Close the open bias of a symbol on one interval",
				ArgsUsage: "SYMBOL INTERVAL",
				Action:    biasCloseAction,
			},
		},
	}
}

func biasCloseAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New(errors.ErrCodeInvalidParameter, "usage: signal bias close SYMBOL INTERVAL")
	}

	symbol := strings.ToUpper(cmd.Args().Get(0))

	interval, err := types.ParseInterval(cmd.Args().Get(1))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInterval, "invalid bias interval", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	journal, closeJournal, err := app.OpenJournal(cfg, logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer closeJournal() //nolint:errcheck

	if err := journal.CloseBias(ctx, symbol, interval, time.Now().UTC()); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "closed %s bias on %s\n", symbol, interval)

	return err
}

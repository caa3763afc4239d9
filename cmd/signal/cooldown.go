package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rxtech-lab/argo-signal/internal/app"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/urfave/cli/v3"
)

func cooldownCommand() *cli.Command {
	return &cli.Command{
		Name:      "cooldown",
		Usage:     "Print the cooldown ledger as JSON",
		ArgsUsage: "[SYMBOL]",
		Action:    cooldownAction,
	}
}

func cooldownAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ledger, closeLedger, err := app.OpenLedger(ctx, cfg, logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer closeLedger() //nolint:errcheck

	entries, err := ledger.Entries(ctx, strings.ToUpper(cmd.Args().First()))
	if err != nil {
		return err
	}

	out, err := sonic.ConfigStd.MarshalIndent(cooldown.Export(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cooldown ledger: %w", err)
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, string(out))

	return err
}

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/app"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
)

// candleLine is one JSON line of the candles command.
type candleLine struct {
	Source   string         `json:"source"`
	Interval types.Interval `json:"interval"`
	types.Candle
}

func candlesCommand() *cli.Command {
	return &cli.Command{
		Name:      "candles",
		Usage:     "Fetch candles through the failover chain and print them as JSON lines",
		ArgsUsage: "SYMBOL",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Candle interval; repeatable",
				Value:   []string{"1h"},
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of most recent candles per interval. Defaults to the configured limit.",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "End date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
		},
		Action: candlesAction,
	}
}

func candlesAction(ctx context.Context, cmd *cli.Command) error {
	symbol := strings.ToUpper(cmd.Args().First())
	if symbol == "" {
		return fmt.Errorf("a symbol is required")
	}

	intervals, err := parseIntervals(cmd.StringSlice("interval"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fetch, err := app.NewFetcher(cfg, logger.NewNopLogger(), nil)
	if err != nil {
		return err
	}

	req := provider.FetchRequest{
		Symbol:    symbol,
		Intervals: intervals,
		Limit:     cfg.Fetch.Limit,
		Start:     optionalTime(cmd.Timestamp("start")),
		End:       optionalTime(cmd.Timestamp("end")),
	}

	if limit := cmd.Int("limit"); limit > 0 {
		req.Limit = int(limit)
	}

	set, source, ok := fetch.Fetch(ctx, req)
	if !ok {
		var reasons []string
		for _, attempt := range fetch.LastAttempts() {
			reasons = append(reasons, fmt.Sprintf("%s: %v", attempt.Source, attempt.Err))
		}

		return fmt.Errorf("no source returned candles for %s (%s)", symbol, strings.Join(reasons, "; "))
	}

	for _, interval := range intervals {
		for _, candle := range set[interval] {
			line, err := sonic.Marshal(candleLine{Source: source, Interval: interval, Candle: candle})
			if err != nil {
				return fmt.Errorf("failed to encode candle: %w", err)
			}

			if _, err := fmt.Fprintln(cmd.Root().Writer, string(line)); err != nil {
				return err
			}
		}
	}

	return nil
}

func parseIntervals(values []string) ([]types.Interval, error) {
	out := make([]types.Interval, 0, len(values))

	for _, v := range values {
		interval, err := types.ParseInterval(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}

		out = append(out, interval)
	}

	return out, nil
}

func optionalTime(t time.Time) optional.Option[time.Time] {
	if t.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(t)
}

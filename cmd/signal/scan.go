package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/app"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/scanner"
	"github.com/rxtech-lab/argo-signal/internal/server"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan the configured symbols once or on every tick",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single scan and exit",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Write every decision as one JSON line to stdout",
			},
			&cli.BoolFlag{
				Name:  "signals-only",
				Usage: "With --json, skip no-signal decisions",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "With --once, show a progress bar on stderr",
			},
			&cli.StringSliceFlag{
				Name:  "override",
				Usage: "Manual directive `SYMBOL=buy|sell` applied on the first tick; repeatable",
			},
			&cli.StringSliceFlag{
				Name:  "symbol",
				Usage: "Scan these symbols instead of the configured ones; repeatable",
			},
		},
		Action: scanAction,
	}
}

func scanAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if symbols := cmd.StringSlice("symbol"); len(symbols) > 0 {
		cfg.Symbols = make([]string, len(symbols))
		for i, s := range symbols {
			cfg.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
		}
	}

	overrides, err := parseOverrides(cmd.StringSlice("override"))
	if err != nil {
		return err
	}

	if cfg.Overrides == nil {
		cfg.Overrides = make(map[string]types.Direction, len(overrides))
	}

	for symbol, direction := range overrides {
		cfg.Overrides[symbol] = direction
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var sinks []scanner.Sink
	if cmd.Bool("json") {
		sinks = append(sinks, scanner.NewJSONSink(cmd.Root().Writer, cmd.Bool("signals-only")))
	}

	if cmd.Bool("progress") && cmd.Bool("once") {
		sinks = append(sinks, newProgressSink(len(cfg.Symbols)))
	}

	var hub *server.Hub
	if cfg.Metrics.Enabled {
		hub = server.NewHub(log)
		sinks = append(sinks, hub)
	}

	engine, err := app.New(ctx, cfg, log, sinks...)
	if err != nil {
		return err
	}

	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn("Failed to close engine", zap.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		srv := server.New(engine.Metrics, engine.Ledger, engine.Journal, log, server.WithStream(hub))
		if err := srv.Start(cfg.Metrics.Addr); err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("Failed to stop HTTP server", zap.Error(err))
			}
		}()
	}

	if cmd.Bool("once") {
		engine.Scanner.RunOnce(ctx, cfg.Symbols)

		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return engine.Scanner.Run(ctx, cfg.Symbols, cfg.Scan.Every)
}

// parseOverrides reads SYMBOL=direction pairs.
func parseOverrides(values []string) (map[string]types.Direction, error) {
	out := make(map[string]types.Direction, len(values))

	for _, value := range values {
		symbol, raw, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(symbol) == "" {
			return nil, fmt.Errorf("invalid override %q, expected SYMBOL=buy|sell", value)
		}

		direction, err := types.ParseDirection(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil || direction == types.DirectionNone {
			return nil, fmt.Errorf("invalid override %q, direction must be buy or sell", value)
		}

		out[strings.ToUpper(strings.TrimSpace(symbol))] = direction
	}

	return out, nil
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}

		return cfg, nil
	}

	return config.Load(path)
}

func newLogger(cmd *cli.Command, cfg config.Config) (*logger.Logger, error) {
	level := cfg.Log.Level
	if override := cmd.String("log-level"); override != "" {
		level = override
	}

	if level == "" {
		level = "info"
	}

	return logger.NewLoggerWithLevel(level)
}

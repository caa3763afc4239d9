package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-signal/internal/app"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Run the scan loop behind a live terminal dashboard",
		Action: watchAction,
	}
}

// programSink forwards decisions to the dashboard.
type programSink struct {
	program *tea.Program
}

func (s *programSink) Publish(_ context.Context, decision types.SignalDecision) error {
	if s.program != nil {
		s.program.Send(DecisionMsg{Decision: decision})
	}

	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// zap output would corrupt the terminal UI.
	sink := &programSink{}

	engine, err := app.New(ctx, cfg, logger.NewNopLogger(), sink)
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	program := tea.NewProgram(NewModel(engine.Journal), tea.WithAltScreen(), tea.WithContext(ctx))
	sink.program = program

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanDone := make(chan error, 1)

	go func() {
		scanDone <- engine.Scanner.Run(scanCtx, cfg.Symbols, cfg.Scan.Every)
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-scanDone

		return err
	}

	cancel()

	return <-scanDone
}

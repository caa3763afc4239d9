package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/schollz/progressbar/v3"
)

// progressSink advances a bar for every symbol decided in a single scan.
type progressSink struct {
	bar *progressbar.ProgressBar
}

func newProgressSink(symbols int) *progressSink {
	bar := progressbar.Default(int64(symbols))
	bar.Describe("Scanning symbols")

	return &progressSink{bar: bar}
}

func (s *progressSink) Publish(_ context.Context, decision types.SignalDecision) error {
	s.bar.Describe(fmt.Sprintf("Scanned %s (%s)", decision.Symbol, decision.Signal))

	return s.bar.Add(1)
}

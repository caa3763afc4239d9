package scanner

import (
	"context"
	"io"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"go.uber.org/zap"
)

// Sink receives every decision produced by a scan.
type Sink interface {
	Publish(ctx context.Context, decision types.SignalDecision) error
}

// LogSink writes decisions to the structured logger. Signals log at info,
// no-signal decisions at debug.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &LogSink{log: log.Named("decision")}
}

func (s *LogSink) Publish(_ context.Context, decision types.SignalDecision) error {
	fields := []zap.Field{
		zap.String("symbol", decision.Symbol),
		zap.String("signal", string(decision.Signal)),
		zap.String("mode", string(decision.Mode)),
		zap.String("source", decision.Source),
		zap.Time("time", decision.Time),
		zap.Any("metadata", decision.Metadata),
	}

	if decision.IsSignal() {
		fields = append(fields, zap.String("id", decision.ID), zap.String("interval", decision.Interval.String()))
		s.log.Info("Signal", fields...)

		return nil
	}

	s.log.Debug("No signal", fields...)

	return nil
}

// JSONSink writes one JSON document per decision to w.
type JSONSink struct {
	mu          sync.Mutex
	w           io.Writer
	signalsOnly bool
}

// NewJSONSink creates a JSONSink. With signalsOnly set, no-signal decisions are dropped.
func NewJSONSink(w io.Writer, signalsOnly bool) *JSONSink {
	return &JSONSink{w: w, signalsOnly: signalsOnly}
}

func (s *JSONSink) Publish(_ context.Context, decision types.SignalDecision) error {
	if s.signalsOnly && !decision.IsSignal() {
		return nil
	}

	data, err := sonic.Marshal(decision)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return err
	}

	return nil
}

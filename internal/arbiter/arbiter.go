package arbiter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/threshold"
	"github.com/rxtech-lab/argo-signal/internal/types"
	argoErrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// No-signal reasons carried in decision metadata.
const (
	ReasonNoMatch           = "no_match"
	ReasonOverrideRejected  = "override_rejected"
	ReasonSourceUnavailable = "source_unavailable"
)

// DivergenceDetector finds the most recent price/RSI divergence.
type DivergenceDetector interface {
	Detect(candles []types.Candle, rsi []optional.Option[float64], now time.Time) optional.Option[types.DivergenceEvent]
}

// ThresholdScanner walks the RSI ladder.
type ThresholdScanner interface {
	Scan(rsiByInterval map[types.Interval]optional.Option[float64]) threshold.Result
}

// MomentumValidator suggests a direction and grades it.
type MomentumValidator interface {
	Windows() []int
	Suggest(candles []types.Candle, snapshot types.IndicatorSnapshot) types.Direction
	EvaluateWindows(symbol string, candles []types.Candle, direction types.Direction, ns []int) (types.Strength, float64)
}

// Runtime bundles the collaborators of an Arbiter. It is built once per
// process and passed in explicitly. Journal and Metrics may be nil.
type Runtime struct {
	Indicators *indicator.Engine
	Divergence DivergenceDetector
	Thresholds ThresholdScanner
	Momentum   MomentumValidator
	Ledger     cooldown.Ledger
	Journal    history.Journal
	Metrics    *metrics.Recorder
	Logger     *logger.Logger
}

// Config holds the timeframes and restrictions of the decision chain.
type Config struct {
	// TradeMode restricts the directions that may be emitted
	TradeMode types.TradeMode `json:"trade_mode" yaml:"trade_mode" jsonschema:"enum=both,enum=long_only,enum=short_only,default=both" validate:"omitempty,oneof=both long_only short_only"`
	// DivergenceInterval is the series scanned for divergences
	DivergenceInterval types.Interval `json:"divergence_interval" yaml:"divergence_interval"`
	// MomentumInterval is the series graded by the momentum validator
	MomentumInterval types.Interval `json:"momentum_interval" yaml:"momentum_interval"`
	// OverrideInterval tags accepted manual overrides
	OverrideInterval types.Interval `json:"override_interval" yaml:"override_interval"`
}

// DefaultConfig returns the stock chain timeframes.
func DefaultConfig() Config {
	return Config{
		TradeMode:          types.TradeModeBoth,
		DivergenceInterval: types.Interval1h,
		MomentumInterval:   types.Interval5m,
		OverrideInterval:   types.Interval1h,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()

	if c.TradeMode == "" {
		c.TradeMode = defaults.TradeMode
	}

	if !c.DivergenceInterval.Valid() {
		c.DivergenceInterval = defaults.DivergenceInterval
	}

	if !c.MomentumInterval.Valid() {
		c.MomentumInterval = defaults.MomentumInterval
	}

	if !c.OverrideInterval.Valid() {
		c.OverrideInterval = defaults.OverrideInterval
	}

	return c
}

// Request is the input of one arbitration pass.
type Request struct {
	Symbol   string
	Candles  types.CandleSet
	Source   string
	Override optional.Option[types.Direction]
	Now      time.Time
}

// Arbiter merges the detectors into one decision per symbol.
//
// The chain is strict: a manual override, then divergence, then the RSI
// ladder, then momentum confirmed against the open bias. Steps after the
// override must pass the cooldown ledger and are recorded on acceptance.
type Arbiter struct {
	runtime Runtime
	config  Config
	log     *logger.Logger

	mu      sync.Mutex
	invoked map[string]bool
}

// New checks the runtime and returns an Arbiter.
func New(runtime Runtime, config Config) (*Arbiter, error) {
	switch {
	case runtime.Indicators == nil:
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "arbiter requires an indicator engine")
	case runtime.Divergence == nil:
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "arbiter requires a divergence detector")
	case runtime.Thresholds == nil:
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "arbiter requires a threshold analyzer")
	case runtime.Momentum == nil:
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "arbiter requires a momentum validator")
	case runtime.Ledger == nil:
		return nil, argoErrors.New(argoErrors.ErrCodeInvalidConfiguration, "arbiter requires a cooldown ledger")
	}

	config = config.withDefaults()

	switch config.TradeMode {
	case types.TradeModeBoth, types.TradeModeLongOnly, types.TradeModeShortOnly:
	default:
		return nil, argoErrors.Newf(argoErrors.ErrCodeInvalidConfiguration, "unknown trade mode %q", config.TradeMode)
	}

	log := runtime.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Arbiter{
		runtime: runtime,
		config:  config,
		log:     log.Named("arbiter"),
		invoked: make(map[string]bool),
	}, nil
}

// Config returns the effective configuration.
func (a *Arbiter) Config() Config {
	return a.config
}

// firstInvocation reports whether symbol is seen for the first time in this run.
func (a *Arbiter) firstInvocation(symbol string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.invoked[symbol] {
		return false
	}

	a.invoked[symbol] = true

	return true
}

// Decide runs the decision chain for one symbol. It never fails: every error
// downgrades to a no-signal decision.
func (a *Arbiter) Decide(ctx context.Context, req Request) types.SignalDecision {
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	pass := &pass{
		arbiter: a,
		req:     req,
		now:     now,
		log:     a.log.ForSymbol(req.Symbol),
	}

	decision := pass.run(ctx, a.firstInvocation(req.Symbol))
	a.runtime.Metrics.RecordDecision(string(decision.Mode), string(decision.Signal))

	return decision
}

// NoSignal builds the no-signal decision for a symbol whose candles could not
// be fetched. It counts as an invocation.
func (a *Arbiter) NoSignal(symbol, reason string, now time.Time) types.SignalDecision {
	a.firstInvocation(symbol)

	decision := types.NoSignal(symbol, now, map[string]any{"reason": reason})
	a.runtime.Metrics.RecordDecision(string(decision.Mode), string(decision.Signal))

	return decision
}

// candidate is a detector proposal awaiting the trade mode and cooldown checks.
type candidate struct {
	mode     types.Mode
	signal   types.Direction
	interval types.Interval
	metadata map[string]any
}

// pass holds the state of one Decide call.
type pass struct {
	arbiter *Arbiter
	req     Request
	now     time.Time
	log     *logger.Logger

	series     map[types.Interval]indicator.Series
	rejections []map[string]any
}

func (p *pass) run(ctx context.Context, first bool) types.SignalDecision {
	if first && p.req.Override.IsSome() {
		return p.override(ctx, p.req.Override.Unwrap())
	}

	p.computeIndicators()

	if decision, ok := p.divergence(ctx); ok {
		return decision
	}

	scan := p.arbiter.runtime.Thresholds.Scan(p.rsiByInterval())
	if decision, ok := p.rsi(ctx, scan); ok {
		return decision
	}

	if decision, ok := p.momentum(ctx); ok {
		return decision
	}

	metadata := map[string]any{"reason": ReasonNoMatch}
	if scan.RSI.IsSome() {
		metadata["last_rsi"] = scan.RSI.Unwrap()
		metadata["last_rsi_interval"] = scan.Interval.String()
	}

	if len(p.rejections) > 0 {
		metadata["rejections"] = p.rejections
	}

	if short := p.insufficient(); len(short) > 0 {
		metadata["insufficient_history"] = short
	}

	p.log.Debug("No signal", zap.Any("metadata", metadata))

	return p.noSignal(metadata)
}

func (p *pass) noSignal(metadata map[string]any) types.SignalDecision {
	decision := types.NoSignal(p.req.Symbol, p.now, metadata)
	decision.Source = p.req.Source

	return decision
}

func (p *pass) override(ctx context.Context, signal types.Direction) types.SignalDecision {
	if signal != types.DirectionBuy && signal != types.DirectionSell {
		p.log.Warn("Ignoring override without a direction", zap.String("override", string(signal)))

		return p.noSignal(map[string]any{"reason": ReasonOverrideRejected, "override": string(signal)})
	}

	if !p.arbiter.config.TradeMode.Allows(signal) {
		p.arbiter.runtime.Metrics.RecordTradeModeRejection(string(types.ModeOverride))
		p.log.Info("Override rejected by trade mode",
			zap.String("override", string(signal)),
			zap.String("trade_mode", string(p.arbiter.config.TradeMode)),
		)

		return p.noSignal(map[string]any{
			"reason":     ReasonOverrideRejected,
			"override":   string(signal),
			"trade_mode": string(p.arbiter.config.TradeMode),
		})
	}

	decision := p.decision(candidate{
		mode:     types.ModeOverride,
		signal:   signal,
		interval: p.arbiter.config.OverrideInterval,
		metadata: map[string]any{"manual": true},
	})
	p.journal(ctx, decision)

	p.log.Info("Override accepted", zap.String("signal", string(signal)))

	return decision
}

func (p *pass) computeIndicators() {
	p.series = make(map[types.Interval]indicator.Series, len(p.req.Candles))

	for interval, candles := range p.req.Candles {
		p.series[interval] = p.arbiter.runtime.Indicators.Compute(candles)
	}
}

// insufficient lists, per interval, the indicators whose lookback the candle
// history did not fill.
func (p *pass) insufficient() map[string][]string {
	out := make(map[string][]string)

	for interval, series := range p.series {
		for _, name := range series.Insufficient {
			out[interval.String()] = append(out[interval.String()], string(name))
		}
	}

	return out
}

func (p *pass) rsiByInterval() map[types.Interval]optional.Option[float64] {
	out := make(map[types.Interval]optional.Option[float64], len(p.series))
	for interval, series := range p.series {
		out[interval] = series.RSI.Last()
	}

	return out
}

func (p *pass) divergence(ctx context.Context) (types.SignalDecision, bool) {
	interval := p.arbiter.config.DivergenceInterval

	candles := p.req.Candles[interval]
	if len(candles) == 0 {
		return types.SignalDecision{}, false
	}

	event := p.arbiter.runtime.Divergence.Detect(candles, p.series[interval].RSI, p.now)
	if event.IsNone() {
		return types.SignalDecision{}, false
	}

	ev := event.Unwrap()

	return p.accept(ctx, candidate{
		mode:     types.ModeDivergence,
		signal:   ev.Kind.Direction(),
		interval: interval,
		metadata: map[string]any{
			"divergence":    string(ev.Kind),
			"price":         ev.Price,
			"rsi":           ev.RSI,
			"index":         ev.Index,
			"extremum_time": ev.Time.UTC().Format(time.RFC3339),
		},
	})
}

func (p *pass) rsi(ctx context.Context, scan threshold.Result) (types.SignalDecision, bool) {
	if !scan.Fired() {
		return types.SignalDecision{}, false
	}

	metadata := map[string]any{
		"rsi":     scan.RSI.Unwrap(),
		"checked": intervalNames(scan.Checked),
	}

	if scan.PreviousRSI.IsSome() {
		metadata["previous_rsi"] = scan.PreviousRSI.Unwrap()
	}

	return p.accept(ctx, candidate{
		mode:     types.ModeRSI,
		signal:   scan.Signal,
		interval: scan.Interval,
		metadata: metadata,
	})
}

func (p *pass) momentum(ctx context.Context) (types.SignalDecision, bool) {
	interval := p.arbiter.config.MomentumInterval
	validator := p.arbiter.runtime.Momentum

	candles := p.req.Candles[interval]
	if len(candles) == 0 {
		return types.SignalDecision{}, false
	}

	snapshot := p.series[interval].Latest()

	suggested := validator.Suggest(candles, snapshot)
	if suggested != types.DirectionBuy && suggested != types.DirectionSell {
		return types.SignalDecision{}, false
	}

	p.log.Debug("Momentum suggestion",
		zap.String("suggested", string(suggested)),
		zap.Any("indicators", snapshot.Values()),
	)

	strength, score := validator.EvaluateWindows(p.req.Symbol, candles, suggested, validator.Windows())
	if strength != types.StrengthWeak && strength != types.StrengthStrong {
		return types.SignalDecision{}, false
	}

	metadata := map[string]any{
		"suggested": string(suggested),
		"strength":  string(strength),
		"score":     score,
	}

	tagged := interval

	bias, found, err := p.openBias(ctx)
	if err != nil {
		p.log.Error("Failed to read open bias, suppressing momentum signal", zap.Error(err))

		return types.SignalDecision{}, false
	}

	if found {
		if bias.Signal == suggested.Opposite() {
			p.log.Debug("Momentum suggestion contradicts open bias",
				zap.String("suggested", string(suggested)),
				zap.String("bias", string(bias.Signal)),
				zap.String("bias_interval", bias.Interval.String()),
			)

			return types.SignalDecision{}, false
		}

		tagged = bias.Interval
		metadata["bias_interval"] = bias.Interval.String()
		metadata["bias_mode"] = string(bias.Mode)
	}

	return p.accept(ctx, candidate{
		mode:     types.ModeMomentum,
		signal:   suggested,
		interval: tagged,
		metadata: metadata,
	})
}

// openBias returns the highest priority open bias over BiasHierarchy.
func (p *pass) openBias(ctx context.Context) (history.Entry, bool, error) {
	journal := p.arbiter.runtime.Journal
	if journal == nil {
		return history.Entry{}, false, nil
	}

	for _, interval := range types.BiasHierarchy {
		entry, ok, err := journal.OpenBias(ctx, p.req.Symbol, interval)
		if err != nil {
			return history.Entry{}, false, err
		}

		if ok {
			return entry, true, nil
		}
	}

	return history.Entry{}, false, nil
}

// accept applies the trade mode and the cooldown ledger to c. A blocked
// candidate is noted in the no-signal metadata and the chain moves on.
func (p *pass) accept(ctx context.Context, c candidate) (types.SignalDecision, bool) {
	fields := []zap.Field{
		zap.String("mode", string(c.mode)),
		zap.String("signal", string(c.signal)),
		zap.String("interval", c.interval.String()),
	}

	if !p.arbiter.config.TradeMode.Allows(c.signal) {
		p.arbiter.runtime.Metrics.RecordTradeModeRejection(string(c.mode))
		p.reject(c, "trade_mode")
		p.log.Debug("Candidate blocked by trade mode", fields...)

		return types.SignalDecision{}, false
	}

	key := cooldown.Key{Symbol: p.req.Symbol, Interval: c.interval, SignalType: c.signal}

	acquired, err := p.arbiter.runtime.Ledger.TryAcquire(ctx, key, p.now)
	if err != nil {
		p.reject(c, "ledger_error")
		p.log.Error("Cooldown acquire failed, treating as not allowed", append(fields, zap.Error(err))...)

		return types.SignalDecision{}, false
	}

	if !acquired {
		p.arbiter.runtime.Metrics.RecordCooldownRejection(string(c.mode))
		p.reject(c, "cooldown")
		p.log.Debug("Candidate blocked by cooldown", fields...)

		return types.SignalDecision{}, false
	}

	decision := p.decision(c)
	p.journal(ctx, decision)

	p.log.Info("Signal accepted", append(fields, zap.String("id", decision.ID))...)

	return decision, true
}

func (p *pass) reject(c candidate, reason string) {
	p.rejections = append(p.rejections, map[string]any{
		"mode":     string(c.mode),
		"signal":   string(c.signal),
		"interval": c.interval.String(),
		"reason":   reason,
	})
}

func (p *pass) decision(c candidate) types.SignalDecision {
	return types.SignalDecision{
		ID:       uuid.NewString(),
		Symbol:   p.req.Symbol,
		Signal:   c.signal,
		Mode:     c.mode,
		Interval: c.interval,
		Source:   p.req.Source,
		Time:     p.now,
		Metadata: c.metadata,
	}
}

// journal appends an accepted decision. The signal stands even when the
// journal write fails since the cooldown has already been recorded.
func (p *pass) journal(ctx context.Context, decision types.SignalDecision) {
	journal := p.arbiter.runtime.Journal
	if journal == nil {
		return
	}

	if err := journal.Append(ctx, history.FromDecision(decision)); err != nil {
		p.log.Error("Failed to journal signal", zap.String("id", decision.ID), zap.Error(err))
	}
}

func intervalNames(intervals []types.Interval) []string {
	out := make([]string, len(intervals))
	for i, interval := range intervals {
		out[i] = interval.String()
	}

	return out
}

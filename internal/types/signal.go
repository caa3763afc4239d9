package types

import (
	"fmt"
	"time"
)

// Direction is the side of a signal.
type Direction string

const (
	// DirectionBuy opens or favours a long exposure
	DirectionBuy Direction = "buy"
	// DirectionSell opens or favours a short exposure
	DirectionSell Direction = "sell"
	// DirectionNone means no actionable signal
	DirectionNone Direction = "none"
)

// ParseDirection accepts "buy", "sell" or "none".
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionBuy, DirectionSell, DirectionNone:
		return Direction(s), nil
	default:
		return DirectionNone, fmt.Errorf("invalid direction: %q", s)
	}
}

// Opposite returns the contrary side. None stays none.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	default:
		return DirectionNone
	}
}

// Mode names the detector that produced a decision.
type Mode string

const (
	ModeOverride   Mode = "override"
	ModeDivergence Mode = "divergence"
	ModeRSI        Mode = "rsi"
	ModeMomentum   Mode = "momentum"
	// ModeLog marks a no-signal decision carrying observability metadata
	ModeLog Mode = "log"
)

// TradeMode restricts which directions may be emitted.
type TradeMode string

const (
	TradeModeBoth      TradeMode = "both"
	TradeModeLongOnly  TradeMode = "long_only"
	TradeModeShortOnly TradeMode = "short_only"
)

// Allows reports whether a signal in direction d may be emitted under the mode.
func (m TradeMode) Allows(d Direction) bool {
	switch m {
	case TradeModeLongOnly:
		return d != DirectionSell
	case TradeModeShortOnly:
		return d != DirectionBuy
	default:
		return true
	}
}

// DivergenceKind is the direction of a price/RSI divergence.
type DivergenceKind string

const (
	DivergenceBull DivergenceKind = "bull"
	DivergenceBear DivergenceKind = "bear"
)

// Direction maps a divergence onto the signal it implies.
func (k DivergenceKind) Direction() Direction {
	switch k {
	case DivergenceBull:
		return DirectionBuy
	case DivergenceBear:
		return DirectionSell
	default:
		return DirectionNone
	}
}

// DivergenceEvent is the most recent divergence found by one detector pass.
type DivergenceEvent struct {
	Kind  DivergenceKind
	Index int
	Price float64
	RSI   float64
	Time  time.Time
}

// Strength grades momentum confirmation.
type Strength string

const (
	StrengthNone   Strength = "none"
	StrengthWeak   Strength = "weak"
	StrengthStrong Strength = "strong"
)

// Score maps a strength onto the weighting scale used when combining windows.
func (s Strength) Score() float64 {
	switch s {
	case StrengthStrong:
		return 2
	case StrengthWeak:
		return 1
	default:
		return 0
	}
}

// SignalDecision is the single output of one arbitration pass.
type SignalDecision struct {
	// ID identifies an accepted decision in the journal. Empty for no-signal.
	ID string `json:"id,omitempty"`
	// Symbol is the traded pair, e.g. BTCUSDT
	Symbol string `json:"symbol"`
	// Signal is buy, sell or none
	Signal Direction `json:"signal"`
	// Mode is the detector that produced the decision
	Mode Mode `json:"mode"`
	// Interval is the timeframe the signal applies to
	Interval Interval `json:"interval,omitempty"`
	// Source is the candle source the decision was computed from
	Source string `json:"source,omitempty"`
	// Time is the evaluation time
	Time time.Time `json:"time"`
	// Metadata carries detector specific values
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NoSignal builds a "none" decision with observability metadata.
func NoSignal(symbol string, at time.Time, metadata map[string]any) SignalDecision {
	if metadata == nil {
		metadata = map[string]any{}
	}

	return SignalDecision{
		Symbol:   symbol,
		Signal:   DirectionNone,
		Mode:     ModeLog,
		Time:     at,
		Metadata: metadata,
	}
}

// IsSignal reports whether the decision carries a buy or sell.
func (d SignalDecision) IsSignal() bool {
	return d.Signal == DirectionBuy || d.Signal == DirectionSell
}

package types

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

// Interval is a candle timeframe. The enumeration is ordered from the finest
// to the coarsest timeframe so that neighbours are a table lookup.
type Interval int

const (
	IntervalUnknown Interval = iota
	Interval1m
	Interval3m
	Interval5m
	Interval15m
	Interval30m
	Interval1h
	Interval2h
	Interval4h
	Interval6h
	Interval8h
	Interval12h
	Interval1d
	Interval3d
	Interval1w
)

type intervalInfo struct {
	name     string
	duration time.Duration
}

var intervalTable = [...]intervalInfo{
	IntervalUnknown: {"", 0},
	Interval1m:      {"1m", time.Minute},
	Interval3m:      {"3m", 3 * time.Minute},
	Interval5m:      {"5m", 5 * time.Minute},
	Interval15m:     {"15m", 15 * time.Minute},
	Interval30m:     {"30m", 30 * time.Minute},
	Interval1h:      {"1h", time.Hour},
	Interval2h:      {"2h", 2 * time.Hour},
	Interval4h:      {"4h", 4 * time.Hour},
	Interval6h:      {"6h", 6 * time.Hour},
	Interval8h:      {"8h", 8 * time.Hour},
	Interval12h:     {"12h", 12 * time.Hour},
	Interval1d:      {"1d", 24 * time.Hour},
	Interval3d:      {"3d", 72 * time.Hour},
	Interval1w:      {"1w", 168 * time.Hour},
}

// NumIntervals is the size of tables indexed by Interval.
const NumIntervals = len(intervalTable)

// BiasHierarchy lists the timeframes consulted for an open bias, highest priority first.
var BiasHierarchy = []Interval{
	Interval1w, Interval1d, Interval4h, Interval2h, Interval1h,
	Interval30m, Interval15m, Interval5m, Interval3m, Interval1m,
}

// AllIntervals returns every known interval from finest to coarsest.
func AllIntervals() []Interval {
	out := make([]Interval, 0, NumIntervals-1)
	for i := Interval1m; i <= Interval1w; i++ {
		out = append(out, i)
	}

	return out
}

// ParseInterval converts a string such as "15m" or "1d" into an Interval.
func ParseInterval(s string) (Interval, error) {
	for i := Interval1m; i <= Interval1w; i++ {
		if intervalTable[i].name == s {
			return i, nil
		}
	}

	return IntervalUnknown, fmt.Errorf("unsupported interval: %q", s)
}

// Valid reports whether i is one of the enumerated intervals.
func (i Interval) Valid() bool {
	return i > IntervalUnknown && i <= Interval1w
}

func (i Interval) String() string {
	if !i.Valid() {
		return "unknown"
	}

	return intervalTable[i].name
}

// Duration returns the wall-clock length of one candle.
func (i Interval) Duration() time.Duration {
	if !i.Valid() {
		return 0
	}

	return intervalTable[i].duration
}

// MarshalText implements encoding.TextMarshaler.
func (i Interval) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown interval %d", int(i))
	}

	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// JSONSchema describes intervals as a string enum instead of the underlying int.
func (Interval) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, NumIntervals-1)
	for _, i := range AllIntervals() {
		enum = append(enum, i.String())
	}

	//nolint:exhaustruct // only the fields relevant to an enum are set
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Candle interval",
	}
}

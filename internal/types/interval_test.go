package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type IntervalTestSuite struct {
	suite.Suite
}

func TestIntervalSuite(t *testing.T) {
	suite.Run(t, new(IntervalTestSuite))
}

func (suite *IntervalTestSuite) TestParseInterval() {
	testCases := []struct {
		input    string
		expected Interval
		duration time.Duration
	}{
		{"1m", Interval1m, time.Minute},
		{"3m", Interval3m, 3 * time.Minute},
		{"5m", Interval5m, 5 * time.Minute},
		{"15m", Interval15m, 15 * time.Minute},
		{"30m", Interval30m, 30 * time.Minute},
		{"1h", Interval1h, time.Hour},
		{"2h", Interval2h, 2 * time.Hour},
		{"4h", Interval4h, 4 * time.Hour},
		{"6h", Interval6h, 6 * time.Hour},
		{"8h", Interval8h, 8 * time.Hour},
		{"12h", Interval12h, 12 * time.Hour},
		{"1d", Interval1d, 24 * time.Hour},
		{"3d", Interval3d, 72 * time.Hour},
		{"1w", Interval1w, 168 * time.Hour},
	}

	for _, tc := range testCases {
		parsed, err := ParseInterval(tc.input)
		suite.NoError(err, "interval %s", tc.input)
		suite.Equal(tc.expected, parsed)
		suite.Equal(tc.input, parsed.String())
		suite.Equal(tc.duration, parsed.Duration())
	}
}

func (suite *IntervalTestSuite) TestParseIntervalInvalid() {
	_, err := ParseInterval("7m")
	suite.Error(err)

	_, err = ParseInterval("")
	suite.Error(err)

	suite.Equal("unknown", IntervalUnknown.String())
	suite.Equal(time.Duration(0), IntervalUnknown.Duration())
}

func (suite *IntervalTestSuite) TestOrdering() {
	all := AllIntervals()
	suite.Len(all, NumIntervals-1)

	for i := 1; i < len(all); i++ {
		suite.Less(all[i-1].Duration(), all[i].Duration())
	}
}

func (suite *IntervalTestSuite) TestBiasHierarchyIsCoarseToFine() {
	suite.Equal(Interval1w, BiasHierarchy[0])
	suite.Equal(Interval1m, BiasHierarchy[len(BiasHierarchy)-1])

	for i := 1; i < len(BiasHierarchy); i++ {
		suite.Greater(BiasHierarchy[i-1], BiasHierarchy[i])
	}
}

func (suite *IntervalTestSuite) TestJSONRoundTrip() {
	payload, err := json.Marshal(map[string]Interval{"interval": Interval4h})
	suite.NoError(err)
	suite.JSONEq(`{"interval":"4h"}`, string(payload))

	var decoded struct {
		Interval Interval `json:"interval"`
	}

	suite.NoError(json.Unmarshal([]byte(`{"interval":"15m"}`), &decoded))
	suite.Equal(Interval15m, decoded.Interval)
	suite.Error(json.Unmarshal([]byte(`{"interval":"17m"}`), &decoded))
}

func (suite *IntervalTestSuite) TestYAMLDecode() {
	var decoded struct {
		Ladder []Interval `yaml:"ladder"`
	}

	err := yaml.Unmarshal([]byte("ladder: [1d, 4h, 1h]\n"), &decoded)
	suite.NoError(err)
	suite.Equal([]Interval{Interval1d, Interval4h, Interval1h}, decoded.Ladder)
}

func (suite *IntervalTestSuite) TestJSONSchema() {
	schema := Interval1h.JSONSchema()
	suite.Equal("string", schema.Type)
	suite.Len(schema.Enum, NumIntervals-1)
	suite.Equal("1m", schema.Enum[0])
}

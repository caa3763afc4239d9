package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rxtech-lab/argo-signal/internal/app"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/stretchr/testify/suite"
)

type SignalCmdTestSuite struct {
	suite.Suite
	tempDir string
	out     *bytes.Buffer
}

func TestSignalCmdSuite(t *testing.T) {
	suite.Run(t, new(SignalCmdTestSuite))
}

func (suite *SignalCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.out = &bytes.Buffer{}
}

func (suite *SignalCmdTestSuite) run(args ...string) error {
	cmd := newCommand()
	cmd.Writer = suite.out

	return cmd.Run(context.Background(), append([]string{"signal"}, args...))
}

func (suite *SignalCmdTestSuite) writeConfig(body string) string {
	path := filepath.Join(suite.tempDir, "signal.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(body), 0644))

	return path
}

func (suite *SignalCmdTestSuite) TestVersion() {
	suite.Require().NoError(suite.run("version"))
	suite.Equal(version.GetVersion()+"\n", suite.out.String())
}

func (suite *SignalCmdTestSuite) TestSchemaToStdout() {
	suite.Require().NoError(suite.run("schema"))
	suite.Contains(suite.out.String(), `"symbols"`)
}

func (suite *SignalCmdTestSuite) TestSchemaWritesFiles() {
	dir := filepath.Join(suite.tempDir, "config")

	suite.Require().NoError(suite.run("schema", "--out", dir))

	schema, err := os.ReadFile(filepath.Join(dir, schemaName))
	suite.Require().NoError(err)
	suite.NotEmpty(schema)

	samplePath := filepath.Join(dir, "argo-signal-config.yaml")
	sample, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Contains(string(sample), "# yaml-language-server: $schema="+schemaName)

	// A second run keeps an edited sample.
	suite.Require().NoError(os.WriteFile(samplePath, []byte("symbols: [SOLUSDT]\n"), 0644))
	suite.Require().NoError(suite.run("schema", "--out", dir))

	sample, err = os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("symbols: [SOLUSDT]\n", string(sample))
}

func (suite *SignalCmdTestSuite) TestCooldownPrintsLedger() {
	dbPath := filepath.Join(suite.tempDir, "signal.duckdb")
	configPath := suite.writeConfig("cooldown:\n  backend: duckdb\n  path: " + dbPath + "\n")

	cfg, err := config.Load(configPath)
	suite.Require().NoError(err)

	ledger, closeLedger, err := app.OpenLedger(context.Background(), cfg, nil)
	suite.Require().NoError(err)

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	suite.Require().NoError(ledger.Record(context.Background(), cooldown.Key{Symbol: "BTCUSDT", Interval: types.Interval1h, SignalType: types.DirectionBuy}, t0))
	suite.Require().NoError(ledger.Record(context.Background(), cooldown.Key{Symbol: "ETHUSDT", Interval: types.Interval4h, SignalType: types.DirectionSell}, t0))
	suite.Require().NoError(closeLedger())

	suite.Require().NoError(suite.run("--config", configPath, "cooldown", "btcusdt"))

	var exported map[string]map[string]map[string]string
	suite.Require().NoError(sonic.Unmarshal(suite.out.Bytes(), &exported))
	suite.Equal("2024-06-01T10:00:00Z", exported["BTCUSDT"]["1h"]["buy"])
	suite.NotContains(exported, "ETHUSDT")
}

func (suite *SignalCmdTestSuite) TestBiasCloseEndsOpenBias() {
	dbPath := filepath.Join(suite.tempDir, "signal.duckdb")
	configPath := suite.writeConfig("cooldown:\n  backend: duckdb\n  path: " + dbPath + "\n")

	cfg, err := config.Load(configPath)
	suite.Require().NoError(err)

	ctx := context.Background()
	journal, closeJournal, err := app.OpenJournal(cfg, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(journal.Append(ctx, history.Entry{
		Symbol:   "BTCUSDT",
		Interval: types.Interval1d,
		Signal:   types.DirectionBuy,
		Mode:     types.ModeRSI,
		Time:     time.Now().UTC().Add(-time.Hour),
	}))
	suite.Require().NoError(closeJournal())

	suite.Require().NoError(suite.run("--config", configPath, "bias", "close", "btcusdt", "1d"))
	suite.Contains(suite.out.String(), "closed BTCUSDT bias on 1d")

	journal, closeJournal, err = app.OpenJournal(cfg, nil)
	suite.Require().NoError(err)
	defer closeJournal() //nolint:errcheck

	_, open, err := journal.OpenBias(ctx, "BTCUSDT", types.Interval1d)
	suite.Require().NoError(err)
	suite.False(open)
}

func (suite *SignalCmdTestSuite) TestBiasCloseRejectsBadArguments() {
	suite.Error(suite.run("bias", "close", "BTCUSDT"))
	suite.Error(suite.run("bias", "close", "BTCUSDT", "7m"))
}

func (suite *SignalCmdTestSuite) TestScanRejectsBadOverride() {
	configPath := suite.writeConfig("cooldown:\n  backend: memory\nhistory:\n  backend: memory\n")

	err := suite.run("--config", configPath, "scan", "--once", "--override", "BTCUSDT=hold")
	suite.Error(err)
}

func (suite *SignalCmdTestSuite) TestCandlesRequiresSymbol() {
	suite.Error(suite.run("candles"))
}

func (suite *SignalCmdTestSuite) TestScanRejectsInvalidConfig() {
	configPath := suite.writeConfig("symbols: []\n")

	err := suite.run("--config", configPath, "scan", "--once")
	suite.Error(err)
}

func TestParseOverrides(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    map[string]types.Direction
		wantErr bool
	}{
		{
			name:   "empty",
			values: nil,
			want:   map[string]types.Direction{},
		},
		{
			name:   "normalizes case",
			values: []string{"btcusdt=BUY", " ETHUSDT = sell "},
			want: map[string]types.Direction{
				"BTCUSDT": types.DirectionBuy,
				"ETHUSDT": types.DirectionSell,
			},
		},
		{
			name:    "missing separator",
			values:  []string{"BTCUSDT"},
			wantErr: true,
		},
		{
			name:    "none is not a directive",
			values:  []string{"BTCUSDT=none"},
			wantErr: true,
		},
		{
			name:    "missing symbol",
			values:  []string{"=buy"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOverrides(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.values)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}

			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("override %s = %s, want %s", k, got[k], v)
				}
			}
		})
	}
}

func TestParseIntervals(t *testing.T) {
	got, err := parseIntervals([]string{"1h", " 4h "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 || got[0] != types.Interval1h || got[1] != types.Interval4h {
		t.Fatalf("got %v", got)
	}

	if _, err := parseIntervals([]string{"7m"}); err == nil {
		t.Fatal("expected error for unknown interval")
	}
}

func TestOptionalTime(t *testing.T) {
	if optionalTime(time.Time{}).IsSome() {
		t.Fatal("zero time should be None")
	}

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !optionalTime(at).IsSome() || !optionalTime(at).Unwrap().Equal(at) {
		t.Fatal("expected Some(at)")
	}
}

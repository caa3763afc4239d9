package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type AppTestSuite struct {
	suite.Suite
	ctx context.Context
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (suite *AppTestSuite) SetupTest() {
	suite.ctx = context.Background()
}

func (suite *AppTestSuite) TestMemoryBackends() {
	cfg := config.Default()
	cfg.Cooldown.Backend = config.BackendMemory
	cfg.History.Backend = config.BackendMemory

	a, err := New(suite.ctx, cfg, nil)
	suite.Require().NoError(err)
	defer a.Close()

	suite.IsType(&cooldown.MemoryLedger{}, a.Ledger)
	suite.IsType(&history.MemoryJournal{}, a.Journal)
	suite.Equal([]string{"binance", "okx"}, a.Fetcher.Sources())
	suite.NotNil(a.Scanner)
	suite.Empty(a.databases.handles)
}

func (suite *AppTestSuite) TestDuckDBBackendsShareDatabase() {
	cfg := config.Default()
	cfg.Cooldown.Path = filepath.Join(suite.T().TempDir(), "signal.duckdb")

	a, err := New(suite.ctx, cfg, nil)
	suite.Require().NoError(err)

	suite.IsType(&cooldown.DuckDBLedger{}, a.Ledger)
	suite.IsType(&history.DuckDBJournal{}, a.Journal)
	suite.Len(a.databases.handles, 1)

	key := cooldown.Key{Symbol: "BTCUSDT", Interval: types.Interval1h, SignalType: types.DirectionBuy}
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	suite.Require().NoError(a.Ledger.Record(suite.ctx, key, at))
	suite.Require().NoError(a.Journal.Append(suite.ctx, history.Entry{Symbol: "BTCUSDT", Interval: types.Interval1h, Signal: types.DirectionBuy, Mode: types.ModeRSI, Time: at}))
	suite.Require().NoError(a.Close())

	ledger, closeLedger, err := OpenLedger(suite.ctx, cfg, nil)
	suite.Require().NoError(err)
	defer closeLedger()

	entries, err := ledger.Entries(suite.ctx, "BTCUSDT")
	suite.Require().NoError(err)
	suite.Require().Len(entries, 1)
	suite.True(entries[0].LastFired.Equal(at))
}

func (suite *AppTestSuite) TestSeparateJournalPath() {
	dir := suite.T().TempDir()
	cfg := config.Default()
	cfg.Cooldown.Path = filepath.Join(dir, "cooldown.duckdb")
	cfg.History.Path = filepath.Join(dir, "journal.duckdb")

	a, err := New(suite.ctx, cfg, nil)
	suite.Require().NoError(err)
	defer a.Close()

	suite.Len(a.databases.handles, 2)
}

func (suite *AppTestSuite) TestRedisWithoutSection() {
	cfg := config.Default()
	cfg.Cooldown.Backend = config.BackendRedis
	cfg.History.Backend = config.BackendMemory

	_, err := New(suite.ctx, cfg, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *AppTestSuite) TestSourceTimeoutDefaults() {
	cfg := config.Default()
	cfg.Fetch.Timeout = 4 * time.Second
	cfg.Providers[1].Timeout = time.Second

	configs := sourceConfigs(cfg)

	suite.Equal(4*time.Second, configs[0].Timeout)
	suite.Equal(time.Second, configs[1].Timeout)
	suite.Zero(cfg.Providers[0].Timeout)
}

package app

import (
	"context"
	"database/sql"

	"github.com/rxtech-lab/argo-signal/internal/arbiter"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/cooldown"
	"github.com/rxtech-lab/argo-signal/internal/divergence"
	"github.com/rxtech-lab/argo-signal/internal/fetcher"
	"github.com/rxtech-lab/argo-signal/internal/history"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/momentum"
	"github.com/rxtech-lab/argo-signal/internal/scanner"
	"github.com/rxtech-lab/argo-signal/internal/store"
	"github.com/rxtech-lab/argo-signal/internal/threshold"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// App is the fully wired engine built from a Config.
type App struct {
	Config  config.Config
	Logger  *logger.Logger
	Metrics *metrics.Recorder
	Ledger  cooldown.Ledger
	Journal history.Journal
	Fetcher *fetcher.Fetcher
	Arbiter *arbiter.Arbiter
	Scanner *scanner.Scanner

	databases *databases
}

// New builds every component of the engine. Sinks receive each decision in
// addition to the log sink.
func New(ctx context.Context, cfg config.Config, log *logger.Logger, sinks ...scanner.Sink) (*App, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	recorder := metrics.New()

	fetch, err := NewFetcher(cfg, log, recorder)
	if err != nil {
		return nil, err
	}

	engine, err := indicator.NewEngine(cfg.Indicator, log.Named("indicator"))
	if err != nil {
		return nil, err
	}

	table, err := threshold.NewTable(cfg.RSI.Levels)
	if err != nil {
		return nil, err
	}

	dbs := &databases{}

	ledger, err := openLedger(ctx, cfg, dbs, log)
	if err != nil {
		dbs.close(log)

		return nil, err
	}

	journal, err := openJournal(cfg, dbs, log)
	if err != nil {
		ledger.Close()
		dbs.close(log)

		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		Metrics:   recorder,
		Ledger:    ledger,
		Journal:   journal,
		databases: dbs,
	}

	a.Fetcher = fetch

	a.Arbiter, err = arbiter.New(arbiter.Runtime{
		Indicators: engine,
		Divergence: divergence.NewDetector(cfg.Divergence),
		Thresholds: threshold.NewAnalyzer(cfg.RSI.Ladder, table, log),
		Momentum:   momentum.NewValidator(cfg.Momentum),
		Ledger:     ledger,
		Journal:    journal,
		Metrics:    recorder,
		Logger:     log,
	}, cfg.Arbiter)
	if err != nil {
		a.Close()

		return nil, err
	}

	a.Scanner, err = scanner.New(scanner.Config{
		Intervals: scanner.RequiredIntervals(cfg.RSI.Ladder, a.Arbiter.Config()),
		Limit:     cfg.Fetch.Limit,
		Overrides: cfg.Overrides,
	}, a.Fetcher, a.Arbiter, log,
		scanner.WithMetrics(recorder),
		scanner.WithSinks(append([]scanner.Sink{scanner.NewLogSink(log)}, sinks...)...),
	)
	if err != nil {
		a.Close()

		return nil, err
	}

	log.Info("Signal engine ready",
		zap.Strings("symbols", cfg.Symbols),
		zap.Strings("sources", a.Fetcher.Sources()),
		zap.String("cooldown_backend", cfg.Cooldown.Backend),
		zap.String("history_backend", cfg.History.Backend),
		zap.String("trade_mode", string(a.Arbiter.Config().TradeMode)),
	)

	return a, nil
}

// Close releases the ledger, the journal and their databases.
func (a *App) Close() error {
	var errs []error

	if a.Ledger != nil {
		errs = append(errs, a.Ledger.Close())
	}

	if a.Journal != nil {
		errs = append(errs, a.Journal.Close())
	}

	errs = append(errs, a.databases.close(a.Logger))

	return errors.Join(errs...)
}

// OpenLedger opens only the cooldown ledger of cfg, for inspection commands.
// The returned close function releases the ledger and its database.
func OpenLedger(ctx context.Context, cfg config.Config, log *logger.Logger) (cooldown.Ledger, func() error, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	dbs := &databases{}

	ledger, err := openLedger(ctx, cfg, dbs, log)
	if err != nil {
		dbs.close(log)

		return nil, nil, err
	}

	return ledger, func() error {
		return errors.Join(ledger.Close(), dbs.close(log))
	}, nil
}

// OpenJournal opens only the signal journal of cfg, for maintenance commands.
// The returned close function releases the journal and its database.
func OpenJournal(cfg config.Config, log *logger.Logger) (history.Journal, func() error, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	dbs := &databases{}

	journal, err := openJournal(cfg, dbs, log)
	if err != nil {
		dbs.close(log)

		return nil, nil, err
	}

	return journal, func() error {
		return errors.Join(journal.Close(), dbs.close(log))
	}, nil
}

// NewFetcher builds the failover fetcher over the configured sources.
// The recorder may be nil.
func NewFetcher(cfg config.Config, log *logger.Logger, recorder *metrics.Recorder) (*fetcher.Fetcher, error) {
	sources, err := marketdata.NewSources(sourceConfigs(cfg))
	if err != nil {
		return nil, err
	}

	return fetcher.New(sources, log, fetcher.WithTimeout(cfg.Fetch.Timeout), fetcher.WithMetrics(recorder)), nil
}

// sourceConfigs applies the fetch timeout to sources without their own.
func sourceConfigs(cfg config.Config) []provider.Config {
	out := make([]provider.Config, len(cfg.Providers))

	for i, pc := range cfg.Providers {
		if pc.Timeout <= 0 {
			pc.Timeout = cfg.Fetch.Timeout
		}

		out[i] = pc
	}

	return out
}

func openLedger(ctx context.Context, cfg config.Config, dbs *databases, log *logger.Logger) (cooldown.Ledger, error) {
	switch cfg.Cooldown.Backend {
	case config.BackendMemory:
		return cooldown.NewMemoryLedger(cfg.Cooldown.Timeout), nil
	case config.BackendRedis:
		if cfg.Cooldown.Redis == nil {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "redis cooldown backend requires a redis section")
		}

		return cooldown.NewRedisLedger(ctx, *cfg.Cooldown.Redis, cfg.Cooldown.Timeout)
	case config.BackendDuckDB:
		db, err := dbs.open(cfg.Cooldown.Path)
		if err != nil {
			return nil, err
		}

		return cooldown.NewDuckDBLedger(db, cfg.Cooldown.Timeout, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown cooldown backend %q", cfg.Cooldown.Backend)
	}
}

func openJournal(cfg config.Config, dbs *databases, log *logger.Logger) (history.Journal, error) {
	switch cfg.History.Backend {
	case config.BackendMemory:
		return history.NewMemoryJournal(), nil
	case config.BackendDuckDB:
		db, err := dbs.open(cfg.JournalPath())
		if err != nil {
			return nil, err
		}

		return history.NewDuckDBJournal(db, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown history backend %q", cfg.History.Backend)
	}
}

// databases shares one handle per DuckDB path between the ledger and the journal.
type databases struct {
	handles map[string]*sql.DB
}

func (d *databases) open(path string) (*sql.DB, error) {
	if path == "" {
		path = store.MemoryDSN
	}

	if db, ok := d.handles[path]; ok {
		return db, nil
	}

	db, err := store.OpenDuckDB(path)
	if err != nil {
		return nil, err
	}

	if d.handles == nil {
		d.handles = make(map[string]*sql.DB)
	}

	d.handles[path] = db

	return db, nil
}

func (d *databases) close(log *logger.Logger) error {
	if d == nil {
		return nil
	}

	var errs []error

	for path, db := range d.handles {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
		}
	}

	d.handles = nil

	return errors.Join(errs...)
}

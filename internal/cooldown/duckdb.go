package cooldown

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	argoErrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

const cooldownTable = "signal_cooldowns"

// DuckDBLedger persists entries in a DuckDB table. The database handle may be
// shared with other stores; the ledger closes it only when it owns it.
type DuckDBLedger struct {
	db      *sql.DB
	ownsDB  bool
	timeout time.Duration
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
}

// NewDuckDBLedger creates the ledger table on db if needed.
func NewDuckDBLedger(db *sql.DB, timeout time.Duration, log *logger.Logger) (*DuckDBLedger, error) {
	if db == nil {
		return nil, argoErrors.New(argoErrors.ErrCodeLedgerFailed, "database is nil")
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	ledger := &DuckDBLedger{
		db:      db,
		timeout: timeout,
		logger:  log.Named("cooldown"),
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := ledger.initialize(); err != nil {
		return nil, err
	}

	return ledger, nil
}

// OwnDB makes Close also close the database handle.
func (l *DuckDBLedger) OwnDB() *DuckDBLedger {
	l.ownsDB = true

	return l
}

func (l *DuckDBLedger) initialize() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + cooldownTable + ` (
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			last_fired TIMESTAMP NOT NULL,
			PRIMARY KEY (symbol, timeframe, signal_type)
		)
	`)
	if err != nil {
		return argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to create cooldown table", err)
	}

	return nil
}

func (l *DuckDBLedger) Allowed(ctx context.Context, key Key, now time.Time) (bool, error) {
	query := l.sq.
		Select("last_fired").
		From(cooldownTable).
		Where(l.keyEq(key)).
		RunWith(l.db)

	var last time.Time

	err := query.QueryRowContext(ctx).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}

	if err != nil {
		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to read cooldown entry", err)
	}

	return allowedSince(last, now.UTC(), l.timeout), nil
}

// TryAcquire reads and upserts the entry inside one transaction. A concurrent
// writer on the same key makes the commit fail, which is reported as an error.
func (l *DuckDBLedger) TryAcquire(ctx context.Context, key Key, now time.Time) (bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to begin cooldown transaction", err)
	}

	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.logger.Warn("Failed to roll back cooldown transaction", zap.Error(rbErr))
		}
	}

	var last time.Time

	err = l.sq.
		Select("last_fired").
		From(cooldownTable).
		Where(l.keyEq(key)).
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&last)

	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		rollback()

		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to read cooldown entry", err)
	case !allowedSince(last, now.UTC(), l.timeout):
		rollback()

		return false, nil
	}

	upsert := l.sq.
		Insert(cooldownTable).
		Columns("symbol", "timeframe", "signal_type", "last_fired").
		Values(key.Symbol, key.Interval.String(), string(key.SignalType), now.UTC()).
		Suffix("ON CONFLICT (symbol, timeframe, signal_type) DO UPDATE SET last_fired = excluded.last_fired").
		RunWith(tx)

	if _, err := upsert.ExecContext(ctx); err != nil {
		rollback()

		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to record cooldown entry", err)
	}

	if err := tx.Commit(); err != nil {
		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to commit cooldown entry", err)
	}

	return true, nil
}

func (l *DuckDBLedger) keyEq(key Key) squirrel.Eq {
	return squirrel.Eq{
		"symbol":      key.Symbol,
		"timeframe":   key.Interval.String(),
		"signal_type": string(key.SignalType),
	}
}

// Record upserts the entry inside a transaction, keeping the later timestamp.
func (l *DuckDBLedger) Record(ctx context.Context, key Key, now time.Time) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to begin cooldown transaction", err)
	}

	insert := l.sq.
		Insert(cooldownTable).
		Columns("symbol", "timeframe", "signal_type", "last_fired").
		Values(key.Symbol, key.Interval.String(), string(key.SignalType), now.UTC()).
		Suffix("ON CONFLICT (symbol, timeframe, signal_type) DO UPDATE SET last_fired = greatest(last_fired, excluded.last_fired)").
		RunWith(tx)

	if _, err := insert.ExecContext(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.logger.Warn("Failed to roll back cooldown transaction", zap.Error(rbErr))
		}

		return argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to record cooldown entry", err)
	}

	if err := tx.Commit(); err != nil {
		return argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to commit cooldown entry", err)
	}

	return nil
}

func (l *DuckDBLedger) Entries(ctx context.Context, symbol string) ([]Entry, error) {
	query := l.sq.
		Select("symbol", "timeframe", "signal_type", "last_fired").
		From(cooldownTable).
		OrderBy("symbol ASC", "timeframe ASC", "signal_type ASC")

	if symbol != "" {
		query = query.Where(squirrel.Eq{"symbol": symbol})
	}

	rows, err := query.RunWith(l.db).QueryContext(ctx)
	if err != nil {
		return nil, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to query cooldown entries", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			entry      Entry
			timeframe  string
			signalType string
		)

		if err := rows.Scan(&entry.Symbol, &timeframe, &signalType, &entry.LastFired); err != nil {
			return nil, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to scan cooldown entry", err)
		}

		interval, err := types.ParseInterval(timeframe)
		if err != nil {
			l.logger.Warn("Skipping cooldown entry with unknown interval", zap.String("interval", timeframe))

			continue
		}

		entry.Interval = interval
		entry.SignalType = types.Direction(signalType)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "error iterating cooldown entries", err)
	}

	sortEntries(entries)

	return entries, nil
}

func (l *DuckDBLedger) Timeout() time.Duration {
	return l.timeout
}

func (l *DuckDBLedger) Close() error {
	if l.ownsDB {
		return l.db.Close()
	}

	return nil
}

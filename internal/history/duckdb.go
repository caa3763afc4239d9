package history

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	argoErrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

const journalTable = "signal_journal"

var journalColumns = []string{"id", "kind", "symbol", "timeframe", "signal_type", "mode", "source", "fired_at"}

// DuckDBJournal stores entries in a DuckDB table ordered by an insertion sequence.
type DuckDBJournal struct {
	db     *sql.DB
	ownsDB bool
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBJournal creates the journal table and its sequence on db if needed.
func NewDuckDBJournal(db *sql.DB, log *logger.Logger) (*DuckDBJournal, error) {
	if db == nil {
		return nil, argoErrors.New(argoErrors.ErrCodeJournalFailed, "database is nil")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	journal := &DuckDBJournal{
		db:     db,
		logger: log.Named("journal"),
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := journal.initialize(); err != nil {
		return nil, err
	}

	return journal, nil
}

// OwnDB makes Close also close the database handle.
func (j *DuckDBJournal) OwnDB() *DuckDBJournal {
	j.ownsDB = true

	return j
}

func (j *DuckDBJournal) initialize() error {
	if _, err := j.db.Exec(`CREATE SEQUENCE IF NOT EXISTS signal_journal_seq`); err != nil {
		return argoErrors.Wrap(argoErrors.ErrCodeJournalFailed, "failed to create journal sequence", err)
	}

	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + journalTable + ` (
			seq BIGINT PRIMARY KEY DEFAULT nextval('signal_journal_seq'),
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			mode TEXT NOT NULL,
			source TEXT,
			fired_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return argoErrors.Wrap(argoErrors.ErrCodeJournalFailed, "failed to create journal table", err)
	}

	return nil
}

func (j *DuckDBJournal) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if entry.Kind == "" {
		entry.Kind = KindSignal
	}

	insert := j.sq.
		Insert(journalTable).
		Columns(journalColumns...).
		Values(
			entry.ID,
			string(entry.Kind),
			entry.Symbol,
			entry.Interval.String(),
			string(entry.Signal),
			string(entry.Mode),
			entry.Source,
			entry.Time.UTC(),
		).
		RunWith(j.db)

	if _, err := insert.ExecContext(ctx); err != nil {
		return argoErrors.Wrapf(argoErrors.ErrCodeJournalFailed, err, "failed to append journal entry %s", entry.ID)
	}

	return nil
}

func (j *DuckDBJournal) CloseBias(ctx context.Context, symbol string, interval types.Interval, at time.Time) error {
	return j.Append(ctx, closeEntry(symbol, interval, at))
}

func (j *DuckDBJournal) OpenBias(ctx context.Context, symbol string, interval types.Interval) (Entry, bool, error) {
	query := j.sq.
		Select(journalColumns...).
		From(journalTable).
		Where(squirrel.Eq{"symbol": symbol, "timeframe": interval.String()}).
		OrderBy("fired_at DESC", "seq DESC").
		Limit(1).
		RunWith(j.db)

	entry, err := j.scan(query.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}

	if err != nil {
		return Entry{}, false, err
	}

	if entry.Kind != KindSignal {
		return Entry{}, false, nil
	}

	return entry, true, nil
}

func (j *DuckDBJournal) Recent(ctx context.Context, symbol string, limit int) ([]Entry, error) {
	query := j.sq.
		Select(journalColumns...).
		From(journalTable).
		OrderBy("seq DESC")

	if symbol != "" {
		query = query.Where(squirrel.Eq{"symbol": symbol})
	}

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(j.db).QueryContext(ctx)
	if err != nil {
		return nil, argoErrors.Wrap(argoErrors.ErrCodeJournalFailed, "failed to query journal", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		entry, err := j.scan(rows)
		if err != nil {
			j.logger.Warn("Skipping unreadable journal entry", zap.Error(err))

			continue
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, argoErrors.Wrap(argoErrors.ErrCodeJournalFailed, "error iterating journal", err)
	}

	return entries, nil
}

func (j *DuckDBJournal) Close() error {
	if j.ownsDB {
		return j.db.Close()
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (j *DuckDBJournal) scan(row rowScanner) (Entry, error) {
	var (
		entry     Entry
		kind      string
		timeframe string
		signal    string
		mode      string
		source    sql.NullString
	)

	err := row.Scan(&entry.ID, &kind, &entry.Symbol, &timeframe, &signal, &mode, &source, &entry.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, err
	}

	if err != nil {
		return Entry{}, argoErrors.Wrap(argoErrors.ErrCodeJournalFailed, "failed to scan journal entry", err)
	}

	interval, err := types.ParseInterval(timeframe)
	if err != nil {
		return Entry{}, argoErrors.Wrap(argoErrors.ErrCodeJournalFailed, "journal entry has unknown interval", err)
	}

	entry.Kind = Kind(kind)
	entry.Interval = interval
	entry.Signal = types.Direction(signal)
	entry.Mode = types.Mode(mode)
	entry.Source = source.String
	entry.Time = entry.Time.UTC()

	return entry, nil
}

package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// MemoryDSN opens a private in-memory DuckDB database.
const MemoryDSN = ":memory:"

// OpenDuckDB opens the DuckDB database at path, creating parent directories.
// A DuckDB file accepts a single writing process, which serialises ledger
// updates across overlapping engine instances.
func OpenDuckDB(path string) (*sql.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = MemoryDSN
	}

	if dsn != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreOpen, "failed to create database directory", err)
		}
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreOpen, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreOpen, "failed to connect to database", err)
	}

	// an in-memory database lives per connection
	if dsn == MemoryDSN {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBTestSuite struct {
	suite.Suite
}

func TestDuckDBSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTestSuite))
}

func (suite *DuckDBTestSuite) TestOpenInMemory() {
	db, err := OpenDuckDB("")
	suite.Require().NoError(err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t (v INTEGER)")
	suite.Require().NoError(err)
	_, err = db.Exec("INSERT INTO t VALUES (1)")
	suite.Require().NoError(err)

	var v int
	suite.Require().NoError(db.QueryRow("SELECT v FROM t").Scan(&v))
	suite.Equal(1, v)
}

func (suite *DuckDBTestSuite) TestOpenFileCreatesDirectory() {
	path := filepath.Join(suite.T().TempDir(), "nested", "signal.duckdb")

	db, err := OpenDuckDB(path)
	suite.Require().NoError(err)
	suite.NoError(db.Close())
	suite.FileExists(path)
}

func (suite *DuckDBTestSuite) TestOpenUnderRegularFile() {
	file := filepath.Join(suite.T().TempDir(), "file")
	suite.Require().NoError(os.WriteFile(file, []byte("x"), 0644))

	_, err := OpenDuckDB(filepath.Join(file, "child.duckdb"))
	suite.True(errors.HasCode(err, errors.ErrCodeStoreOpen))
}

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A driver whose result sets fail partway through iteration. Used to
// verify that read loops surface mid-iteration errors instead of
// treating them as end-of-rows.

var errMidIteration = errors.New("connection lost mid-iteration")

type faultyDriver struct{}

func (faultyDriver) Open(string) (driver.Conn, error) { return &faultyConn{}, nil }

type faultyConn struct{}

func (*faultyConn) Prepare(string) (driver.Stmt, error) { return &faultyStmt{}, nil }

func (*faultyConn) Close() error { return nil }

func (*faultyConn) Begin() (driver.Tx, error) { return nil, driver.ErrSkip }

type faultyStmt struct{}

func (*faultyStmt) Close() error { return nil }

func (*faultyStmt) NumInput() int { return -1 }

func (*faultyStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, driver.ErrSkip
}

func (*faultyStmt) Query([]driver.Value) (driver.Rows, error) {
	return &faultyRows{}, nil
}

type faultyRows struct {
	served int
}

func (*faultyRows) Columns() []string {
	return []string{"node_type", "resource", "operation", "display_name", "description"}
}

func (*faultyRows) Close() error { return nil }

func (r *faultyRows) Next(dest []driver.Value) error {
	if r.served > 0 {
		return errMidIteration
	}
	r.served++
	for i := range dest {
		dest[i] = "x"
	}
	return nil
}

func init() {
	sql.Register("faulty", faultyDriver{})
}

func TestDetailsSurfacesRowIterationError(t *testing.T) {
	db, err := sql.Open("faulty", "")
	require.NoError(t, err)
	defer db.Close()

	s := &Store{db: db, normalize: func(raw string) string { return raw }}
	_, err = s.Details(context.Background(), "n8n-nodes-base.slack")
	require.Error(t, err)
	assert.ErrorIs(t, err, errMidIteration)
}

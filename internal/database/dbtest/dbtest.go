// Package dbtest provides a go-sqlmock backed Opener for engine tests.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// Mock hands one sqlmock *sql.DB to every Open call and records the
// driver names and DSNs it was asked for.
type Mock struct {
	sqlmock.Sqlmock
	DB      *sql.DB
	Drivers []string
	DSNs    []string
}

// New returns a Mock using regexp query matching. With pings set, Ping
// calls must be expected explicitly.
func New(t *testing.T, pings bool) *Mock {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(pings),
	)
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Mock{Sqlmock: mock, DB: db}
}

// Open satisfies database.Opener.
func (m *Mock) Open(driverName, dsn string) (*sql.DB, error) {
	m.Drivers = append(m.Drivers, driverName)
	m.DSNs = append(m.DSNs, dsn)
	return m.DB, nil
}

// Verify fails the test when an expectation was not met.
func (m *Mock) Verify(t *testing.T) {
	t.Helper()
	if err := m.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

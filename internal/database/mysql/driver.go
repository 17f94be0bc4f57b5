// Package mysql provides the MySQL engine: catalog introspection over
// INFORMATION_SCHEMA and error mapping for go-sql-driver/mysql.
package mysql

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
)

// driverName is registered by github.com/go-sql-driver/mysql.
const driverName = "mysql"

const catalogQuery = `
		SELECT TABLE_NAME,
		       COLUMN_NAME,
		       CASE
		         WHEN DATA_TYPE IN ('varchar', 'char', 'text') AND CHARACTER_MAXIMUM_LENGTH IS NOT NULL
		           THEN CONCAT(DATA_TYPE, '(', CHARACTER_MAXIMUM_LENGTH, ')')
		         WHEN DATA_TYPE IN ('decimal', 'numeric') AND NUMERIC_PRECISION IS NOT NULL
		           THEN CONCAT(DATA_TYPE, '(', NUMERIC_PRECISION, ',', NUMERIC_SCALE, ')')
		         ELSE DATA_TYPE
		       END AS DATA_TYPE_FORMATTED
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, ORDINAL_POSITION`

// Dialect implements database.Dialect for MySQL.
type Dialect struct{}

// New returns a MySQL backend.
func New(cfg *database.Config, opts ...database.Option) *database.SQLBackend {
	return database.NewSQLBackend(Dialect{}, cfg, opts...)
}

func (Dialect) Engine() database.Engine { return database.EngineMySQL }

func (Dialect) DriverName() string { return driverName }

// CatalogQuery scopes the catalog to the database named in the DSN.
func (Dialect) CatalogQuery(dsn string) (string, []any, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid MySQL connection string", err)
	}
	if cfg.DBName == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("MySQL connection string for %s names no database", cfg.Addr))
	}
	return catalogQuery, []any{cfg.DBName}, nil
}

func (Dialect) MapError(err error, msg string) *errs.Error {
	return mapError(err, msg)
}

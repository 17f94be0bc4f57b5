// Package mssql provides the Microsoft SQL Server engine on go-mssqldb.
package mssql

import (
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// driverName is registered by go-mssqldb alongside the legacy "mssql".
const driverName = "sqlserver"

// catalogQuery lists every user table as schema.table with its columns.
const catalogQuery = `
		SELECT SCHEMA_NAME(o.schema_id) + '.' + o.name AS TableName,
		       c.name AS ColumnName,
		       CASE
		         WHEN t.name IN ('char', 'varchar', 'nchar', 'nvarchar')
		           THEN t.name + '(' + CASE WHEN c.max_length = -1 THEN 'max' ELSE CAST(c.max_length AS VARCHAR) END + ')'
		         WHEN t.name IN ('decimal', 'numeric')
		           THEN t.name + '(' + CAST(c.precision AS VARCHAR) + ',' + CAST(c.scale AS VARCHAR) + ')'
		         ELSE t.name
		       END AS DataType
		FROM sys.columns c
		JOIN sys.objects o ON o.object_id = c.object_id
		JOIN sys.types t   ON c.user_type_id = t.user_type_id
		WHERE o.type = 'U'
		ORDER BY o.name, c.column_id`

// Dialect implements database.Dialect for SQL Server.
type Dialect struct{}

// New returns a SQL Server backend.
func New(cfg *database.Config, opts ...database.Option) *database.SQLBackend {
	return database.NewSQLBackend(Dialect{}, cfg, opts...)
}

func (Dialect) Engine() database.Engine { return database.EngineMSSQL }

func (Dialect) DriverName() string { return driverName }

// CatalogQuery validates the connection string; the scope is whatever
// database the login lands in.
func (Dialect) CatalogQuery(dsn string) (string, []any, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid SQL Server connection string", err)
	}
	return catalogQuery, nil, nil
}

func (Dialect) MapError(err error, msg string) *errs.Error {
	return mapError(err, msg)
}

// Package snowflake provides the Snowflake engine on gosnowflake.
package snowflake

import (
	"strings"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	sf "github.com/snowflakedb/gosnowflake"
)

const (
	driverName    = "snowflake"
	defaultSchema = "PUBLIC"
)

const catalogQuery = `
		SELECT table_name,
		       column_name,
		       CASE
		         WHEN data_type = 'TEXT' AND character_maximum_length IS NOT NULL
		           THEN data_type || '(' || character_maximum_length || ')'
		         WHEN data_type = 'NUMBER' AND numeric_precision IS NOT NULL
		           THEN data_type || '(' || numeric_precision || ',' || numeric_scale || ')'
		         ELSE data_type
		       END AS data_type_formatted
		FROM information_schema.columns
		WHERE table_catalog = CURRENT_DATABASE()
		  AND table_schema  = ?
		ORDER BY table_name, ordinal_position`

// Dialect implements database.Dialect for Snowflake.
type Dialect struct{}

// New returns a Snowflake backend.
func New(cfg *database.Config, opts ...database.Option) *database.SQLBackend {
	return database.NewSQLBackend(Dialect{}, cfg, opts...)
}

func (Dialect) Engine() database.Engine { return database.EngineSnowflake }

func (Dialect) DriverName() string { return driverName }

// CatalogQuery scopes the catalog to the DSN's schema, upper-cased, or PUBLIC.
func (Dialect) CatalogQuery(dsn string) (string, []any, error) {
	cfg, err := sf.ParseDSN(dsn)
	if err != nil {
		return "", nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid Snowflake connection string", err)
	}
	if cfg.Database == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "Snowflake connection string names no database")
	}
	schema := strings.ToUpper(strings.TrimSpace(cfg.Schema))
	if schema == "" {
		schema = defaultSchema
	}
	return catalogQuery, []any{schema}, nil
}

func (Dialect) MapError(err error, msg string) *errs.Error {
	return mapError(err, msg)
}

// Package postgres provides the PostgreSQL engine on pgx through its
// database/sql adapter.
package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx" driver
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
)

const (
	driverName    = "pgx"
	defaultSchema = "public"
)

const catalogQuery = `
		SELECT table_name,
		       column_name,
		       CASE
		         WHEN character_maximum_length IS NOT NULL
		           THEN data_type || '(' || character_maximum_length::text || ')'
		         WHEN numeric_precision IS NOT NULL AND numeric_scale IS NOT NULL
		           THEN data_type || '(' || numeric_precision::text || ',' || numeric_scale::text || ')'
		         ELSE data_type
		       END AS data_type_formatted
		FROM information_schema.columns
		WHERE table_catalog = $1
		  AND table_schema  = $2
		ORDER BY table_name, ordinal_position`

// Dialect implements database.Dialect for PostgreSQL.
type Dialect struct{}

// New returns a PostgreSQL backend.
func New(cfg *database.Config, opts ...database.Option) *database.SQLBackend {
	return database.NewSQLBackend(Dialect{}, cfg, opts...)
}

func (Dialect) Engine() database.Engine { return database.EnginePostgreSQL }

func (Dialect) DriverName() string { return driverName }

// CatalogQuery scopes the catalog to the connection's database and the first
// schema on its search_path, or public.
func (Dialect) CatalogQuery(dsn string) (string, []any, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "", nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid PostgreSQL connection string", err)
	}
	if cfg.Database == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "PostgreSQL connection string names no database")
	}
	return catalogQuery, []any{cfg.Database, searchSchema(cfg.RuntimeParams["search_path"])}, nil
}

func (Dialect) MapError(err error, msg string) *errs.Error {
	return mapError(err, msg)
}

// searchSchema returns the first usable entry of a search_path value.
func searchSchema(searchPath string) string {
	for _, part := range strings.Split(searchPath, ",") {
		s := strings.Trim(strings.TrimSpace(part), `"`)
		if s != "" && s != "$user" {
			return s
		}
	}
	return defaultSchema
}

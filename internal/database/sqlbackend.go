package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/logger"
	"github.com/koustreak/dbchat/internal/schema"
)

// Dialect is what an engine contributes on top of database/sql: its driver,
// its catalog query and its native error codes.
type Dialect interface {
	Engine() Engine

	// DriverName is the name the driver registered with database/sql.
	DriverName() string

	// CatalogQuery returns one query yielding (table, column, formatted type)
	// rows ordered by table then column ordinal, scoped by whatever the
	// connection string names. Returns an invalid_input error when the
	// connection string cannot be parsed.
	CatalogQuery(connectionString string) (string, []any, error)

	// MapError translates a native driver error into *errs.Error.
	MapError(err error, msg string) *errs.Error
}

// Opener opens a *sql.DB. Tests substitute one backed by go-sqlmock.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Option configures an SQLBackend.
type Option func(*SQLBackend)

// WithOpener replaces sql.Open.
func WithOpener(open Opener) Option {
	return func(b *SQLBackend) { b.open = open }
}

// SQLBackend implements Backend for any database/sql engine. It holds no
// connection state: every call opens, pings, uses and closes its own *sql.DB.
// It is safe for concurrent use by multiple goroutines.
type SQLBackend struct {
	dialect Dialect
	cfg     *Config
	open    Opener
}

// NewSQLBackend returns a Backend for dialect. A nil cfg uses DefaultConfig.
func NewSQLBackend(d Dialect, cfg *Config, opts ...Option) *SQLBackend {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	b := &SQLBackend{dialect: d, cfg: cfg, open: sql.Open}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Engine returns the engine this backend serves.
func (b *SQLBackend) Engine() Engine { return b.dialect.Engine() }

// --- Backend implementation ---

func (b *SQLBackend) GenerateSchema(ctx context.Context, conn Connection) (*schema.DatabaseSchema, error) {
	log := logger.FromContext(ctx)

	q, args, err := b.dialect.CatalogQuery(conn.ConnectionString)
	if err != nil {
		return nil, err
	}

	db, err := b.connect(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	qctx, cancel := withTimeout(ctx, b.cfg.QueryTimeout)
	defer cancel()

	rows, err := db.QueryContext(qctx, q, args...)
	if err != nil {
		return nil, b.mapError(qctx, err, "catalog query failed")
	}
	defer rows.Close()

	var tuples []schema.Tuple
	for rows.Next() {
		var (
			table, column string
			dataType      sql.NullString
		)
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, b.mapError(qctx, err, "failed to scan catalog row")
		}
		tuples = append(tuples, schema.Tuple{Table: table, Column: column, DataType: dataType.String})
	}
	if err := rows.Err(); err != nil {
		return nil, b.mapError(qctx, err, "error iterating catalog rows")
	}

	s := schema.FromTuples(tuples)
	log.DebugWith("schema generated", map[string]interface{}{
		"engine":     b.Engine().String(),
		"connection": conn.Name,
		"tables":     s.Len(),
		"columns":    len(tuples),
	})
	for _, line := range s.Raw {
		log.Debug(line)
	}
	return s, nil
}

func (b *SQLBackend) Execute(ctx context.Context, conn Connection, sqlText string, args ...any) (Grid, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, errInvalidInput("query text is empty")
	}

	db, err := b.connect(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	qctx, cancel := withTimeout(ctx, b.cfg.QueryTimeout)
	defer cancel()

	rows, err := db.QueryContext(qctx, sqlText, args...)
	if err != nil {
		return nil, b.mapError(qctx, err, "query failed")
	}
	defer rows.Close()

	grid, err := ScanGrid(rows)
	if err != nil {
		return nil, b.mapError(qctx, err, "query failed")
	}

	logger.FromContext(ctx).DebugWith("query executed", map[string]interface{}{
		"engine":     b.Engine().String(),
		"connection": conn.Name,
		"rows":       len(grid.DataRows()),
	})
	return grid, nil
}

// connect opens a *sql.DB for conn and validates it with a ping bounded by
// ConnectTimeout. The caller must Close the returned DB.
func (b *SQLBackend) connect(ctx context.Context, conn Connection) (*sql.DB, error) {
	if strings.TrimSpace(conn.ConnectionString) == "" {
		return nil, errInvalidInput("connection string is empty")
	}

	db, err := b.open(b.dialect.DriverName(), conn.ConnectionString)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid connection string", err)
	}

	if b.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(b.cfg.MaxOpenConns)
	}
	if b.cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(b.cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := withTimeout(ctx, b.cfg.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, b.pingError(pingCtx, err)
	}
	return db, nil
}

// mapError classifies err as a timeout whenever ctx is done, since drivers
// report cancellation with their own error values. Errors that are already
// *errs.Error pass through.
func (b *SQLBackend) mapError(ctx context.Context, err error, msg string) *errs.Error {
	if ctx.Err() != nil {
		return errTimeout(msg, err)
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	return b.dialect.MapError(err, msg)
}

// pingError keeps timeouts as they are and reports everything else as a
// connection failure, whatever the driver code says.
func (b *SQLBackend) pingError(ctx context.Context, err error) *errs.Error {
	mapped := b.mapError(ctx, err, "ping failed")
	if mapped.Kind == errs.ErrKindTimeout || mapped.Kind == errs.ErrKindConnectionFailed {
		return mapped
	}
	return errConnection(mapped.Message, err)
}

// withTimeout bounds ctx by d; a zero or negative d leaves it unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

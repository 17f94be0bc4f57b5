package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
)

// PostgreSQL SQLSTATE error codes
// Full list: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgClassConnection    = "08"
	pgClassAuthorization = "28"
	pgErrInvalidCatalog  = "3D000"
	pgErrQueryCanceled   = "57014"
	pgErrTooManyConns    = "53300"
)

// mapError translates pgx errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errs.Wrap(classifyCode(pgErr.Code), fmt.Sprintf("%s: %s", msg, pgErr.Message), err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	if pgconn.Timeout(err) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	return database.MapCommon(err, msg, errs.ErrKindQueryFailed)
}

// classifyCode maps a SQLSTATE to ErrKind.
func classifyCode(code string) errs.ErrKind {
	switch {
	case len(code) >= 2 && (code[:2] == pgClassConnection || code[:2] == pgClassAuthorization):
		return errs.ErrKindConnectionFailed
	case code == pgErrInvalidCatalog, code == pgErrTooManyConns:
		return errs.ErrKindConnectionFailed
	case code == pgErrQueryCanceled:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

package snowflake

import (
	"errors"
	"fmt"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	sf "github.com/snowflakedb/gosnowflake"
)

// Snowflake error numbers raised during login.
const (
	sfErrIncorrectCredentials = 390100
	sfErrJWTInvalid           = 390144
	sfErrUserLocked           = 390102
	sfErrAccountNotFound      = 390201
	sfErrStatementCanceled    = 604
)

// mapError translates gosnowflake errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var sfErr *sf.SnowflakeError
	if errors.As(err, &sfErr) {
		return errs.Wrap(classifyNumber(sfErr.Number), fmt.Sprintf("%s: %s", msg, sfErr.Message), err)
	}

	return database.MapCommon(err, msg, errs.ErrKindQueryFailed)
}

func classifyNumber(n int) errs.ErrKind {
	switch n {
	case sfErrIncorrectCredentials, sfErrJWTInvalid, sfErrUserLocked, sfErrAccountNotFound:
		return errs.ErrKindConnectionFailed
	case sfErrStatementCanceled:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

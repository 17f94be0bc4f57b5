package mssql

import (
	"errors"
	"fmt"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	sqlserver "github.com/microsoft/go-mssqldb" // also registers the "sqlserver" driver
)

// SQL Server error numbers
// Full list: https://learn.microsoft.com/sql/relational-databases/errors-events/database-engine-events-and-errors
const (
	errLoginFailed       = 18456
	errCannotOpenDB      = 4060
	errUntrustedDomain   = 18452
	errPasswordExpired   = 18487
	errServerUnavailable = 40613
)

// mapError translates go-mssqldb errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var sqlErr sqlserver.Error
	if errors.As(err, &sqlErr) {
		return errs.Wrap(classifyNumber(sqlErr.Number), fmt.Sprintf("%s: %s", msg, sqlErr.Message), err)
	}

	return database.MapCommon(err, msg, errs.ErrKindQueryFailed)
}

func classifyNumber(n int32) errs.ErrKind {
	switch n {
	case errLoginFailed, errCannotOpenDB, errUntrustedDomain, errPasswordExpired, errServerUnavailable:
		return errs.ErrKindConnectionFailed
	default:
		return errs.ErrKindQueryFailed
	}
}

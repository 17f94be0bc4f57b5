package oracle

import (
	"errors"
	"fmt"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/sijms/go-ora/v2/network"
)

// ORA- error codes that mean the session never got established.
const (
	oraInvalidCredentials = 1017
	oraAccountLocked      = 28000
	oraCannotResolve      = 12154
	oraUnknownService     = 12514
	oraNoListener         = 12541
	oraUserCancelled      = 1013
)

// mapError translates go-ora errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return errs.Wrap(classifyCode(oraErr.ErrCode), fmt.Sprintf("%s: %s", msg, oraErr.ErrMsg), err)
	}

	return database.MapCommon(err, msg, errs.ErrKindQueryFailed)
}

func classifyCode(code int) errs.ErrKind {
	switch code {
	case oraInvalidCredentials, oraAccountLocked, oraCannotResolve, oraUnknownService, oraNoListener:
		return errs.ErrKindConnectionFailed
	case oraUserCancelled:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}

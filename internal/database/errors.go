package database

import (
	"context"
	"errors"

	"github.com/koustreak/dbchat/internal/errs"
)

// --- Constructor helpers shared by the backend and the engines ---

func errConnection(msg string, cause error) *errs.Error {
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, cause)
}

func errTimeout(msg string, cause error) *errs.Error {
	return errs.Wrap(errs.ErrKindTimeout, msg, cause)
}

func errQuery(msg string, cause error) *errs.Error {
	return errs.Wrap(errs.ErrKindQueryFailed, msg, cause)
}

func errInvalidInput(msg string) *errs.Error {
	return errs.New(errs.ErrKindInvalidInput, msg)
}

// IsContextError reports whether err came from a cancelled or expired context.
func IsContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// MapCommon handles the classifications every engine shares: context errors
// become timeouts, values that are already *errs.Error pass through, and
// anything else is wrapped with fallback. Engines call it after checking
// their native error types.
func MapCommon(err error, msg string, fallback errs.ErrKind) *errs.Error {
	if err == nil {
		return nil
	}
	if IsContextError(err) {
		return errTimeout(msg, err)
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	return errs.Wrap(fallback, msg, err)
}

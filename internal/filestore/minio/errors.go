package minio

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/koustreak/dbchat/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// codeKinds classifies the S3 error codes the history store runs into.
// Codes win over HTTP status: GetObject on a missing history entry comes
// back from Stat as NoSuchKey, which ObjectStore.Delete relies on to try
// the next prefix.
var codeKinds = map[string]errs.ErrKind{
	"NoSuchKey":    errs.ErrKindNotFound,
	"NoSuchObject": errs.ErrKindNotFound,
	"NoSuchBucket": errs.ErrKindNotFound,

	"AccessDenied":          errs.ErrKindPermissionDenied,
	"AllAccessDisabled":     errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":    errs.ErrKindPermissionDenied,
	"SignatureDoesNotMatch": errs.ErrKindPermissionDenied,
	"ExpiredToken":          errs.ErrKindPermissionDenied,

	"InvalidBucketName": errs.ErrKindInvalidInput,
	"InvalidObjectName": errs.ErrKindInvalidInput,
	"KeyTooLongError":   errs.ErrKindInvalidInput,
	"EntityTooLarge":    errs.ErrKindInvalidInput,

	"RequestTimeout":     errs.ErrKindTimeout,
	"SlowDown":           errs.ErrKindConnectionFailed,
	"ServiceUnavailable": errs.ErrKindConnectionFailed,
	"InternalError":      errs.ErrKindConnectionFailed,
}

// mapError translates a MinIO SDK error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		if kind, ok := codeKinds[resp.Code]; ok {
			return errs.Wrap(kind, msg, err)
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case http.StatusBadRequest:
			return errs.Wrap(errs.ErrKindInvalidInput, msg, err)
		}
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// bucketOwned reports whether MakeBucket failed only because we already
// own the bucket, which happens when two processes start together.
func bucketOwned(err error) bool {
	return miniogo.ToErrorResponse(err).Code == "BucketAlreadyOwnedByYou"
}

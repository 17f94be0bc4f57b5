package minio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/koustreak/dbchat/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"wrapped cancel", fmt.Errorf("put: %w", context.Canceled), errs.ErrKindTimeout},
		{"404", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"403", miniogo.ErrorResponse{StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"400", miniogo.ErrorResponse{StatusCode: http.StatusBadRequest}, errs.ErrKindInvalidInput},
		{"missing history entry", miniogo.ErrorResponse{StatusCode: http.StatusNotFound, Code: "NoSuchKey", Key: "history/x.json"}, errs.ErrKindNotFound},
		{"no such key without status", miniogo.ErrorResponse{Code: "NoSuchKey"}, errs.ErrKindNotFound},
		{"missing bucket", miniogo.ErrorResponse{StatusCode: http.StatusNotFound, Code: "NoSuchBucket"}, errs.ErrKindNotFound},
		{"bad signature", miniogo.ErrorResponse{StatusCode: http.StatusForbidden, Code: "SignatureDoesNotMatch"}, errs.ErrKindPermissionDenied},
		{"expired token", miniogo.ErrorResponse{StatusCode: http.StatusBadRequest, Code: "ExpiredToken"}, errs.ErrKindPermissionDenied},
		{"bad object name", miniogo.ErrorResponse{Code: "InvalidObjectName"}, errs.ErrKindInvalidInput},
		{"request timeout", miniogo.ErrorResponse{StatusCode: http.StatusBadRequest, Code: "RequestTimeout"}, errs.ErrKindTimeout},
		{"slow down", miniogo.ErrorResponse{StatusCode: http.StatusServiceUnavailable, Code: "SlowDown"}, errs.ErrKindConnectionFailed},
		{"unavailable", miniogo.ErrorResponse{StatusCode: http.StatusServiceUnavailable, Code: "ServiceUnavailable"}, errs.ErrKindConnectionFailed},
		{"dial timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, errs.ErrKindTimeout},
		{"transport", errors.New("dial tcp: connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "op failed")
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.err, got.Cause)
		})
	}

	assert.Nil(t, mapError(nil, "noop"))
}

func TestBucketOwned(t *testing.T) {
	assert.True(t, bucketOwned(miniogo.ErrorResponse{StatusCode: http.StatusConflict, Code: "BucketAlreadyOwnedByYou"}))
	assert.False(t, bucketOwned(miniogo.ErrorResponse{StatusCode: http.StatusConflict, Code: "BucketAlreadyExists"}))
	assert.False(t, bucketOwned(errors.New("boom")))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

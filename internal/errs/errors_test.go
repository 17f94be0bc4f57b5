package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrKindUnsupported, `unsupported engine "DB2"`),
			want: `[unsupported] unsupported engine "DB2"`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrKindQueryFailed, "query failed", errors.New("syntax error near FROM")),
			want: "[query_failed] query failed: syntax error near FROM",
		},
		{
			name: "formatted",
			err:  Newf(ErrKindNotFound, "connection %q not found", "prod"),
			want: `[not_found] connection "prod" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		kind ErrKind
		pred func(error) bool
	}{
		{ErrKindNotFound, IsNotFound},
		{ErrKindConnectionFailed, IsConnectionFailed},
		{ErrKindTimeout, IsTimeout},
		{ErrKindQueryFailed, IsQueryFailed},
		{ErrKindInvalidInput, IsInvalidInput},
		{ErrKindPermissionDenied, IsPermissionDenied},
		{ErrKindUnsupported, IsUnsupported},
		{ErrKindContractViolation, IsContractViolation},
		{ErrKindProviderFailed, IsProviderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := fmt.Errorf("outer: %w", New(tt.kind, "boom"))
			assert.True(t, tt.pred(err))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	err := Wrap(ErrKindTimeout, "query timed out", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

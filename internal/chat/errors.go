package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/koustreak/dbchat/internal/errs"
)

// ProviderError is the cause carried by every backend failure.
type ProviderError struct {
	Provider Provider
	Model    string
	Cause    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s model %q: %v", e.Provider, e.Model, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// AssistantText renders the failure the way it is shown in place of a
// model reply.
func (e *ProviderError) AssistantText() string {
	reason := "unknown error"
	if e.Cause != nil {
		reason = e.Cause.Error()
	}
	return fmt.Sprintf("ERROR: Can't invoke '%s'. Reason: %s", e.Model, reason)
}

// Fail wraps a backend failure. Context cancellation and deadlines are
// reported as timeouts, everything else as provider_failed.
func Fail(p Provider, model string, cause error) *errs.Error {
	pe := &ProviderError{Provider: p, Model: model, Cause: cause}
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, fmt.Sprintf("%s request timed out", p), pe)
	}
	return errs.Wrap(errs.ErrKindProviderFailed, fmt.Sprintf("%s request failed", p), pe)
}

// Unsupported reports an operation the backend does not implement.
func Unsupported(p Provider, op string) *errs.Error {
	return errs.Newf(errs.ErrKindUnsupported, "%s does not support %s", p, op)
}

// AsProviderError extracts the ProviderError from err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

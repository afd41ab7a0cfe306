package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrorKind classifies why a provider attempt failed.
type ErrorKind string

const (
	KindNetwork        ErrorKind = "network"
	KindStatus         ErrorKind = "status"
	KindTimeout        ErrorKind = "timeout"
	KindDecode         ErrorKind = "decode"
	KindIncomplete     ErrorKind = "incomplete"
	KindNoLines        ErrorKind = "no_lines"
	KindUnderdelivered ErrorKind = "underdelivered"
	KindEngine         ErrorKind = "engine"
)

// ErrAllProvidersFailed matches *AllProvidersFailedError with errors.Is.
var ErrAllProvidersFailed = errors.New("all engine providers failed")

// ProviderError is a failed attempt against one provider. The client recovers
// from it by moving on to the next provider.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int // HTTP status for KindStatus
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (http %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerErr(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// requestErr classifies a transport-level failure, reporting an expired
// attempt deadline as a timeout.
func requestErr(ctx context.Context, provider string, err error) *ProviderError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return providerErr(provider, KindTimeout, err)
	}
	return providerErr(provider, KindNetwork, err)
}

// AllProvidersFailedError is the only error BestMove returns.
type AllProvidersFailedError struct {
	Attempts *multierror.Error
}

func (e *AllProvidersFailedError) Error() string {
	if e.Attempts == nil || len(e.Attempts.Errors) == 0 {
		return ErrAllProvidersFailed.Error() + ": no providers configured"
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrAllProvidersFailed, len(e.Attempts.Errors), e.Attempts.Errors)
}

func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

func (e *AllProvidersFailedError) Unwrap() error {
	if e.Attempts == nil {
		return nil
	}
	return e.Attempts.ErrorOrNil()
}

// Failures returns the per-attempt errors in the order they happened.
func (e *AllProvidersFailedError) Failures() []error {
	if e.Attempts == nil {
		return nil
	}
	return e.Attempts.WrappedErrors()
}

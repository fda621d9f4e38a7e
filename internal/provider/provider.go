// Package provider defines the upstream client contracts and the typed
// failure shape shared by all adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"

	"stockticker/internal/quote"
)

// QuoteClient fetches the raw quote payload for one symbol.
// No retries happen here; retry policy belongs to the caller.
type QuoteClient interface {
	Name() string
	Fetch(ctx context.Context, symbol string) ([]byte, error)
}

// NameResolver resolves a human-readable display name for a symbol.
type NameResolver interface {
	Name() string
	Resolve(ctx context.Context, symbol string) (string, error)
}

// Error is a typed upstream failure.
type Error struct {
	Kind   quote.ErrorKind
	Status int // set when Kind == ErrHTTPStatus
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == quote.ErrHTTPStatus:
		return fmt.Sprintf("http %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps a transport error as Timeout or NetworkFailure.
func Classify(err error) *Error {
	kind := quote.ErrNetworkFailure
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = quote.ErrTimeout
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the ErrorKind from any error returned by a client.
func KindOf(err error) quote.ErrorKind {
	if err == nil {
		return quote.ErrNone
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Classify(err).Kind
}

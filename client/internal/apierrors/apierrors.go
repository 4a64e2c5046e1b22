// Package apierrors classifies failures of backend calls into the kinds the
// SDK branches on: network, auth, server, validation, generic. Classification
// happens once, at the HTTP layer, from status codes rather than message text.
package apierrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind determines how callers react to a failed operation.
type Kind int

const (
	// KindGeneric is any non-2xx response not covered below.
	KindGeneric Kind = iota

	// KindNetwork is a transport-level failure: no response was received.
	// Session checks treat these optimistically (token assumed still valid).
	KindNetwork

	// KindAuth is 401/403 or a missing credential. Triggers credential purge.
	KindAuth

	// KindServer is a 5xx response. List fetches degrade these to empty
	// collections.
	KindServer

	// KindValidation is malformed input rejected client-side before any
	// request is made.
	KindValidation
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	default:
		return "generic"
	}
}

// Error is a classified backend failure.
type Error struct {
	Kind       Kind
	Op         string // operation label, e.g. "login", "list questions"
	StatusCode int    // 0 for non-HTTP failures
	Detail     string // backend-provided detail text, if any
	Underlying error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode > 0 && e.Detail != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Underlying != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Underlying)
	default:
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *Error) Unwrap() error { return e.Underlying }

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(op string, status int, detail string) *Error {
	kind := KindGeneric
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status >= 500:
		kind = KindServer
	}
	return &Error{Kind: kind, Op: op, StatusCode: status, Detail: detail}
}

// Network wraps a transport-level failure. Context deadline expiry counts as
// a network failure: a timed-out request gives no verdict on the token.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Underlying: err}
}

// Auth reports a credential problem detected without a response, such as a
// missing stored token.
func Auth(op, detail string) *Error {
	return &Error{Kind: KindAuth, Op: op, Detail: detail}
}

// Validation reports input rejected before any request was issued.
func Validation(op, detail string) *Error {
	return &Error{Kind: KindValidation, Op: op, Detail: detail}
}

// KindOf extracts the kind from an error chain. Transport errors that were
// never wrapped (net.Error, context deadline) classify as network.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork, true
	}
	return KindGeneric, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Irrecoverable reports whether a background job should give up instead of
// retrying: auth and validation failures will not heal with time.
func Irrecoverable(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindAuth || k == KindValidation)
}

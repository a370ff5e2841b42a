// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

/*
Package apierr defines the error taxonomy shared by the transport, the entity
handlers, the media lists and the client facade.

Every failure that crosses a package boundary is an *Error carrying a Kind:

  - KindNetwork: no HTTP response was received (dial, TLS, timeout, cancel)
  - KindHTTPStatus: the API answered with a non-2xx status
  - KindNotFound: a 404, or an entity link that the payload does not carry
  - KindMalformedResponse: a 2xx body that lacks the expected shape
  - KindNotConnected: an operation ran before the bootstrap connection

Callers branch with errors.Is against the sentinel values or with IsKind:

	if errors.Is(err, apierr.ErrNotFound) {
	    // show an empty state
	}
*/
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error.
type Kind int

const (
	// KindUnknown is the zero value and never produced by this package.
	KindUnknown Kind = iota
	KindNetwork
	KindHTTPStatus
	KindMalformedResponse
	KindNotConnected
	KindNotFound
)

// String returns the stable name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	case KindNotConnected:
		return "not_connected"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinel values for errors.Is. They match any *Error of the same kind;
// ErrHTTPStatus also matches KindNotFound since a 404 is a status error.
var (
	ErrNetwork           = &Error{Kind: KindNetwork}
	ErrHTTPStatus        = &Error{Kind: KindHTTPStatus}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrNotConnected      = &Error{Kind: KindNotConnected}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// Error is the structured error returned across the SDK.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	URL        string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" || t.StatusCode != 0 || t.URL != "" || t.Err != nil {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindHTTPStatus && e.Kind == KindNotFound
}

// NewNetworkError wraps a transport failure for which no response exists.
func NewNetworkError(url string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "request failed",
		URL:     url,
		Err:     err,
	}
}

// NewHTTPStatusError builds an error for a non-2xx response. A 404 is
// reported with KindNotFound. body is an excerpt of the response body.
func NewHTTPStatusError(url string, statusCode int, body string) *Error {
	kind := KindHTTPStatus
	msg := "unexpected status " + http.StatusText(statusCode)
	if statusCode == http.StatusNotFound {
		kind = KindNotFound
		msg = "resource not found"
	}
	if body != "" {
		msg = msg + ": " + body
	}
	return &Error{
		Kind:       kind,
		Message:    msg,
		StatusCode: statusCode,
		URL:        url,
	}
}

// NewMalformedResponseError reports a body that could not be decoded or
// that lacks the fields the caller needs.
func NewMalformedResponseError(url, message string, err error) *Error {
	return &Error{
		Kind:    KindMalformedResponse,
		Message: message,
		URL:     url,
		Err:     err,
	}
}

// NewNotFoundError reports a missing resource or entity link.
func NewNotFoundError(url, message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: message,
		URL:     url,
	}
}

// NewNotConnectedError reports an operation attempted before Connect.
func NewNotConnectedError(operation string) *Error {
	return &Error{
		Kind:    KindNotConnected,
		Message: "not connected to the Olapic API; call Connect first (" + operation + ")",
	}
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotConnected reports whether err is a not-connected error.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

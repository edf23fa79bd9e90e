// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/jeranaias/chatdesk/internal/cloud"
	"github.com/jeranaias/chatdesk/internal/ollama"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// Kind classifies a failed provider call.
type Kind int

const (
	// KindUnknown is any failure that is neither authentication nor
	// connectivity, including malformed provider responses.
	KindUnknown Kind = iota

	// KindAuthentication means the credential was rejected or missing.
	KindAuthentication

	// KindConnectivity means the provider could not be reached in time.
	KindConnectivity
)

// String returns the display name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindConnectivity:
		return "connectivity"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrAuthentication = errors.New("provider rejected the credential")
	ErrConnectivity   = errors.New("provider could not be reached")
	ErrUnknown        = errors.New("provider call failed")
)

// Error is a classified provider failure. Err is the provider's original
// error and its text is preserved.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return e.Kind.String() + " error: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrConnectivity:
		return e.Kind == KindConnectivity
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

// Cause returns the text of the original provider error.
func (e *Error) Cause() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify maps a provider error to a Kind. An *Error keeps its own Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}

	switch {
	case errors.Is(err, cloud.ErrAuthFailed), errors.Is(err, cloud.ErrNotConfigured):
		return KindAuthentication
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, cloud.ErrRateLimited),
		ollama.IsNotRunning(err),
		ollama.IsTimeout(err),
		ollama.IsConnection(err):
		return KindConnectivity
	}

	var apiErr *cloud.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 401 || apiErr.Status == 403 {
			return KindAuthentication
		}
		if apiErr.Status >= 500 && apiErr.Status < 600 {
			return KindConnectivity
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnectivity
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindConnectivity
	}

	return KindUnknown
}

// classify wraps err in an *Error unless it already is one.
func classify(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return &Error{Kind: Classify(err), Err: err}
}

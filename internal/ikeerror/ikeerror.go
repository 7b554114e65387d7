// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ikeerror defines the error taxonomy the IKE driver raises on
// tunnel bring-up/tear-down failure (spec §7 "Error taxonomy") and the
// ErrorTypeKey used to look up a retry policy for it (spec §3 "Error Type
// Key").
package ikeerror

import "fmt"

// GenericName is the closed symbolic set of internal failures the driver or
// the control plane itself can raise that are not IKEv2 notify codes.
type GenericName string

const (
	ServerSelectionFailed   GenericName = "SERVER_SELECTION_FAILED"
	TunnelTransformFailed   GenericName = "TUNNEL_TRANSFORM_FAILED"
	IKEInternalIOException  GenericName = "IKE_INTERNAL_IO_EXCEPTION"
	AuthenticationFailed    GenericName = "AUTHENTICATION_FAILED"
	PDNConnectionRejection  GenericName = "PDN_CONNECTION_REJECTION"
	NetworkFailure          GenericName = "NETWORK_FAILURE"
	TunnelNotFound          GenericName = "TUNNEL_NOT_FOUND"
)

// Error is the taxonomy from spec §7: either an IKEv2 protocol notify code
// from the driver, a generic internal symbolic failure, or the NoError
// sentinel that clears policy state for the APN.
type Error struct {
	isGeneric bool
	code      int         // IKEv2 notify-message type, 1..65535, when !isGeneric
	name      GenericName // set when isGeneric
	noError   bool
}

// NoError is the sentinel success value: it is never throttled and clears
// any existing policy record for the APN (spec §4.3 reportError).
var NoError = Error{noError: true}

// IKEProtocolError wraps an IKEv2 notify-message type raised by the driver.
func IKEProtocolError(code int) Error {
	return Error{code: code}
}

// GenericError wraps one of the closed set of internal symbolic failures.
func GenericError(name GenericName) Error {
	return Error{isGeneric: true, name: name}
}

// IsNoError reports whether e is the NoError sentinel.
func (e Error) IsNoError() bool { return e.noError }

// IsGeneric reports whether e is a GenericError rather than an
// IKEProtocolError.
func (e Error) IsGeneric() bool { return e.isGeneric }

// Code returns the IKEv2 notify code; only meaningful when !IsGeneric().
func (e Error) Code() int { return e.code }

// Name returns the generic symbolic name; only meaningful when IsGeneric().
func (e Error) Name() GenericName { return e.name }

func (e Error) String() string {
	switch {
	case e.noError:
		return "NO_ERROR"
	case e.isGeneric:
		return string(e.name)
	default:
		return fmt.Sprintf("IKE_PROTOCOL_ERROR(%d)", e.code)
	}
}

// TypeKey is the canonical identity of a *raised* error (spec §3 "Error
// Type Key"): either IKE_PROTOCOL_ERROR_TYPE(code) or
// GENERIC_ERROR_TYPE(name). It never represents a wildcard itself —
// wildcard matching is a policy-table concept (see the errorpolicy
// package's matcher), not a property of an error that actually occurred.
type TypeKey struct {
	Generic bool
	Code    int // meaningful when !Generic
	Name    GenericName // meaningful when Generic
}

// Canonicalize converts a raised Error into the key used to look up (and,
// on a miss, fall back from) its retry policy. NoError has no TypeKey — the
// caller must check IsNoError first.
func (e Error) Canonicalize() TypeKey {
	if e.isGeneric {
		return TypeKey{Generic: true, Name: e.name}
	}
	return TypeKey{Code: e.code}
}

func (k TypeKey) String() string {
	if k.Generic {
		return fmt.Sprintf("GENERIC_ERROR_TYPE(%s)", k.Name)
	}
	return fmt.Sprintf("IKE_PROTOCOL_ERROR_TYPE(%d)", k.Code)
}

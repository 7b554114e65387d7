// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errorpolicy

import "iwlan.dev/epdgctl/internal/ikeerror"

// Platform data-call fail-cause codes (spec §4.3 getDataFailCause), mirrored
// from the generic symbolic names an IKE error can canonicalize to. Values
// are assigned in declaration order; they are an internal enumeration, not a
// wire format shared with any other system.
const (
	FailCauseNone = iota
	FailCauseUserAuthentication
	FailCauseIWLANPDNConnectionRejection
	FailCauseIWLANNetworkFailure
	FailCauseServerSelectionFailed
	FailCauseTunnelTransformFailed
	FailCauseIKEInternalIOException
	FailCauseTunnelNotFound
)

// dataFailCause maps a raised error's canonical key to a platform fail
// cause. Any IKE protocol notify code — recognized by a carrier's policy
// table or not — surfaces as an IWLAN PDN connection rejection (spec §8
// scenario 5: an unrecognized protocol code still maps to
// IWLAN_PDN_CONNECTION_REJECTION); only generic internal failures get a
// distinct cause.
func dataFailCause(key ikeerror.TypeKey) int {
	if !key.Generic {
		return FailCauseIWLANPDNConnectionRejection
	}
	switch key.Name {
	case ikeerror.AuthenticationFailed:
		return FailCauseUserAuthentication
	case ikeerror.PDNConnectionRejection:
		return FailCauseIWLANPDNConnectionRejection
	case ikeerror.NetworkFailure:
		return FailCauseIWLANNetworkFailure
	case ikeerror.ServerSelectionFailed:
		return FailCauseServerSelectionFailed
	case ikeerror.TunnelTransformFailed:
		return FailCauseTunnelTransformFailed
	case ikeerror.IKEInternalIOException:
		return FailCauseIKEInternalIOException
	case ikeerror.TunnelNotFound:
		return FailCauseTunnelNotFound
	default:
		return FailCauseIWLANNetworkFailure
	}
}

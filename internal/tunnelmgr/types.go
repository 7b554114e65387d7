// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package tunnelmgr implements the per-slot Tunnel Lifecycle Manager
// (spec.md §4.4): the APN -> TunnelState state machine that mediates
// between the platform's setupDataCall/deactivateDataCall surface and the
// external IKE driver.
package tunnelmgr

import "iwlan.dev/epdgctl/internal/ikedriver"

// AccessNetwork is the platform's access-network enumeration; this control
// plane only ever accepts IWLAN (spec §4.4 setupDataCall rule 1).
type AccessNetwork int

const (
	AccessNetworkUnknown AccessNetwork = iota
	AccessNetworkIWLAN
)

// DeactivateReason is why deactivateDataCall was invoked (spec §6).
type DeactivateReason int

const (
	DeactivateNormal DeactivateReason = iota
	DeactivateShutdown
	DeactivateHandover
)

// Result is the platform completion result enum (spec §6 "Outbound").
type Result int

const (
	ResultSuccess Result = iota
	ResultErrorIllegalState
	ResultErrorInvalidArg
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultErrorIllegalState:
		return "ERROR_ILLEGAL_STATE"
	case ResultErrorInvalidArg:
		return "ERROR_INVALID_ARG"
	default:
		return "UNKNOWN_RESULT"
	}
}

// DataCallProfile is the platform-supplied APN profile (spec §4.4
// setupDataCall rule 1: "profile null" is a validation failure, so this is
// a pointer the caller must supply non-nil).
type DataCallProfile struct {
	APN          string
	ProtocolIPv4 bool
	ProtocolIPv6 bool
}

// HandoverSourceLinkProps carries the previous transport's link properties,
// required when SetupDataCallRequest.Reason == ikedriver.ReasonHandover
// (spec §4.4 setupDataCall rule 1).
type HandoverSourceLinkProps struct {
	IPv4 string
	IPv6 string
}

// SetupDataCallRequest is the full input to Manager.SetupDataCall (spec §6
// "Inbound").
type SetupDataCallRequest struct {
	AccessNetwork     AccessNetwork
	Profile           *DataCallProfile
	IsRoaming         bool
	AllowRoaming      bool
	Reason            ikedriver.Reason
	HandoverLinkProps *HandoverSourceLinkProps
	PDUSessionID      int
	IsEmergency       bool
	RequiresPCSCF     bool
	SliceInfo         *ikedriver.SliceInfo
	MatchAllAllowed   bool
}

// SetupCompletion is the onSetupDataCallComplete callback (spec §6
// "Outbound").
type SetupCompletion func(result Result, response *DataCallResponse)

// DeactivateCompletion is the onDeactivateDataCallComplete callback.
type DeactivateCompletion func(result Result)

// ListCompletion is the onRequestDataCallListComplete callback.
type ListCompletion func(result Result, list []*DataCallResponse)

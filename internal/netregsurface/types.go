// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netregsurface implements the Network-registration half of the
// Data/Network Surface (spec.md §4.5): answers
// requestNetworkRegistrationInfo(PS-domain) and emits
// networkRegistrationInfoChanged on Wi-Fi or subscription transitions.
package netregsurface

import "iwlan.dev/epdgctl/internal/ierrors"

// Domain is the network-registration query domain (spec §4.5 "Any other
// domain is rejected as unsupported"); only DomainPS is supported.
type Domain int

const (
	DomainUnknown Domain = iota
	DomainPS
	DomainCS
)

// Result mirrors the outcome of requestNetworkRegistrationInfo.
type Result int

const (
	ResultSuccess Result = iota
	ResultErrorUnsupported
)

func (r Result) String() string {
	if r == ResultSuccess {
		return "SUCCESS"
	}
	return "ERROR_UNSUPPORTED"
}

// RegistrationState is the PS-domain registration state (spec §4.5).
type RegistrationState int

const (
	RegistrationStateNotRegisteredSearching RegistrationState = iota
	RegistrationStateHome
)

func (s RegistrationState) String() string {
	if s == RegistrationStateHome {
		return "HOME"
	}
	return "NOT_REGISTERED_SEARCHING"
}

// NetworkRegistrationInfo is the immutable response value (spec §9
// "Mutable builder-plus-snapshot → immutable value + builder").
type NetworkRegistrationInfo struct {
	AccessNetwork     string
	Transport         string
	EmergencyOnly     bool
	RegistrationState RegistrationState
}

// NetworkRegistrationInfoBuilder validates required fields at Build time,
// matching the builder shape used by internal/ikedriver.
type NetworkRegistrationInfoBuilder struct {
	info NetworkRegistrationInfo
}

func NewNetworkRegistrationInfoBuilder() *NetworkRegistrationInfoBuilder {
	return &NetworkRegistrationInfoBuilder{}
}

func (b *NetworkRegistrationInfoBuilder) WithAccessNetwork(v string) *NetworkRegistrationInfoBuilder {
	b.info.AccessNetwork = v
	return b
}

func (b *NetworkRegistrationInfoBuilder) WithTransport(v string) *NetworkRegistrationInfoBuilder {
	b.info.Transport = v
	return b
}

func (b *NetworkRegistrationInfoBuilder) WithEmergencyOnly(v bool) *NetworkRegistrationInfoBuilder {
	b.info.EmergencyOnly = v
	return b
}

func (b *NetworkRegistrationInfoBuilder) WithRegistrationState(v RegistrationState) *NetworkRegistrationInfoBuilder {
	b.info.RegistrationState = v
	return b
}

func (b *NetworkRegistrationInfoBuilder) Build() (NetworkRegistrationInfo, error) {
	if b.info.AccessNetwork == "" || b.info.Transport == "" {
		return NetworkRegistrationInfo{}, ierrors.New(ierrors.KindInvalidArg, "netregsurface: access network and transport are required")
	}
	return b.info, nil
}

// Completion is the requestNetworkRegistrationInfo outbound callback (spec
// §6 onRequestNetworkRegistrationInfoComplete).
type Completion func(result Result, info *NetworkRegistrationInfo)

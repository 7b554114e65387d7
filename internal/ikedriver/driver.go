// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ikedriver defines the external IKE driver contract consumed by
// the Tunnel Lifecycle Manager (spec.md §6 "IKE driver contract (consumed)").
// The control plane never negotiates IKEv2 itself; it dispatches requests to
// a Driver implementation and reconciles on the asynchronous callbacks.
package ikedriver

import (
	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/ierrors"
	"iwlan.dev/epdgctl/internal/ikeerror"
)

// Reason is why a tunnel is being brought up (spec §6 setupDataCall).
type Reason int

const (
	ReasonNormal Reason = iota
	ReasonHandover
)

// SliceInfo carries 5G network-slice selection assistance information
// through to the driver unmodified; this control plane never interprets it.
type SliceInfo struct {
	SST uint8
	SD  string
}

// TunnelSetupRequest is the immutable value passed to Driver.BringUpTunnel,
// produced by TunnelSetupRequestBuilder (spec §9 "immutable value + builder").
type TunnelSetupRequest struct {
	APN              string
	ProtocolIPv4     bool
	ProtocolIPv6     bool
	IsRoaming        bool
	Reason           Reason
	PDUSessionID     int
	IsEmergency      bool
	RequiresPCSCF    bool
	SourceIPv4       string // set when Reason == ReasonHandover
	SourceIPv6       string // set when Reason == ReasonHandover
	SliceInfo        *SliceInfo

	// Endpoints is the ePDG Selector's resolved, protocol-filtered,
	// deduplicated address list for this APN (spec §2 "D requests endpoint
	// list from Selector (B) → D invokes external IKE driver"). The driver
	// picks which to attempt and in what order.
	Endpoints []epdgselector.Endpoint
}

// TunnelSetupRequestBuilder validates required fields at Build time and
// produces an immutable, safely-shareable TunnelSetupRequest.
type TunnelSetupRequestBuilder struct {
	req TunnelSetupRequest
	set bool
}

// NewTunnelSetupRequestBuilder starts a builder for the given APN.
func NewTunnelSetupRequestBuilder(apn string) *TunnelSetupRequestBuilder {
	return &TunnelSetupRequestBuilder{req: TunnelSetupRequest{APN: apn}}
}

func (b *TunnelSetupRequestBuilder) WithProtocols(ipv4, ipv6 bool) *TunnelSetupRequestBuilder {
	b.req.ProtocolIPv4, b.req.ProtocolIPv6 = ipv4, ipv6
	return b
}

func (b *TunnelSetupRequestBuilder) WithRoaming(roaming bool) *TunnelSetupRequestBuilder {
	b.req.IsRoaming = roaming
	return b
}

func (b *TunnelSetupRequestBuilder) WithReason(reason Reason) *TunnelSetupRequestBuilder {
	b.req.Reason = reason
	return b
}

func (b *TunnelSetupRequestBuilder) WithPDUSessionID(id int) *TunnelSetupRequestBuilder {
	b.req.PDUSessionID = id
	return b
}

func (b *TunnelSetupRequestBuilder) WithEmergency(emergency bool) *TunnelSetupRequestBuilder {
	b.req.IsEmergency = emergency
	return b
}

func (b *TunnelSetupRequestBuilder) WithPCSCF(requires bool) *TunnelSetupRequestBuilder {
	b.req.RequiresPCSCF = requires
	return b
}

func (b *TunnelSetupRequestBuilder) WithHandoverSource(ipv4, ipv6 string) *TunnelSetupRequestBuilder {
	b.req.SourceIPv4, b.req.SourceIPv6 = ipv4, ipv6
	return b
}

func (b *TunnelSetupRequestBuilder) WithSliceInfo(s *SliceInfo) *TunnelSetupRequestBuilder {
	b.req.SliceInfo = s
	return b
}

func (b *TunnelSetupRequestBuilder) WithEndpoints(endpoints []epdgselector.Endpoint) *TunnelSetupRequestBuilder {
	b.req.Endpoints = endpoints
	return b
}

// Build validates the request per spec §4.4 setupDataCall rule 1 and
// returns the immutable value. HANDOVER without source link properties is
// rejected here so the Manager's own validation and the builder's agree on
// what "valid" means.
func (b *TunnelSetupRequestBuilder) Build() (TunnelSetupRequest, error) {
	if b.req.APN == "" {
		return TunnelSetupRequest{}, errInvalidArg("APN must not be empty")
	}
	if !b.req.ProtocolIPv4 && !b.req.ProtocolIPv6 {
		return TunnelSetupRequest{}, errInvalidArg("at least one of IPv4/IPv6 protocol must be requested")
	}
	if b.req.Reason == ReasonHandover && b.req.SourceIPv4 == "" && b.req.SourceIPv6 == "" {
		return TunnelSetupRequest{}, errInvalidArg("HANDOVER requires source link properties")
	}
	return b.req, nil
}

// TunnelLinkProperties is the immutable result of a successful tunnel
// bring-up (spec §9), produced by TunnelLinkPropertiesBuilder.
type TunnelLinkProperties struct {
	InterfaceName string
	InternalIPv4  string
	InternalIPv6  string
	DNSAddresses  []string
	PCSCFAddresses []string
	SliceInfo     *SliceInfo
}

// TunnelLinkPropertiesBuilder validates required fields at Build time.
type TunnelLinkPropertiesBuilder struct {
	props TunnelLinkProperties
}

func NewTunnelLinkPropertiesBuilder(interfaceName string) *TunnelLinkPropertiesBuilder {
	return &TunnelLinkPropertiesBuilder{props: TunnelLinkProperties{InterfaceName: interfaceName}}
}

func (b *TunnelLinkPropertiesBuilder) WithInternalAddresses(ipv4, ipv6 string) *TunnelLinkPropertiesBuilder {
	b.props.InternalIPv4, b.props.InternalIPv6 = ipv4, ipv6
	return b
}

func (b *TunnelLinkPropertiesBuilder) WithDNS(addrs ...string) *TunnelLinkPropertiesBuilder {
	b.props.DNSAddresses = append(b.props.DNSAddresses, addrs...)
	return b
}

func (b *TunnelLinkPropertiesBuilder) WithPCSCF(addrs ...string) *TunnelLinkPropertiesBuilder {
	b.props.PCSCFAddresses = append(b.props.PCSCFAddresses, addrs...)
	return b
}

func (b *TunnelLinkPropertiesBuilder) WithSliceInfo(s *SliceInfo) *TunnelLinkPropertiesBuilder {
	b.props.SliceInfo = s
	return b
}

func (b *TunnelLinkPropertiesBuilder) Build() (TunnelLinkProperties, error) {
	if b.props.InterfaceName == "" {
		return TunnelLinkProperties{}, errInvalidArg("interface name must not be empty")
	}
	if b.props.InternalIPv4 == "" && b.props.InternalIPv6 == "" {
		return TunnelLinkProperties{}, errInvalidArg("at least one internal address is required")
	}
	return b.props, nil
}

// Callback receives the asynchronous outcome of a tunnel bring-up that
// Driver.BringUpTunnel accepted (spec §6 "Callback").
type Callback interface {
	OnOpened(apn string, props TunnelLinkProperties)
	OnClosed(apn string, err ikeerror.Error)
}

// Driver is the external IKEv2 engine consumed by internal/tunnelmgr. It
// never blocks the caller: BringUpTunnel dispatches the request and reports
// synchronous rejection only; all other outcomes arrive via Callback.
type Driver interface {
	BringUpTunnel(req TunnelSetupRequest, cb Callback) bool
	CloseTunnel(apn string, forceClose bool)
}

func errInvalidArg(msg string) error {
	return ierrors.New(ierrors.KindInvalidArg, msg)
}

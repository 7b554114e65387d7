// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package epdgselector implements the ePDG Selector (spec.md §4.2): an
// ordered, DNS-heavy resolution pipeline that converts a carrier-supplied
// priority list of address sources into a validated, protocol-filtered list
// of reachable ePDG endpoints.
package epdgselector

import (
	"net"

	"iwlan.dev/epdgctl/internal/carrierconfig"
)

// ProtocolFilter restricts which address families Resolve returns (spec
// §4.2 "Contract").
type ProtocolFilter int

const (
	ProtocolIPv4 ProtocolFilter = iota
	ProtocolIPv6
	ProtocolIPv4v6
)

func (f ProtocolFilter) accepts(ip net.IP) bool {
	v4 := ip.To4() != nil
	switch f {
	case ProtocolIPv4:
		return v4
	case ProtocolIPv6:
		return !v4
	default:
		return true
	}
}

// Endpoint is a resolved ePDG address (spec §3 "ePDG Endpoint").
type Endpoint struct {
	IP     net.IP
	Family ProtocolFilter
	Source carrierconfig.Source
}

func familyOf(ip net.IP) ProtocolFilter {
	if ip.To4() != nil {
		return ProtocolIPv4
	}
	return ProtocolIPv6
}

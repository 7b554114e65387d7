// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"
	"net"

	"iwlan.dev/epdgctl/internal/carrierconfig"
)

// staticSource resolves the carrier-configured literal address or FQDN
// (spec §4.2 "STATIC").
type staticSource struct{}

func (staticSource) kind() carrierconfig.Source { return carrierconfig.SourceStatic }

func (staticSource) resolve(ctx context.Context, sc sourceContext, apn string, isRoaming bool, dev DeviceState) ([]Endpoint, error) {
	addr := sc.bundle.StaticAddress
	if addr == "" {
		return nil, nil
	}
	if ip := net.ParseIP(addr); ip != nil {
		return []Endpoint{{IP: ip, Family: familyOf(ip), Source: carrierconfig.SourceStatic}}, nil
	}
	ips, err := sc.resolver.lookupIPs(ctx, addr)
	if err != nil {
		return nil, err
	}
	return endpointsFrom(ips, carrierconfig.SourceStatic), nil
}

func endpointsFrom(ips []net.IP, src carrierconfig.Source) []Endpoint {
	eps := make([]Endpoint, 0, len(ips))
	for _, ip := range ips {
		eps = append(eps, Endpoint{IP: ip, Family: familyOf(ip), Source: src})
	}
	return eps
}

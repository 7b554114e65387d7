// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"

	"iwlan.dev/epdgctl/internal/carrierconfig"
)

// plmnSource resolves FQDNs constructed from the SIM's camped MCC/MNC and
// any carrier-configured additional MCC/MNC pairs (spec §4.2 "PLMN").
type plmnSource struct{}

func (plmnSource) kind() carrierconfig.Source { return carrierconfig.SourcePLMN }

func (plmnSource) resolve(ctx context.Context, sc sourceContext, apn string, isRoaming bool, dev DeviceState) ([]Endpoint, error) {
	plmns := make([]carrierconfig.PLMNID, 0, 1+len(sc.bundle.AdditionalPLMNs))
	if dev.CampedPLMN.MCC != "" {
		plmns = append(plmns, dev.CampedPLMN)
	}
	plmns = append(plmns, sc.bundle.AdditionalPLMNs...)

	var out []Endpoint
	var lastErr error
	for _, p := range plmns {
		if ctx.Err() != nil {
			break
		}
		ips, err := sc.resolver.lookupIPs(ctx, plmnFQDN(p.MCC, p.MNC))
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, endpointsFrom(ips, carrierconfig.SourcePLMN)...)
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

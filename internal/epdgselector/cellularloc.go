// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"

	"iwlan.dev/epdgctl/internal/carrierconfig"
)

// cellularLocSource derives an FQDN from the current cell's tracking-area
// identity and resolves it (spec §4.2 "CELLULAR_LOC").
type cellularLocSource struct{}

func (cellularLocSource) kind() carrierconfig.Source { return carrierconfig.SourceCellularLoc }

func (cellularLocSource) resolve(ctx context.Context, sc sourceContext, apn string, isRoaming bool, dev DeviceState) ([]Endpoint, error) {
	if dev.TrackingArea.MCC == "" {
		return nil, nil
	}
	ips, err := sc.resolver.lookupIPs(ctx, plmnFQDN(dev.TrackingArea.MCC, dev.TrackingArea.MNC))
	if err != nil {
		return nil, err
	}
	return endpointsFrom(ips, carrierconfig.SourceCellularLoc), nil
}

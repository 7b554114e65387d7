// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"

	"iwlan.dev/epdgctl/internal/carrierconfig"
)

// pcoSource yields the addresses carried out-of-band in the cellular
// attach's Protocol Configuration Options directly, without DNS (spec §4.2
// "PCO").
type pcoSource struct{}

func (pcoSource) kind() carrierconfig.Source { return carrierconfig.SourcePCO }

func (pcoSource) resolve(ctx context.Context, sc sourceContext, apn string, isRoaming bool, dev DeviceState) ([]Endpoint, error) {
	return endpointsFrom(dev.PCOAddresses, carrierconfig.SourcePCO), nil
}

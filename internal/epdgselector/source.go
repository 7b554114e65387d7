// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"
	"net"

	"iwlan.dev/epdgctl/internal/carrierconfig"
)

// DeviceState is the modem/SIM-supplied input the PLMN, PCO, and
// CELLULAR_LOC sources read (spec §4.2): unlike the carrier-config bundle,
// this state arrives out-of-band from the cellular attach and tracking-area
// updates rather than from CARRIER_CONFIG_CHANGED.
type DeviceState struct {
	// CampedPLMN is the SIM's currently camped MCC/MNC, used for PLMN FQDN
	// construction alongside the carrier config's AdditionalPLMNs.
	CampedPLMN carrierconfig.PLMNID
	// PCOAddresses are the pre-supplied ePDG addresses carried in the
	// cellular attach's Protocol Configuration Options.
	PCOAddresses []net.IP
	// TrackingArea is the current cell's tracking-area identity, used for
	// CELLULAR_LOC FQDN derivation.
	TrackingArea carrierconfig.PLMNID
	// TrackingAreaCode is the TAC component of TrackingArea, zero if unknown.
	TrackingAreaCode int
}

// sourceContext carries the per-Resolve-call inputs a source needs, snapshot
// once at the start of Resolve so concurrent Resolve calls on the same
// Selector never share mutable state.
type sourceContext struct {
	bundle   *carrierconfig.Bundle
	resolver *resolver
}

// source resolves one entry of the carrier's address-priority array into
// endpoints (spec §4.2 "Algorithm").
type source interface {
	kind() carrierconfig.Source
	resolve(ctx context.Context, sc sourceContext, apn string, isRoaming bool, dev DeviceState) ([]Endpoint, error)
}

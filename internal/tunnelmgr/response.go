// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnelmgr

import (
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/ikedriver"
)

// MTU is hard-coded to the minimum IPv6 MTU (spec §4.4-DCR): absent
// path-MTU discovery, 1280 is the safest ceiling that can never require a
// fragmenting path to drop a packet outright.
const MTU = 1280

// DataCallResponse is the immutable result of a tunnel bring-up attempt,
// successful or failed (spec §4.4-DCR, §4.4 onClosed during BRINGING_UP).
type DataCallResponse struct {
	ID                 uint32
	AccessNetwork      AccessNetwork
	Cause              int // FailCauseNone on success
	RetryDurationMs    int64
	InterfaceName      string
	InternalIPv4       string
	InternalIPv6       string
	DNSAddresses       []string
	PCSCFAddresses     []string
	MTU                int
	GatewayList        []string
	HandoverFailureMode *bool
	SliceInfo          *ikedriver.SliceInfo
}

// buildSuccessResponse implements spec §4.4-DCR for a tunnel that reached
// UP: interface/addresses/DNS/P-CSCF from the driver's link properties, cid
// as id, MTU pinned, and a gateway wildcard per address family present.
func buildSuccessResponse(cid uint32, props ikedriver.TunnelLinkProperties) *DataCallResponse {
	resp := &DataCallResponse{
		ID:             cid,
		AccessNetwork:  AccessNetworkIWLAN,
		Cause:          errorpolicy.FailCauseNone,
		InterfaceName:  props.InterfaceName,
		InternalIPv4:   props.InternalIPv4,
		InternalIPv6:   props.InternalIPv6,
		DNSAddresses:   props.DNSAddresses,
		PCSCFAddresses: props.PCSCFAddresses,
		MTU:            MTU,
		SliceInfo:      props.SliceInfo,
	}
	if props.InternalIPv4 != "" {
		resp.GatewayList = append(resp.GatewayList, "0.0.0.0")
	}
	if props.InternalIPv6 != "" {
		resp.GatewayList = append(resp.GatewayList, "::")
	}
	return resp
}

// buildFailureResponse implements spec §4.4 onClosed(BRINGING_UP): a
// successful setup callback carrying a non-NONE cause and a retry
// duration, never an exception.
func buildFailureResponse(cid uint32, cause int, retryDurationMs int64, isHandover bool) *DataCallResponse {
	failed := isHandover
	return &DataCallResponse{
		ID:                  cid,
		AccessNetwork:       AccessNetworkIWLAN,
		Cause:               cause,
		RetryDurationMs:     retryDurationMs,
		HandoverFailureMode: &failed,
	}
}

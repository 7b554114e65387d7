// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package carrierconfig models the PersistableBundle-equivalent carrier
// configuration described in spec.md §6: a flat key/value bag carrying the
// ePDG address priority list, IKEv2 parameter enumerations, and the
// embedded JSON error-policy document keyed by
// "iwlan.key_error_policy_config_string".
package carrierconfig

import "time"

// Source is one entry in the ePDG address priority array (spec §4.2).
type Source string

const (
	SourceStatic      Source = "STATIC"
	SourcePLMN        Source = "PLMN"
	SourcePCO         Source = "PCO"
	SourceCellularLoc Source = "CELLULAR_LOC"
)

// PLMNID is an additional MCC/MNC pair configured for PLMN-derived FQDN
// construction, beyond the SIM's own camped PLMN (spec §4.2 "PLMN").
type PLMNID struct {
	MCC string
	MNC string
}

// DefaultRetransmitTimerMs is the RetransmitTimerMs value DefaultBundle
// starts from. It is not passed to the IKE driver.
var DefaultRetransmitTimerMs = []int{500, 1000, 2000, 4000, 8000}

// Bundle is the decoded carrier configuration for one SIM slot.
type Bundle struct {
	// EpdgAddressPriority is the ordered list of address sources the
	// Selector walks (spec §4.2 "Algorithm").
	EpdgAddressPriority []Source

	// StaticAddress is the configured address literal or FQDN for the
	// STATIC source.
	StaticAddress string

	// AdditionalPLMNs supplements the SIM's camped MCC/MNC for PLMN FQDN
	// construction (spec §4.2 "PLMN").
	AdditionalPLMNs []PLMNID

	// IKEv2 parameter enumerations (spec §6 "Carrier config"). This
	// control plane stores them without interpreting them; none of them is
	// passed to the IKE driver, since ikedriver.TunnelSetupRequest has no
	// fields for them.
	DHGroups             []string
	EncryptionAlgorithms []string
	IntegrityAlgorithms  []string
	PRFs                 []string
	SASLifetimeSeconds   int
	NATTKeepAlive        time.Duration
	LocalIdentityType    string
	RemoteIdentityType   string
	RetransmitTimerMs    []int

	// ErrorPolicyJSON is the raw value of
	// "iwlan.key_error_policy_config_string" (spec §4.3).
	ErrorPolicyJSON string

	// DNSResolutionTimeout bounds each Selector source's DNS lookups
	// (spec §4.2, §5 "Timeouts"); implementation-defined default 5s.
	DNSResolutionTimeout time.Duration
}

// DefaultBundle returns a Bundle with the spec's documented defaults and an
// empty error-policy document (the Error Policy Engine falls through to its
// own built-in defaults for an empty/missing document).
func DefaultBundle() *Bundle {
	return &Bundle{
		EpdgAddressPriority: []Source{SourceStatic, SourcePLMN, SourcePCO, SourceCellularLoc},
		RetransmitTimerMs:   append([]int(nil), DefaultRetransmitTimerMs...),
		DNSResolutionTimeout: 5 * time.Second,
	}
}

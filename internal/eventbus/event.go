// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package eventbus implements the per-slot event fan-out described in
// spec.md §4.1: external events (carrier-config change, airplane mode,
// Wi-Fi toggles, SSID changes) delivered asynchronously to registered
// consumers, each on its own serial queue.
package eventbus

// Kind is the closed set of admissible event kinds (spec §2(A), §4.1).
// The JSON policy document names these by string (spec §9 "Static
// from-string reflection"); ParseKind implements that mapping as an
// exhaustive switch rather than reflection, and unknown names resolve to
// KindUnknown, which subscribe-time code silently drops.
type Kind int

const (
	KindUnknown Kind = iota
	KindCarrierConfigChanged
	KindAirplaneModeEnabled
	KindAirplaneModeDisabled
	KindWifiDisabled
	KindWifiAPChanged
	KindWifiCallingEnabled
	KindWifiCallingDisabled
)

func (k Kind) String() string {
	switch k {
	case KindCarrierConfigChanged:
		return "CARRIER_CONFIG_CHANGED"
	case KindAirplaneModeEnabled:
		return "APM_ENABLE_EVENT"
	case KindAirplaneModeDisabled:
		return "APM_DISABLE_EVENT"
	case KindWifiDisabled:
		return "WIFI_DISABLE_EVENT"
	case KindWifiAPChanged:
		return "WIFI_AP_CHANGED"
	case KindWifiCallingEnabled:
		return "WIFI_CALLING_ENABLE_EVENT"
	case KindWifiCallingDisabled:
		return "WIFI_CALLING_DISABLE_EVENT"
	default:
		return "UNKNOWN_EVENT"
	}
}

// ParseKind maps a JSON policy "UnthrottlingEvents" string to a Kind.
// Unrecognized names return KindUnknown; callers are expected to drop them
// silently at subscribe/parse time (spec §9).
func ParseKind(name string) Kind {
	switch name {
	case "CARRIER_CONFIG_CHANGED":
		return KindCarrierConfigChanged
	case "APM_ENABLE_EVENT":
		return KindAirplaneModeEnabled
	case "APM_DISABLE_EVENT":
		return KindAirplaneModeDisabled
	case "WIFI_DISABLE_EVENT":
		return KindWifiDisabled
	case "WIFI_AP_CHANGED":
		return KindWifiAPChanged
	case "WIFI_CALLING_ENABLE_EVENT":
		return KindWifiCallingEnabled
	case "WIFI_CALLING_DISABLE_EVENT":
		return KindWifiCallingDisabled
	default:
		return KindUnknown
	}
}

// Event is a tagged variant over Kind with an optional payload (e.g. the
// new SSID for KindWifiAPChanged, the carrier-config bundle for
// KindCarrierConfigChanged).
type Event struct {
	Kind    Kind
	Payload any
}

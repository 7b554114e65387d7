// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config provides HCL configuration handling for the static daemon
// config described in spec.md §1.3: a handful of process-wide knobs that
// never change at runtime (contrast internal/carrierconfig, which decodes
// the dynamic per-slot PersistableBundle the platform delivers).
package config

// CurrentSchemaVersion is the schema version this build understands.
const CurrentSchemaVersion = "1.0"

// Config is the top-level static daemon configuration (spec §1.3).
type Config struct {
	// Schema version for backward compatibility.
	// @enum: 1.0
	// @default: "1.0"
	// @example: "1.0"
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty"`

	// SlotCount is the number of SIM slots this daemon instantiates a
	// Tunnel Manager / ePDG Selector / Error Policy Engine for (spec §4,
	// "per SIM slot"). Most devices carry one or two.
	// @default: 1
	// @example: 2
	SlotCount int `hcl:"slot_count,optional" json:"slot_count,omitempty"`

	// DefaultRetransmitTimerMs is an IKEv2 retransmit schedule in
	// milliseconds. It is validated on load but not read by the daemon, and
	// no retransmit schedule reaches the IKE driver:
	// ikedriver.TunnelSetupRequest has no field for one.
	// @default: [500, 1000, 2000, 4000, 8000]
	// @example: [500, 1000, 2000, 4000, 8000]
	DefaultRetransmitTimerMs []int `hcl:"default_retransmit_timer_ms,optional" json:"default_retransmit_timer_ms,omitempty"`

	// DNSTimeout bounds the per-source DNS lookups in the ePDG Selector
	// (spec §4.2, §5 "Timeouts") when a slot's carrier config doesn't
	// override it. A Go duration string, e.g. "5s".
	// @default: "5s"
	// @example: "3s"
	DNSTimeout string `hcl:"dns_timeout,optional" json:"dns_timeout,omitempty"`

	// ProbeReachability gates the supplemented reachability-probe feature:
	// ICMP-probing DNS-prefetch-resolved endpoints and reordering by
	// observed RTT. Never applied to the real bring-up path.
	// @default: false
	ProbeReachability bool `hcl:"probe_reachability,optional" json:"probe_reachability,omitempty"`

	// AdminAPI configures the read-only/test HTTP+WS control surface
	// (spec §3.6); nil disables it entirely.
	AdminAPI *AdminAPIConfig `hcl:"admin_api,block" json:"admin_api,omitempty"`

	// Syslog configures the structured-log sink (internal/logging).
	Syslog *SyslogConfig `hcl:"syslog,block" json:"syslog,omitempty"`
}

// AdminAPIConfig is the admin-API listener block.
type AdminAPIConfig struct {
	// Enabled turns the listener on; disabled by default since the admin
	// API is never required for any spec §4 operation.
	// @default: false
	Enabled bool `hcl:"enabled,optional" json:"enabled,omitempty"`

	// Listen is the bind address, host:port.
	// @default: "127.0.0.1:8878"
	// @example: "127.0.0.1:8878"
	Listen string `hcl:"listen,optional" json:"listen,omitempty"`

	// AllowCarrierConfigOverride is read only by DeepValidate, which warns
	// when it is set. The admin API does not consult it: the test-only
	// POST /carrierconfig endpoint is registered whenever the admin API is
	// enabled, whatever this field says.
	// @default: false
	AllowCarrierConfigOverride bool `hcl:"allow_carrier_config_override,optional" json:"allow_carrier_config_override,omitempty"`
}

// SyslogConfig is the structured-log sink block.
type SyslogConfig struct {
	// Network is "udp" or "tcp"; "" is treated as "udp". There is no
	// local syslog socket mode.
	// @enum: "", "udp", "tcp"
	// @default: ""
	Network string `hcl:"network,optional" json:"network,omitempty"`

	// Address is the syslog target, e.g. "localhost:514". The syslog sink
	// is attached only when Address is non-empty.
	// @example: "localhost:514"
	Address string `hcl:"address,optional" json:"address,omitempty"`

	// Tag is the syslog program tag.
	// @default: "epdgd"
	Tag string `hcl:"tag,optional" json:"tag,omitempty"`

	// Level is the minimum log level emitted.
	// @enum: "debug", "info", "warn", "error"
	// @default: "info"
	Level string `hcl:"level,optional" json:"level,omitempty"`
}

// Default returns a Config with the spec's documented defaults.
func Default() *Config {
	return &Config{
		SchemaVersion:            CurrentSchemaVersion,
		SlotCount:                1,
		DefaultRetransmitTimerMs: []int{500, 1000, 2000, 4000, 8000},
		DNSTimeout:               "5s",
		ProbeReachability:        false,
		AdminAPI: &AdminAPIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8878",
		},
		Syslog: &SyslogConfig{
			Tag:   "epdgd",
			Level: "info",
		},
	}
}

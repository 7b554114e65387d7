// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"fmt"
	"net"
	"time"
)

// DeepValidate runs Validate plus checks that need to parse or
// cross-reference a field against another (spec §1.3 "two-phase
// validation": shallow shape checks, then semantic ones).
func (c *Config) DeepValidate() ValidationErrors {
	errs := c.Validate()

	if _, err := c.DNSTimeoutDuration(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "dns_timeout",
			Message: fmt.Sprintf("not a valid duration: %v", err),
		})
	}

	if c.AdminAPI != nil && c.AdminAPI.Enabled {
		if _, _, err := net.SplitHostPort(c.AdminAPI.Listen); err != nil {
			errs = append(errs, ValidationError{
				Field:   "admin_api.listen",
				Message: fmt.Sprintf("not a valid host:port: %v", err),
			})
		}
		if c.AdminAPI.AllowCarrierConfigOverride {
			errs = append(errs, ValidationError{
				Field:    "admin_api.allow_carrier_config_override",
				Message:  "enabled outside a test rig lets any local caller push carrier config",
				Severity: "warning",
			})
		}
	}

	if c.Syslog != nil && c.Syslog.Network != "" && c.Syslog.Address == "" {
		errs = append(errs, ValidationError{
			Field:   "syslog.address",
			Message: "required when syslog.network is set",
		})
	}

	return errs
}

// DNSTimeoutDuration parses DNSTimeout, defaulting to 5 seconds when unset.
func (c *Config) DNSTimeoutDuration() (time.Duration, error) {
	if c.DNSTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(c.DNSTimeout)
}

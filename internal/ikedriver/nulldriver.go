// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ikedriver

import "iwlan.dev/epdgctl/internal/logging"

// NullDriver is the Driver this daemon runs with until a platform IKEv2
// engine is wired in. IKEv2 packet processing is outside this module's
// scope; NullDriver exists so cmd/epdgd is a complete, runnable binary
// without one, rejecting every bring-up synchronously and logging why.
type NullDriver struct {
	logger *logging.Logger
}

// NewNullDriver returns a Driver that rejects every BringUpTunnel call.
func NewNullDriver(logger *logging.Logger) *NullDriver {
	return &NullDriver{logger: logger}
}

func (d *NullDriver) BringUpTunnel(req TunnelSetupRequest, cb Callback) bool {
	if d.logger != nil {
		d.logger.Warn("ikedriver: no platform driver configured, rejecting bring-up", "apn", req.APN)
	}
	return false
}

func (d *NullDriver) CloseTunnel(apn string, forceClose bool) {}

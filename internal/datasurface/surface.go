// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package datasurface implements the Data-surface half of the Data/Network
// Surface (spec.md §4.5): setupDataCall/deactivateDataCall/
// requestDataCallList delegated to the Tunnel Manager, plus the
// default-network callback that classifies connectivity and the DNS
// prefetch heuristic.
package datasurface

import (
	"context"
	"time"

	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/netstate"
	"iwlan.dev/epdgctl/internal/tunnelmgr"
)

// Surface is the per-slot Data-surface façade (spec §4.5), one of the two
// serial-worker services in spec §5's scheduling model. It owns no tunnel
// state of its own: all mutation is delegated to Manager, which is
// independently serialized on its own worker.
type Surface struct {
	slot     int
	manager  *tunnelmgr.Manager
	selector *epdgselector.Selector
	logger   *logging.Logger
	network  epdgselector.Network

	ops chan func()

	carrierConfigReady bool
	wifiCallingEnabled bool
	networkConnected   bool

	probeReachability bool
}

// NewSurface creates a Surface wired to manager and selector for the given
// SIM slot.
func NewSurface(slot int, manager *tunnelmgr.Manager, selector *epdgselector.Selector, logger *logging.Logger) *Surface {
	s := &Surface{
		slot:     slot,
		manager:  manager,
		selector: selector,
		logger:   logger,
		network:  epdgselector.DefaultNetwork{},
		ops:      make(chan func()),
	}
	go s.run()
	return s
}

func (s *Surface) run() {
	for op := range s.ops {
		op()
	}
}

func (s *Surface) do(fn func()) {
	done := make(chan struct{})
	s.ops <- func() { fn(); close(done) }
	<-done
}

// Close stops the worker goroutine.
func (s *Surface) Close() { close(s.ops) }

// SetNetwork overrides the Network handle used for DNS-prefetch
// resolution, e.g. to bind to a specific Wi-Fi interface once connected.
func (s *Surface) SetNetwork(n epdgselector.Network) {
	s.do(func() { s.network = n })
}

// SetProbeReachability enables the supplemented reachability-probe feature
// (ICMP-probing the prefetch-resolved endpoints and reordering by observed
// RTT) for this slot's DNS prefetch only; default off, set from the static
// daemon config.
func (s *Surface) SetProbeReachability(enabled bool) {
	s.do(func() { s.probeReachability = enabled })
}

// SetupDataCall, DeactivateDataCall, and RequestDataCallList are pure
// pass-throughs to Manager (spec §4.5 "Data surface ... delegates to
// Tunnel Manager"); Manager's own worker provides their serialization.
func (s *Surface) SetupDataCall(req tunnelmgr.SetupDataCallRequest, completion tunnelmgr.SetupCompletion) {
	s.manager.SetupDataCall(req, completion)
}

func (s *Surface) DeactivateDataCall(cid uint32, reason tunnelmgr.DeactivateReason, completion tunnelmgr.DeactivateCompletion) {
	s.manager.DeactivateDataCall(cid, reason, completion)
}

func (s *Surface) RequestDataCallList(completion tunnelmgr.ListCompletion) {
	s.manager.RequestDataCallList(completion)
}

// SetOnDataCallListChanged registers the callback fired on every tunnel
// state transition (spec §4.5 notifyDataCallListChanged).
func (s *Surface) SetOnDataCallListChanged(fn func([]*tunnelmgr.DataCallResponse)) {
	s.manager.SetOnDataCallListChanged(fn)
}

// SetCarrierConfigReady records whether carrier config has arrived for
// this slot, one of the four DNS-prefetch preconditions (spec §4.5).
func (s *Surface) SetCarrierConfigReady(ready bool) {
	s.do(func() {
		s.carrierConfigReady = ready
		s.maybePrefetchLocked()
	})
}

// SetWifiCallingEnabled records the carrier's Wi-Fi calling enablement,
// another DNS-prefetch precondition.
func (s *Surface) SetWifiCallingEnabled(enabled bool) {
	s.do(func() {
		s.wifiCallingEnabled = enabled
		s.maybePrefetchLocked()
	})
}

// SetNetworkConnected is the default-network callback (spec §4.5, §5
// "setNetworkConnected(true, WIFI, …) completes before any tunnel bring-up
// attempted after it"). It publishes the new transport classification to
// internal/netstate, force-closing every tunnel on this slot first if the
// classification changed away from a previously-known transport (spec
// §4.5 "if it differs from the previous non-UNSPEC value, triggers the
// force-close ... before accepting the new transport"), then evaluates the
// DNS-prefetch preconditions.
func (s *Surface) SetNetworkConnected(connected bool, transport netstate.Transport) {
	s.do(func() {
		newTransport := netstate.TransportUnspec
		if connected {
			newTransport = transport
		}

		prev := netstate.CurrentTransport()
		if prev != netstate.TransportUnspec && prev != newTransport {
			s.manager.ForceCloseAll()
		}
		netstate.SetTransport(newTransport)

		s.networkConnected = connected
		s.maybePrefetchLocked()
	})
}

// maybePrefetchLocked implements spec §4.5 "DNS prefetch": when carrier
// config is ready, Wi-Fi calling is enabled, the network is connected, and
// no tunnels exist, resolve twice (roaming=false, then roaming=true) to
// warm DNS caches. Results are discarded; failures are ignored. Runs on
// its own goroutine so a slow resolve never blocks this worker's queue.
func (s *Surface) maybePrefetchLocked() {
	if !s.carrierConfigReady || !s.wifiCallingEnabled || !s.networkConnected {
		return
	}
	if s.manager.HasTunnels() {
		return
	}

	selector, network, logger, probe := s.selector, s.network, s.logger, s.probeReachability
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, roaming := range []bool{false, true} {
			endpoints, err := selector.Resolve(ctx, epdgselector.ProtocolIPv4v6, roaming, network, "prefetch")
			if err != nil {
				logWarn(logger, "datasurface: DNS prefetch resolve failed, ignoring", "roaming", roaming, "error", err)
				continue
			}
			if probe {
				selector.ProbeReachability(ctx, endpoints, 3, 2*time.Second)
			}
		}
	}()
}

func logWarn(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Warn(msg, kv...)
	}
}

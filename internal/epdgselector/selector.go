// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package epdgselector implements the ePDG Selector (spec.md §4.2): an
// ordered, DNS-heavy resolution pipeline that converts a carrier-supplied
// priority list of address sources into a validated, protocol-filtered list
// of reachable ePDG endpoints.
package epdgselector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrServerSelectionFailed is returned when every configured source
// produces no usable endpoint (spec §4.2 "fail with SERVER_SELECTION_FAILED").
var ErrServerSelectionFailed = fmt.Errorf("epdgselector: no source produced a usable endpoint")

var allSources = map[carrierconfig.Source]source{
	carrierconfig.SourceStatic:      staticSource{},
	carrierconfig.SourcePLMN:        plmnSource{},
	carrierconfig.SourcePCO:         pcoSource{},
	carrierconfig.SourceCellularLoc: cellularLocSource{},
}

// Selector is the per-slot ePDG Selector (spec §4.2). It holds the current
// carrier-config bundle and device state needed by its sources. Resolve
// snapshots both into locals at call start and never writes to the
// Selector itself, so it's safe to call concurrently — e.g. from
// internal/datasurface's prefetch goroutine and internal/tunnelmgr's
// worker at the same time.
type Selector struct {
	slot   int
	logger *logging.Logger

	mu     sync.RWMutex
	bundle *carrierconfig.Bundle
	dev    DeviceState

	// newResolver builds the resolver each Resolve call uses; overridden in
	// tests to substitute a fake DNS exchanger in place of a real socket.
	newResolver func(network Network, timeout time.Duration) *resolver

	latency  *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewSelector creates a Selector for the given SIM slot with default
// carrier config (all four sources in their documented default order) and
// empty device state.
func NewSelector(slot int, logger *logging.Logger, reg prometheus.Registerer) *Selector {
	s := &Selector{
		slot:        slot,
		logger:      logger,
		bundle:      carrierconfig.DefaultBundle(),
		newResolver: newResolver,
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iwlan_epdg_selector_source_latency_seconds",
			Help:    "Per-source resolution latency observed by the ePDG Selector.",
			Buckets: prometheus.DefBuckets,
		}, []string{"slot", "source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iwlan_epdg_selector_failures_total",
			Help: "Count of SERVER_SELECTION_FAILED outcomes by APN.",
		}, []string{"slot", "apn"}),
	}
	if reg != nil {
		reg.MustRegister(s.latency, s.failures)
	}
	return s
}

// UpdateConfig replaces the carrier-config bundle sources are resolved
// against. Safe to call concurrently with Resolve; Resolve reads a
// consistent snapshot taken at call start.
func (s *Selector) UpdateConfig(bundle *carrierconfig.Bundle) {
	if bundle == nil {
		bundle = carrierconfig.DefaultBundle()
	}
	s.mu.Lock()
	s.bundle = bundle
	s.mu.Unlock()
}

// UpdateDeviceState replaces the modem/SIM-supplied state the PLMN, PCO,
// and CELLULAR_LOC sources read.
func (s *Selector) UpdateDeviceState(dev DeviceState) {
	s.mu.Lock()
	s.dev = dev
	s.mu.Unlock()
}

// Resolve implements the ePDG Selector's contract (spec §4.2): walks the
// carrier's address-priority array in order, filters by protocolFilter,
// dedups preserving first-occurrence order, and fails with
// ErrServerSelectionFailed if nothing usable was produced. ctx bounds and
// cancels the whole call; cancellation is honored between sources.
func (s *Selector) Resolve(ctx context.Context, protocolFilter ProtocolFilter, isRoaming bool, network Network, apn string) ([]Endpoint, error) {
	s.mu.RLock()
	bundle := s.bundle
	dev := s.dev
	s.mu.RUnlock()

	sc := sourceContext{
		bundle:   bundle,
		resolver: s.newResolver(network, bundle.DNSResolutionTimeout),
	}

	result := newOrderedSet()
	for _, kind := range bundle.EpdgAddressPriority {
		if ctx.Err() != nil {
			break
		}
		src, ok := allSources[kind]
		if !ok {
			logWarn(s.logger, "epdgselector: unknown address source, skipping", "slot", s.slot, "source", kind)
			continue
		}

		start := time.Now()
		eps, err := src.resolve(ctx, sc, apn, isRoaming, dev)
		s.latency.WithLabelValues(slotLabel(s.slot), string(kind)).Observe(time.Since(start).Seconds())
		if err != nil {
			logWarn(s.logger, "epdgselector: source failed", "slot", s.slot, "apn", apn, "source", kind, "error", err)
			continue
		}

		filtered := make([]Endpoint, 0, len(eps))
		for _, ep := range eps {
			if protocolFilter.accepts(ep.IP) {
				filtered = append(filtered, ep)
			}
		}
		result.addAll(filtered)
	}

	endpoints := result.list()
	if len(endpoints) == 0 {
		s.failures.WithLabelValues(slotLabel(s.slot), apn).Inc()
		return nil, ErrServerSelectionFailed
	}
	return endpoints, nil
}

func slotLabel(slot int) string {
	return fmt.Sprintf("%d", slot)
}

func logWarn(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Warn(msg, kv...)
	}
}

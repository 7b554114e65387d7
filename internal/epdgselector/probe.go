// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"
	"sort"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ProbeReachability ICMP-probes the first topN endpoints and reorders them
// by observed round-trip time, unreachable endpoints sorted last (spec's
// supplemented "Reachability probe" feature). Callers use this only off the
// real bring-up critical path — during DNS prefetch — since an extra RTT
// here must never delay a real setupDataCall.
func (s *Selector) ProbeReachability(ctx context.Context, endpoints []Endpoint, topN int, perProbeTimeout time.Duration) []Endpoint {
	if topN <= 0 || topN > len(endpoints) {
		topN = len(endpoints)
	}
	if perProbeTimeout <= 0 {
		perProbeTimeout = 2 * time.Second
	}

	type timed struct {
		ep      Endpoint
		rtt     time.Duration
		reached bool
	}
	results := make([]timed, topN)
	for i := 0; i < topN; i++ {
		ep := endpoints[i]
		rtt, ok := s.probeOne(ctx, ep, perProbeTimeout)
		results[i] = timed{ep: ep, rtt: rtt, reached: ok}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].reached != results[j].reached {
			return results[i].reached
		}
		return results[i].rtt < results[j].rtt
	})

	out := make([]Endpoint, 0, len(endpoints))
	for _, r := range results {
		out = append(out, r.ep)
	}
	out = append(out, endpoints[topN:]...)
	return out
}

func (s *Selector) probeOne(ctx context.Context, ep Endpoint, timeout time.Duration) (time.Duration, bool) {
	pinger, err := probing.NewPinger(ep.IP.String())
	if err != nil {
		logWarn(s.logger, "epdgselector: reachability probe setup failed", "slot", s.slot, "ip", ep.IP.String(), "error", err)
		return 0, false
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pinger.RunWithContext(runCtx); err != nil {
		return 0, false
	}

	stats := pinger.Statistics()
	if stats == nil || stats.PacketsRecv == 0 {
		return 0, false
	}
	return stats.AvgRtt, true
}

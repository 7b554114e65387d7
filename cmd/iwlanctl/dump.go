// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"iwlan.dev/epdgctl/internal/tui"
)

// slotSnapshot is one slot's tunnel list plus the policy state for each
// APN seen in that list, for a bug-report-friendly YAML dump.
type slotSnapshot struct {
	Slot    int               `yaml:"slot"`
	Tunnels []tui.TunnelStatus `yaml:"tunnels"`
	Policy  []tui.PolicyStatus `yaml:"policy"`
}

type snapshot struct {
	Slots []slotSnapshot `yaml:"slots"`
}

// dumpSnapshot writes a YAML snapshot of every given slot's tunnel and
// policy state, read from backend, to w.
func dumpSnapshot(w io.Writer, backend tui.Backend, slots []int) error {
	out := snapshot{Slots: make([]slotSnapshot, 0, len(slots))}

	for _, slot := range slots {
		tunnels, err := backend.GetTunnels(slot)
		if err != nil {
			return fmt.Errorf("iwlanctl: dump: fetching tunnels for slot %d: %w", slot, err)
		}

		seen := make(map[string]bool)
		policies := make([]tui.PolicyStatus, 0, len(tunnels))
		for _, t := range tunnels {
			if t.APN == "" || seen[t.APN] {
				continue
			}
			seen[t.APN] = true
			p, err := backend.GetPolicy(slot, t.APN)
			if err != nil {
				return fmt.Errorf("iwlanctl: dump: fetching policy for slot %d apn %q: %w", slot, t.APN, err)
			}
			if p != nil {
				policies = append(policies, *p)
			}
		}

		out.Slots = append(out.Slots, slotSnapshot{Slot: slot, Tunnels: tunnels, Policy: policies})
	}

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(out)
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"bytes"
	"strings"
	"testing"

	"iwlan.dev/epdgctl/internal/tui"
)

type fakeBackend struct {
	tunnels map[int][]tui.TunnelStatus
	policy  map[string]*tui.PolicyStatus
}

func (f *fakeBackend) GetTunnels(slot int) ([]tui.TunnelStatus, error) { return f.tunnels[slot], nil }
func (f *fakeBackend) GetPolicy(slot int, apn string) (*tui.PolicyStatus, error) {
	return f.policy[apn], nil
}
func (f *fakeBackend) SimulateSetup(tui.SimulateSetupRequest) (*tui.SimulateResult, error) {
	return nil, nil
}
func (f *fakeBackend) SimulateDeactivate(int, uint32) (*tui.SimulateResult, error) { return nil, nil }

func TestDumpSnapshot(t *testing.T) {
	backend := &fakeBackend{
		tunnels: map[int][]tui.TunnelStatus{
			0: {{ID: 1, APN: "ims", State: "UP"}},
		},
		policy: map[string]*tui.PolicyStatus{
			"ims": {APN: "ims", CanBringUp: true},
		},
	}

	var buf bytes.Buffer
	if err := dumpSnapshot(&buf, backend, []int{0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "apn: ims") {
		t.Fatalf("expected output to mention apn: ims, got:\n%s", buf.String())
	}
}

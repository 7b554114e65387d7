// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/clock"
	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/netstate"
	"iwlan.dev/epdgctl/internal/testutil"
	"iwlan.dev/epdgctl/internal/tunnelmgr"
)

func newTestServer(t *testing.T) (*Server, *tunnelmgr.Manager) {
	t.Helper()
	driver := testutil.NewFakeDriver()
	policy := errorpolicy.NewEngine(0, clock.New(), logging.Default(), nil)
	t.Cleanup(policy.Close)

	selector := epdgselector.NewSelector(0, logging.Default(), nil)
	bundle := carrierconfig.DefaultBundle()
	bundle.StaticAddress = "203.0.113.1"
	selector.UpdateConfig(bundle)

	mgr := tunnelmgr.NewManager(0, driver, policy, selector, logging.Default(), nil)
	t.Cleanup(mgr.Close)
	netstate.SetTransport(netstate.TransportWifi)
	mgr.SetDefaultSlot(true, false)

	srv := NewServer([]*SlotServices{{Slot: 0, Manager: mgr, Policy: policy}}, logging.Default())
	return srv, mgr
}

func TestHandleTunnelsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tunnels")
	if err != nil {
		t.Fatalf("GET /tunnels: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["calls"] != nil {
		t.Fatalf("got calls %v, want nil/empty on a fresh manager", body["calls"])
	}
}

func TestHandleTunnelsUnknownSlot(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tunnels?slot=7")
	if err != nil {
		t.Fatalf("GET /tunnels: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.StatusCode)
	}
}

func TestHandlePolicyReportsCanBringUp(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/policy/ims")
	if err != nil {
		t.Fatalf("GET /policy/ims: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["canBringUp"] != true {
		t.Fatalf("got canBringUp=%v, want true for an untouched APN", body["canBringUp"])
	}
}

func TestHandleSetCarrierConfigUpdatesEngine(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	bundle := carrierconfig.DefaultBundle()
	payload, err := json.Marshal(map[string]any{"slot": 0, "bundle": bundle})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(ts.URL+"/carrierconfig", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /carrierconfig: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}
}

func TestHandleSetCarrierConfigUnknownSlot(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	payload, err := json.Marshal(map[string]any{"slot": 9})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := http.Post(ts.URL+"/carrierconfig", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /carrierconfig: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", resp.StatusCode)
	}
}

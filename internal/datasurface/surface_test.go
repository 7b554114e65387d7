// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package datasurface

import (
	"testing"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/clock"
	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/ikedriver"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/netstate"
	"iwlan.dev/epdgctl/internal/testutil"
	"iwlan.dev/epdgctl/internal/tunnelmgr"
)

func newTestSurface(t *testing.T) (*Surface, *tunnelmgr.Manager, *testutil.FakeDriver) {
	t.Helper()
	driver := testutil.NewFakeDriver()
	policy := errorpolicy.NewEngine(0, clock.New(), logging.Default(), nil)
	t.Cleanup(policy.Close)
	bundle := carrierconfig.DefaultBundle()
	bundle.StaticAddress = "203.0.113.1"

	mgrSelector := epdgselector.NewSelector(0, logging.Default(), nil)
	mgrSelector.UpdateConfig(bundle)
	mgr := tunnelmgr.NewManager(0, driver, policy, mgrSelector, logging.Default(), nil)
	t.Cleanup(mgr.Close)
	mgr.SetDefaultSlot(true, false)

	selector := epdgselector.NewSelector(0, logging.Default(), nil)
	selector.UpdateConfig(carrierconfig.DefaultBundle())

	s := NewSurface(0, mgr, selector, logging.Default())
	t.Cleanup(s.Close)
	netstate.SetTransport(netstate.TransportUnspec)
	return s, mgr, driver
}

func TestSetupDataCallDelegatesToManager(t *testing.T) {
	s, _, _ := newTestSurface(t)

	var gotResult tunnelmgr.Result
	done := make(chan struct{})
	req := tunnelmgr.SetupDataCallRequest{
		AccessNetwork: tunnelmgr.AccessNetworkUnknown,
		Profile:       &tunnelmgr.DataCallProfile{APN: "ims", ProtocolIPv4: true},
		Reason:        ikedriver.ReasonNormal,
	}
	s.SetupDataCall(req, func(r tunnelmgr.Result, _ *tunnelmgr.DataCallResponse) {
		gotResult = r
		close(done)
	})
	<-done
	if gotResult != tunnelmgr.ResultErrorInvalidArg {
		t.Fatalf("got %v, want ERROR_INVALID_ARG (pass-through rejection from Manager)", gotResult)
	}
}

func TestSetNetworkConnectedForceClosesOnTransportTransition(t *testing.T) {
	s, mgr, driver := newTestSurface(t)

	s.SetNetworkConnected(true, netstate.TransportWifi)

	done := make(chan struct{})
	req := tunnelmgr.SetupDataCallRequest{
		AccessNetwork: tunnelmgr.AccessNetworkIWLAN,
		Profile:       &tunnelmgr.DataCallProfile{APN: "ims", ProtocolIPv4: true},
		Reason:        ikedriver.ReasonNormal,
	}
	mgr.SetupDataCall(req, func(tunnelmgr.Result, *tunnelmgr.DataCallResponse) { close(done) })
	props, err := ikedriver.NewTunnelLinkPropertiesBuilder("ipsec0").
		WithInternalAddresses("192.0.2.1", "").
		WithDNS("8.8.8.8").
		Build()
	if err != nil {
		t.Fatalf("build props: %v", err)
	}
	driver.CompleteOpen("ims", props)
	<-done

	if got := mgr.State("ims"); got != "UP" {
		t.Fatalf("state before transition: got %q, want UP", got)
	}

	s.SetNetworkConnected(true, netstate.TransportCellular)

	if got := mgr.State("ims"); got != "DOWN" {
		t.Fatalf("state after transport transition: got %q, want DOWN (force-closed)", got)
	}
	if netstate.CurrentTransport() != netstate.TransportCellular {
		t.Fatalf("got transport %v, want CELLULAR", netstate.CurrentTransport())
	}
}

func TestSetNetworkConnectedFirstTransitionDoesNotForceClose(t *testing.T) {
	s, mgr, _ := newTestSurface(t)

	s.SetNetworkConnected(true, netstate.TransportWifi)

	done := make(chan struct{})
	req := tunnelmgr.SetupDataCallRequest{
		AccessNetwork: tunnelmgr.AccessNetworkIWLAN,
		Profile:       &tunnelmgr.DataCallProfile{APN: "ims", ProtocolIPv4: true},
		Reason:        ikedriver.ReasonNormal,
	}
	mgr.SetupDataCall(req, func(tunnelmgr.Result, *tunnelmgr.DataCallResponse) { close(done) })
	// The fake driver reports no outcome until CompleteOpen/CompleteClose,
	// so the setup is still pending here.
	select {
	case <-done:
		t.Fatal("setup completed before the driver reported an outcome")
	default:
	}

	if got := mgr.State("ims"); got != "BRINGING_UP" {
		t.Fatalf("got %q, want BRINGING_UP (no force-close from the first non-UNSPEC transition)", got)
	}
}

func TestHasTunnelsGatesPrefetch(t *testing.T) {
	s, mgr, driver := newTestSurface(t)
	_ = driver

	s.SetCarrierConfigReady(true)
	s.SetWifiCallingEnabled(true)
	s.SetNetworkConnected(true, netstate.TransportWifi)

	if mgr.HasTunnels() {
		t.Fatal("expected no tunnels on a fresh manager")
	}
}

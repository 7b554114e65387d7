// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tui_test

import (
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"iwlan.dev/epdgctl/internal/adminapi"
	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/clock"
	"iwlan.dev/epdgctl/internal/datasurface"
	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/ikedriver"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/testutil"
	"iwlan.dev/epdgctl/internal/tui"
	"iwlan.dev/epdgctl/internal/tunnelmgr"
)

// TestDashboard_AgainstRealAdminAPI drives the dashboard over a real
// internal/adminapi.Server backed by a live errorpolicy/tunnelmgr/
// datasurface stack, mirroring the teacher's httptest-plus-teatest
// TUI-integration style.
func TestDashboard_AgainstRealAdminAPI(t *testing.T) {
	logger := logging.Default()
	driver := testutil.NewFakeDriver()
	policy := errorpolicy.NewEngine(0, clock.New(), logger, nil)
	t.Cleanup(policy.Close)
	policy.UpdateConfig(carrierconfig.DefaultBundle())

	bundle := carrierconfig.DefaultBundle()
	bundle.StaticAddress = "203.0.113.1"

	mgrSelector := epdgselector.NewSelector(0, logger, nil)
	mgrSelector.UpdateConfig(bundle)
	mgr := tunnelmgr.NewManager(0, driver, policy, mgrSelector, logger, nil)
	t.Cleanup(mgr.Close)
	mgr.SetDefaultSlot(true, false)

	selector := epdgselector.NewSelector(0, logger, nil)
	selector.UpdateConfig(carrierconfig.DefaultBundle())

	surface := datasurface.NewSurface(0, mgr, selector, logger)
	t.Cleanup(surface.Close)

	srv := adminapi.NewServer([]*adminapi.SlotServices{
		{Slot: 0, Manager: mgr, Policy: policy, Selector: selector, Surface: surface},
	}, logger)

	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	done := make(chan struct{})
	surface.SetupDataCall(tunnelmgr.SetupDataCallRequest{
		AccessNetwork: tunnelmgr.AccessNetworkIWLAN,
		Profile:       &tunnelmgr.DataCallProfile{APN: "ims", ProtocolIPv4: true},
	}, func(tunnelmgr.Result, *tunnelmgr.DataCallResponse) { close(done) })
	props, err := ikedriver.NewTunnelLinkPropertiesBuilder("ipsec0").
		WithInternalAddresses("10.0.0.1", "").
		Build()
	if err != nil {
		t.Fatalf("building link properties: %v", err)
	}
	driver.CompleteOpen("ims", props)
	<-done

	backend := tui.NewHTTPBackend(httpSrv.URL)
	model := tui.NewModel(backend, []int{0})

	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(100, 30))
	time.Sleep(200 * time.Millisecond)
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	final := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	view := final.View()
	if len(view) == 0 {
		t.Fatal("expected a non-empty rendered view")
	}
}

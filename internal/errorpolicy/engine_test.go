// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errorpolicy

import (
	"encoding/json"
	"testing"
	"time"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/clock"
	"iwlan.dev/epdgctl/internal/eventbus"
	"iwlan.dev/epdgctl/internal/ikeerror"
	"iwlan.dev/epdgctl/internal/logging"
)

func bundleWithDoc(t *testing.T, doc carrierconfig.PolicyDocument) *carrierconfig.Bundle {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal policy doc: %v", err)
	}
	return &carrierconfig.Bundle{ErrorPolicyJSON: string(raw)}
}

func newTestEngine(t *testing.T, c clock.Clock) *Engine {
	t.Helper()
	e := NewEngine(0, c, logging.Default(), nil)
	t.Cleanup(e.Close)
	return e
}

// Scenario 1: back-off progression, code 24 four times: 4, 8, 16, -1.
func TestBackOffProgression(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"24", "34"}, RetryArray: []string{"4", "8", "16"}},
		}},
	}))

	want := []int{4, 8, 16, WaitGiveUp}
	for i, w := range want {
		got := e.ReportError("ims", ikeerror.IKEProtocolError(24))
		if got != w {
			t.Fatalf("report %d: got %d, want %d", i+1, got, w)
		}
	}
}

// Scenario 2: wildcard fallback within an APN; explicit [24,34]:[4,8,16]
// plus wildcard IKE_PROTOCOL:*:[0]. Reporting code 44 (not in the explicit
// set) falls to the wildcard and gives up on the second report.
func TestWildcardFallbackWithinAPN(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"24", "34"}, RetryArray: []string{"4", "8", "16"}},
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"*"}, RetryArray: []string{"0"}},
		}},
	}))

	if got := e.ReportError("ims", ikeerror.IKEProtocolError(44)); got != 0 {
		t.Fatalf("first report: got %d, want 0", got)
	}
	if got := e.ReportError("ims", ikeerror.IKEProtocolError(44)); got != WaitGiveUp {
		t.Fatalf("second report: got %d, want give-up", got)
	}
}

// Scenario 3: throttle window opens and closes with wall-clock time.
func TestThrottleWindow(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"24"}, RetryArray: []string{"4"}},
		}},
	}))

	if got := e.ReportError("ims", ikeerror.IKEProtocolError(24)); got != 4 {
		t.Fatalf("report: got %d, want 4", got)
	}
	if e.CanBringUpTunnel("ims") {
		t.Fatal("expected throttled immediately after scheduling a 4s wait")
	}
	fc.Advance(4 * time.Second)
	if !e.CanBringUpTunnel("ims") {
		t.Fatal("expected unthrottled after the wait elapses")
	}
}

// Scenario 4: publishing an attached unthrottle event mid-throttle resets
// the record immediately and the index resets for the next report.
func TestUnthrottleEventResetsRecord(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{
				ErrorType:          carrierconfig.ErrorTypeIKEProtocol,
				ErrorDetails:       []string{"24"},
				RetryArray:         []string{"4", "8", "16"},
				UnthrottlingEvents: []string{"APM_ENABLE_EVENT"},
			},
		}},
	}))

	if got := e.ReportError("ims", ikeerror.IKEProtocolError(24)); got != 4 {
		t.Fatalf("first report: got %d, want 4", got)
	}
	if e.CanBringUpTunnel("ims") {
		t.Fatal("expected throttled mid-window")
	}

	e.HandleEvent(eventbus.KindAirplaneModeEnabled)

	if !e.CanBringUpTunnel("ims") {
		t.Fatal("expected immediate unthrottle after the event")
	}
	if got := e.ReportError("ims", ikeerror.IKEProtocolError(24)); got != 4 {
		t.Fatalf("report after reset: got %d, want 4 again", got)
	}
}

// Scenario 5: fail-cause mapping.
func TestFailCauseMapping(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)

	e.ReportError("ims", ikeerror.GenericError(ikeerror.AuthenticationFailed))
	if got := e.GetDataFailCause("ims"); got != FailCauseUserAuthentication {
		t.Fatalf("ims: got %d, want FailCauseUserAuthentication", got)
	}

	e.ReportError("mms", ikeerror.IKEProtocolError(8192))
	if got := e.GetDataFailCause("mms"); got != FailCauseIWLANPDNConnectionRejection {
		t.Fatalf("mms: got %d, want FailCauseIWLANPDNConnectionRejection", got)
	}
}

// Round-trip: NO_ERROR always clears and re-enables bring-up.
func TestNoErrorClearsRecord(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"24"}, RetryArray: []string{"4"}},
		}},
	}))
	e.ReportError("ims", ikeerror.IKEProtocolError(24))
	e.ReportError("ims", ikeerror.NoError)
	if !e.CanBringUpTunnel("ims") {
		t.Fatal("expected canBringUpTunnel == true after NO_ERROR")
	}
}

// Invariant 3, checked for a record's first report: with no record yet,
// canBringUpTunnel is true and the next non-NO_ERROR report returns a
// non-negative wait. Once a record has returned its tail value, the next
// report gives up instead (see TestBackOffProgression).
func TestCanBringUpImpliesNonNegativeWait(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: carrierconfig.ErrorTypeGeneric, ErrorDetails: []string{"NETWORK_FAILURE"}, RetryArray: []string{"5", "10", "15"}},
		}},
	}))

	if !e.CanBringUpTunnel("ims") {
		t.Fatal("expected no record yet, canBringUpTunnel == true")
	}
	got := e.ReportError("ims", ikeerror.GenericError(ikeerror.NetworkFailure))
	if got < 0 {
		t.Fatalf("got %d, want >= 0", got)
	}
}

// Malformed entries are dropped without invalidating siblings.
func TestMalformedEntryIsolatedFromSiblings(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	e.UpdateConfig(bundleWithDoc(t, carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: "BOGUS_TYPE", ErrorDetails: []string{"1"}, RetryArray: []string{"1"}},
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"24"}, RetryArray: []string{"4", "8", "16"}},
		}},
	}))

	if got := e.ReportError("ims", ikeerror.IKEProtocolError(24)); got != 4 {
		t.Fatalf("got %d, want 4 from the surviving sibling entry", got)
	}
}

func TestReconfigurationPreservesInFlightRecords(t *testing.T) {
	fc := clock.NewFake(clock.New().Now())
	e := newTestEngine(t, fc)
	doc := carrierconfig.PolicyDocument{
		{ApnName: "ims", ErrorTypes: []carrierconfig.ErrorTypeEntry{
			{ErrorType: carrierconfig.ErrorTypeIKEProtocol, ErrorDetails: []string{"24"}, RetryArray: []string{"4", "8", "16"}},
		}},
	}
	e.UpdateConfig(bundleWithDoc(t, doc))
	e.ReportError("ims", ikeerror.IKEProtocolError(24))

	// Re-apply the same document; the live record's index must survive.
	e.UpdateConfig(bundleWithDoc(t, doc))
	if got := e.ReportError("ims", ikeerror.IKEProtocolError(24)); got != 8 {
		t.Fatalf("got %d, want 8 (index preserved across reconfiguration)", got)
	}
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package testutil

import (
	"sync"

	"iwlan.dev/epdgctl/internal/ikedriver"
	"iwlan.dev/epdgctl/internal/ikeerror"
)

// FakeDriver is a test double for ikedriver.Driver. BringUpTunnel accepts
// synchronously unless AcceptBringUp is false; tests drive the
// asynchronous outcome explicitly by calling CompleteOpen/CompleteClose,
// mirroring how the real driver's
// callbacks arrive on their own goroutine.
type FakeDriver struct {
	mu sync.Mutex

	// AcceptBringUp, when false, makes BringUpTunnel reject synchronously.
	AcceptBringUp bool

	calls   map[string]ikedriver.Callback
	closed  map[string]bool
	Forced  map[string]bool
}

// NewFakeDriver returns a FakeDriver that accepts every bring-up request.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		AcceptBringUp: true,
		calls:         make(map[string]ikedriver.Callback),
		closed:        make(map[string]bool),
		Forced:        make(map[string]bool),
	}
}

func (f *FakeDriver) BringUpTunnel(req ikedriver.TunnelSetupRequest, cb ikedriver.Callback) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.AcceptBringUp {
		return false
	}
	f.calls[req.APN] = cb
	return true
}

func (f *FakeDriver) CloseTunnel(apn string, forceClose bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[apn] = true
	f.Forced[apn] = forceClose
}

// WasClosed reports whether CloseTunnel has been invoked for apn.
func (f *FakeDriver) WasClosed(apn string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[apn]
}

// CompleteOpen invokes the stored callback's OnOpened for apn, simulating
// the driver successfully establishing the tunnel.
func (f *FakeDriver) CompleteOpen(apn string, props ikedriver.TunnelLinkProperties) {
	f.mu.Lock()
	cb := f.calls[apn]
	f.mu.Unlock()
	if cb != nil {
		cb.OnOpened(apn, props)
	}
}

// CompleteClose invokes the stored callback's OnClosed for apn, simulating
// either a bring-up failure or a tear-down completion depending on the
// manager's recorded state for apn.
func (f *FakeDriver) CompleteClose(apn string, err ikeerror.Error) {
	f.mu.Lock()
	cb := f.calls[apn]
	f.mu.Unlock()
	if cb != nil {
		cb.OnClosed(apn, err)
	}
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package netregsurface

import "iwlan.dev/epdgctl/internal/logging"

// Surface is the per-slot Network-registration façade (spec §4.5), one of
// the two serial-worker services in spec §5's scheduling model.
type Surface struct {
	slot   int
	logger *logging.Logger

	ops chan func()

	wifiConnected      bool
	subscriptionActive bool

	onChanged func()
}

// NewSurface creates a Surface for the given SIM slot, starting with Wi-Fi
// disconnected and the subscription inactive.
func NewSurface(slot int, logger *logging.Logger) *Surface {
	s := &Surface{slot: slot, logger: logger, ops: make(chan func())}
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

// SetOnNetworkRegistrationInfoChanged registers the callback invoked on
// Wi-Fi up/down or subscription active/inactive transitions (spec §4.5
// notifyNetworkRegistrationInfoChanged).
func (s *Surface) SetOnNetworkRegistrationInfoChanged(fn func()) {
	s.do(func() { s.onChanged = fn })
}

// SetWifiConnected updates the Surface's view of Wi-Fi connectivity,
// firing notifyNetworkRegistrationInfoChanged iff the value changed.
func (s *Surface) SetWifiConnected(connected bool) {
	s.do(func() {
		if s.wifiConnected == connected {
			return
		}
		s.wifiConnected = connected
		s.notifyLocked()
	})
}

// SetSubscriptionActive updates the Surface's view of subscription state,
// firing notifyNetworkRegistrationInfoChanged iff the value changed.
func (s *Surface) SetSubscriptionActive(active bool) {
	s.do(func() {
		if s.subscriptionActive == active {
			return
		}
		s.subscriptionActive = active
		s.notifyLocked()
	})
}

func (s *Surface) notifyLocked() {
	if s.onChanged != nil {
		s.onChanged()
	}
}

// RequestNetworkRegistrationInfo implements spec §4.5
// requestNetworkRegistrationInfo: only the PS domain is supported; any
// other domain is rejected as unsupported.
func (s *Surface) RequestNetworkRegistrationInfo(domain Domain, completion Completion) {
	s.do(func() {
		if domain != DomainPS {
			completion(ResultErrorUnsupported, nil)
			return
		}

		state := RegistrationStateNotRegisteredSearching
		if s.wifiConnected {
			state = RegistrationStateHome
		}
		info, err := NewNetworkRegistrationInfoBuilder().
			WithAccessNetwork("IWLAN").
			WithTransport("WLAN").
			WithEmergencyOnly(!s.subscriptionActive).
			WithRegistrationState(state).
			Build()
		if err != nil {
			completion(ResultErrorUnsupported, nil)
			return
		}
		completion(ResultSuccess, &info)
	})
}

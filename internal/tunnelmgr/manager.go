// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnelmgr

import (
	"context"
	"encoding/binary"

	"iwlan.dev/epdgctl/internal/epdgselector"
	"iwlan.dev/epdgctl/internal/errorpolicy"
	"iwlan.dev/epdgctl/internal/ikedriver"
	"iwlan.dev/epdgctl/internal/ikeerror"
	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/netstate"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/blake2b"
)

// state is the internal per-APN lifecycle state (spec §4.4). DOWN is
// implicit: invariant 1 requires no record in the map for a DOWN APN.
type state int

const (
	stateBringingUp state = iota
	stateUp
	stateBringingDown
)

func (s state) String() string {
	switch s {
	case stateBringingUp:
		return "BRINGING_UP"
	case stateUp:
		return "UP"
	case stateBringingDown:
		return "BRINGING_DOWN"
	default:
		return "DOWN"
	}
}

type tunnelRecord struct {
	state      state
	cid        uint32
	profile    *DataCallProfile
	isHandover bool

	setupCompletion      SetupCompletion
	deactivateCompletion DeactivateCompletion

	// raceClose is set when deactivateDataCall arrives while the record is
	// still BRINGING_UP (spec §5 "Cancellation": "queue close; when
	// onOpened or onClosed arrives, reconcile").
	raceClose bool
}

// Manager is the per-slot singleton Tunnel Lifecycle Manager. All mutating
// operations and all driver callbacks are dispatched onto its single
// serial worker (spec §5 "Scheduling model").
type Manager struct {
	slot     int
	driver   ikedriver.Driver
	policy   *errorpolicy.Engine
	selector *epdgselector.Selector
	logger   *logging.Logger

	ops     chan func()
	records map[string]*tunnelRecord

	crossSIMCalling bool
	isDefaultSlot   bool
	network         epdgselector.Network

	onDataCallListChanged func([]*DataCallResponse)

	state *prometheus.GaugeVec
}

// NewManager creates a Manager bound to the given slot, driver, Error
// Policy Engine, and ePDG Selector.
func NewManager(slot int, driver ikedriver.Driver, policy *errorpolicy.Engine, selector *epdgselector.Selector, logger *logging.Logger, reg prometheus.Registerer) *Manager {
	m := &Manager{
		slot:     slot,
		driver:   driver,
		policy:   policy,
		selector: selector,
		logger:   logger,
		ops:      make(chan func()),
		records:  make(map[string]*tunnelRecord),
		network:  epdgselector.DefaultNetwork{},
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iwlan_tunnel_state",
			Help: "Current tunnel lifecycle state per (slot, apn): 0=BRINGING_UP 1=UP 2=BRINGING_DOWN.",
		}, []string{"slot", "apn"}),
	}
	if reg != nil {
		reg.MustRegister(m.state)
	}
	go m.run()
	return m
}

// SetNetwork overrides the Network handle used to resolve ePDG endpoints
// before bring-up, e.g. once a specific Wi-Fi interface is known.
func (m *Manager) SetNetwork(n epdgselector.Network) {
	m.do(func() { m.network = n })
}

func (m *Manager) run() {
	for op := range m.ops {
		op()
	}
}

// do submits fn to the worker and blocks until it has run. A panic inside
// fn (spec §4.4 onClosed: an onClosed during BRINGING_DOWN that is neither
// NO_ERROR nor IKE_INTERNAL_IO_EXCEPTION is a fatal programming error) is
// recovered on the worker and re-raised on the caller's goroutine, so the
// worker itself survives to serve the next operation while the assertion
// still surfaces as a panic to whoever triggered it.
func (m *Manager) do(fn func()) {
	done := make(chan any, 1)
	m.ops <- func() {
		defer func() { done <- recover() }()
		fn()
	}
	if r := <-done; r != nil {
		panic(r)
	}
}

// Close stops the worker goroutine.
func (m *Manager) Close() { close(m.ops) }

// SetOnDataCallListChanged registers the callback invoked whenever the call
// list changes (spec §4.5 notifyDataCallListChanged).
func (m *Manager) SetOnDataCallListChanged(fn func([]*DataCallResponse)) {
	m.do(func() { m.onDataCallListChanged = fn })
}

// SetDefaultSlot configures whether this slot is the default data slot,
// and whether cross-SIM calling is enabled for it, for the transport-gating
// rule in spec §4.5.
func (m *Manager) SetDefaultSlot(isDefault, crossSIMCalling bool) {
	m.do(func() {
		m.isDefaultSlot = isDefault
		m.crossSIMCalling = crossSIMCalling
	})
}

// transportGateOpen reads the process-wide transport classifier fresh
// inside the worker (spec §5 "enforced by checking the latest value inside
// the Tunnel Manager's worker"): the default slot requires WIFI
// specifically, any other slot requires cross-SIM calling and any
// non-UNSPEC transport (spec §4.5 "Transport gating").
func (m *Manager) transportGateOpen() bool {
	t := netstate.CurrentTransport()
	if m.isDefaultSlot {
		return t == netstate.TransportWifi
	}
	return m.crossSIMCalling && t != netstate.TransportUnspec
}

func cidFor(apn string) uint32 {
	sum := blake2b.Sum256([]byte(apn))
	return binary.BigEndian.Uint32(sum[:4])
}

// SetupDataCall implements spec §4.4 setupDataCall.
func (m *Manager) SetupDataCall(req SetupDataCallRequest, completion SetupCompletion) {
	m.do(func() { m.setupDataCallLocked(req, completion) })
}

func (m *Manager) setupDataCallLocked(req SetupDataCallRequest, completion SetupCompletion) {
	if req.AccessNetwork != AccessNetworkIWLAN || req.Profile == nil ||
		(req.Reason == ikedriver.ReasonHandover && req.HandoverLinkProps == nil) {
		completion(ResultErrorInvalidArg, nil)
		return
	}

	apn := req.Profile.APN
	if _, exists := m.records[apn]; exists || !m.transportGateOpen() {
		completion(ResultErrorIllegalState, nil)
		return
	}

	// Consult the Error Policy Engine's throttle gate before admitting a new
	// bring-up (spec §2 "surface consults Error Engine 'canBringUp?'"; spec
	// §7 "a throttled APN ... is rejected with ILLEGAL_STATE").
	if !m.policy.CanBringUpTunnel(apn) {
		completion(ResultErrorIllegalState, nil)
		return
	}

	protocolFilter := epdgselector.ProtocolIPv4v6
	switch {
	case req.Profile.ProtocolIPv4 && !req.Profile.ProtocolIPv6:
		protocolFilter = epdgselector.ProtocolIPv4
	case req.Profile.ProtocolIPv6 && !req.Profile.ProtocolIPv4:
		protocolFilter = epdgselector.ProtocolIPv6
	}

	// Request the endpoint list from the ePDG Selector before invoking the
	// driver (spec §2 "D requests endpoint list from Selector (B) → D
	// invokes external IKE driver"). A resolution failure is reported to
	// the Error Policy Engine exactly like a driver-reported failure, so
	// the platform still gets a SERVER_SELECTION_FAILED completion with a
	// retry deadline instead of a bare error.
	endpoints, err := m.selector.Resolve(context.Background(), protocolFilter, req.IsRoaming, m.network, apn)
	if err != nil {
		logWarn(m.logger, "tunnelmgr: ePDG endpoint resolution failed", "slot", m.slot, "apn", apn, "error", err)
		m.policy.ReportError(apn, ikeerror.GenericError(ikeerror.ServerSelectionFailed))
		cause := m.policy.GetDataFailCause(apn)
		retryMs := m.policy.GetCurrentRetryTime(apn)
		completion(ResultSuccess, buildFailureResponse(cidFor(apn), cause, retryMs, req.Reason == ikedriver.ReasonHandover))
		return
	}

	builder := ikedriver.NewTunnelSetupRequestBuilder(apn).
		WithProtocols(req.Profile.ProtocolIPv4, req.Profile.ProtocolIPv6).
		WithRoaming(req.IsRoaming).
		WithReason(req.Reason).
		WithPDUSessionID(req.PDUSessionID).
		WithEmergency(req.IsEmergency).
		WithPCSCF(req.RequiresPCSCF).
		WithSliceInfo(req.SliceInfo).
		WithEndpoints(endpoints)
	if req.HandoverLinkProps != nil {
		builder = builder.WithHandoverSource(req.HandoverLinkProps.IPv4, req.HandoverLinkProps.IPv6)
	}
	driverReq, err := builder.Build()
	if err != nil {
		completion(ResultErrorInvalidArg, nil)
		return
	}

	rec := &tunnelRecord{
		state:      stateBringingUp,
		cid:        cidFor(apn),
		profile:    req.Profile,
		isHandover: req.Reason == ikedriver.ReasonHandover,

		setupCompletion: completion,
	}
	m.records[apn] = rec
	m.state.WithLabelValues(slotLabel(m.slot), apn).Set(float64(stateBringingUp))

	correlationID := uuid.New()
	logInfo(m.logger, "tunnelmgr: bringing up tunnel", "slot", m.slot, "apn", apn, "cid", rec.cid, "correlation_id", correlationID)

	accepted := m.driver.BringUpTunnel(driverReq, &driverCallback{mgr: m, apn: apn})
	if !accepted {
		delete(m.records, apn)
		m.state.DeleteLabelValues(slotLabel(m.slot), apn)
		completion(ResultErrorInvalidArg, nil)
	}
}

// driverCallback adapts ikedriver.Callback onto the Manager's worker: every
// invocation is re-dispatched so the driver's own goroutine never touches
// Manager state directly (spec §5 "All mutating operations and all driver
// callbacks are dispatched onto these workers").
type driverCallback struct {
	mgr *Manager
	apn string
}

func (c *driverCallback) OnOpened(apn string, props ikedriver.TunnelLinkProperties) {
	c.mgr.do(func() { c.mgr.onOpenedLocked(apn, props) })
}

func (c *driverCallback) OnClosed(apn string, err ikeerror.Error) {
	c.mgr.do(func() { c.mgr.onClosedLocked(apn, err) })
}

func (m *Manager) onOpenedLocked(apn string, props ikedriver.TunnelLinkProperties) {
	rec, ok := m.records[apn]
	if !ok {
		return
	}

	if rec.raceClose {
		// A close was requested while this bring-up was still in flight;
		// reconcile by issuing the close now and treating the subsequent
		// onClosed as the deactivate's success (spec §5 "Cancellation": "if
		// onOpened races in, immediately issue a close and treat subsequent
		// onClosed as success").
		rec.state = stateBringingDown
		m.state.WithLabelValues(slotLabel(m.slot), apn).Set(float64(stateBringingDown))
		m.driver.CloseTunnel(apn, false)
		return
	}

	rec.state = stateUp
	m.policy.ReportError(apn, ikeerror.NoError)
	m.state.WithLabelValues(slotLabel(m.slot), apn).Set(float64(stateUp))

	resp := buildSuccessResponse(rec.cid, props)
	completion := rec.setupCompletion
	rec.setupCompletion = nil
	if completion != nil {
		completion(ResultSuccess, resp)
	}
}

func (m *Manager) onClosedLocked(apn string, err ikeerror.Error) {
	rec, ok := m.records[apn]
	if !ok {
		return
	}

	switch rec.state {
	case stateBringingUp:
		delete(m.records, apn)
		m.state.DeleteLabelValues(slotLabel(m.slot), apn)

		m.policy.ReportError(apn, err)
		cause := m.policy.GetDataFailCause(apn)
		retryMs := m.policy.GetCurrentRetryTime(apn)
		resp := buildFailureResponse(rec.cid, cause, retryMs, rec.isHandover)

		completion := rec.setupCompletion
		if completion != nil {
			completion(ResultSuccess, resp)
		}
		// A deactivate that raced in during bring-up is satisfied too: the
		// tunnel never came up, so it is already gone.
		if deactivate := rec.deactivateCompletion; deactivate != nil {
			deactivate(ResultSuccess)
		}

	case stateBringingDown:
		delete(m.records, apn)
		m.state.DeleteLabelValues(slotLabel(m.slot), apn)

		if !err.IsNoError() && err.Name() != ikeerror.IKEInternalIOException {
			logError(m.logger, "tunnelmgr: contract violation, unexpected error while BRINGING_DOWN", "slot", m.slot, "apn", apn, "error", err.String())
			panic("tunnelmgr: onClosed during BRINGING_DOWN must be NO_ERROR or IKE_INTERNAL_IO_EXCEPTION")
		}

		if completion := rec.deactivateCompletion; completion != nil {
			completion(ResultSuccess)
		}
		// A bring-up that raced into this close (onOpened arrived after the
		// deactivate was already queued) still owes the platform a setup
		// completion (spec §5 "Cancellation"): it never reached UP from the
		// platform's perspective.
		if setup := rec.setupCompletion; setup != nil {
			m.policy.ReportError(apn, ikeerror.GenericError(ikeerror.TunnelNotFound))
			cause := m.policy.GetDataFailCause(apn)
			retryMs := m.policy.GetCurrentRetryTime(apn)
			setup(ResultSuccess, buildFailureResponse(rec.cid, cause, retryMs, rec.isHandover))
		}

	default: // stateUp: unsolicited close
		delete(m.records, apn)
		m.state.DeleteLabelValues(slotLabel(m.slot), apn)
		m.republishLocked()
	}
}

// DeactivateDataCall implements spec §4.4 deactivateDataCall: finds the APN
// whose cid matches and transitions it to BRINGING_DOWN.
func (m *Manager) DeactivateDataCall(cid uint32, reason DeactivateReason, completion DeactivateCompletion) {
	m.do(func() { m.deactivateDataCallLocked(cid, reason, completion) })
}

func (m *Manager) deactivateDataCallLocked(cid uint32, reason DeactivateReason, completion DeactivateCompletion) {
	for apn, rec := range m.records {
		if rec.cid != cid {
			continue
		}
		if rec.state == stateBringingUp {
			rec.raceClose = true
			rec.deactivateCompletion = completion
			return
		}
		rec.state = stateBringingDown
		rec.deactivateCompletion = completion
		m.state.WithLabelValues(slotLabel(m.slot), apn).Set(float64(stateBringingDown))
		m.driver.CloseTunnel(apn, false)
		return
	}
	completion(ResultErrorInvalidArg)
}

// ForceCloseAll implements spec §4.5's "forceClose on transport change":
// all tunnels are unconditionally cleared, and the driver is asked to tear
// down without waiting for the state machine to reconcile.
func (m *Manager) ForceCloseAll() {
	m.do(func() {
		for apn := range m.records {
			m.driver.CloseTunnel(apn, true)
			delete(m.records, apn)
			m.state.DeleteLabelValues(slotLabel(m.slot), apn)
		}
		m.republishLocked()
	})
}

// RequestDataCallList implements spec §6 requestDataCallList.
func (m *Manager) RequestDataCallList(completion ListCompletion) {
	m.do(func() {
		completion(ResultSuccess, m.callListLocked())
	})
}

func (m *Manager) callListLocked() []*DataCallResponse {
	var list []*DataCallResponse
	for apn, rec := range m.records {
		if rec.state != stateUp {
			continue
		}
		// Link properties aren't retained past setup completion in this
		// minimal record; the admin/debug surface (internal/adminapi)
		// rebuilds a summary view instead of a full DataCallResponse when
		// only the cid/state is needed. Tests that need full details do so
		// at setup completion time via the SetupCompletion callback.
		list = append(list, &DataCallResponse{ID: rec.cid, AccessNetwork: AccessNetworkIWLAN, Cause: errorpolicy.FailCauseNone})
		_ = apn
	}
	return list
}

func (m *Manager) republishLocked() {
	if m.onDataCallListChanged != nil {
		m.onDataCallListChanged(m.callListLocked())
	}
}

// HasTunnels reports whether any APN on this slot currently has a record
// (BRINGING_UP, UP, or BRINGING_DOWN), used by internal/datasurface to gate
// DNS prefetch (spec §4.5 "no tunnels exist").
func (m *Manager) HasTunnels() bool {
	var has bool
	m.do(func() { has = len(m.records) != 0 })
	return has
}

// State reports the current lifecycle state for apn, for tests and the
// admin surface; "DOWN" when no record exists.
func (m *Manager) State(apn string) string {
	var s string
	m.do(func() {
		rec, ok := m.records[apn]
		if !ok {
			s = "DOWN"
			return
		}
		s = rec.state.String()
	})
	return s
}

func logInfo(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Info(msg, kv...)
	}
}

func logError(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Error(msg, kv...)
	}
}

func logWarn(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Warn(msg, kv...)
	}
}

func slotLabel(slot int) string {
	return itoa(slot)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package errorpolicy implements the per-slot Error Policy Engine of
// spec.md §4.3: a data-driven, per-carrier retry/backoff/unthrottle policy
// keyed by (APN, ErrorTypeKey).
package errorpolicy

import (
	"context"
	"encoding/json"
	"time"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/clock"
	"iwlan.dev/epdgctl/internal/eventbus"
	"iwlan.dev/epdgctl/internal/ikeerror"
	"iwlan.dev/epdgctl/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// WaitGiveUp is the sentinel waitSeconds value meaning "no throttle, stop
// retrying automatically" (spec §4.3 reportError: NO_ERROR, or the
// retry_array=[0] give-up case).
const WaitGiveUp = -1

type recordKey struct {
	apn string
	key ikeerror.TypeKey
}

// record is the Error Policy Record of spec §3, owned per (apn, key).
type record struct {
	currentIndex     int
	lastErrorInstant time.Time
	throttleUntil    time.Time
	lastWaitSeconds  int

	// fresh is set by an unthrottle-event reset (spec §4.3 "Event
	// handler") and consumed by the next reportError, which is treated
	// exactly like a first report against a brand-new record (index 0,
	// no give-up) rather than resuming from currentIndex.
	fresh bool
}

// Engine is the per-slot singleton Error Policy Engine. All mutating
// operations are serialized onto a single worker goroutine (spec §4.3
// "Concurrency": "callers observe linearizable semantics").
type Engine struct {
	slot   int
	clock  clock.Clock
	logger *logging.Logger

	ops chan func()

	table policyTable

	records         map[recordKey]*record
	activeRecordKey map[string]recordKey // apn -> most recently touched record
	lastKeyByAPN    map[string]ikeerror.TypeKey

	reports      *prometheus.CounterVec
	throttleUntl *prometheus.GaugeVec
}

// NewEngine creates an Engine for the given SIM slot with no configuration
// loaded (all lookups fall through to built-in/global defaults until
// UpdateConfig is called).
func NewEngine(slot int, c clock.Clock, logger *logging.Logger, reg prometheus.Registerer) *Engine {
	if c == nil {
		c = clock.New()
	}
	e := &Engine{
		slot:            slot,
		clock:           c,
		logger:          logger,
		ops:             make(chan func()),
		table:           make(policyTable),
		records:         make(map[recordKey]*record),
		activeRecordKey: make(map[string]recordKey),
		lastKeyByAPN:    make(map[string]ikeerror.TypeKey),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iwlan_error_policy_reports_total",
			Help: "Count of reportError calls by APN and error type key.",
		}, []string{"slot", "apn", "error_type"}),
		throttleUntl: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "iwlan_error_policy_throttle_until_unixtime",
			Help: "Unix timestamp of the active throttle deadline per APN.",
		}, []string{"slot", "apn"}),
	}
	if reg != nil {
		reg.MustRegister(e.reports, e.throttleUntl)
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	for op := range e.ops {
		op()
	}
}

// do submits fn to the worker and blocks until it has run, giving every
// exported method linearizable semantics.
func (e *Engine) do(fn func()) {
	done := make(chan struct{})
	e.ops <- func() {
		fn()
		close(done)
	}
	<-done
}

// Close stops the worker goroutine. Safe to call once.
func (e *Engine) Close() {
	close(e.ops)
}

// UpdateConfig parses the embedded JSON error-policy document from bundle
// and atomically replaces the policy table, while preserving every live
// throttle record keyed by (APN, ErrorTypeKey) across the swap (spec §4.3
// "in-flight throttle records are preserved across reconfiguration").
func (e *Engine) UpdateConfig(bundle *carrierconfig.Bundle) {
	e.do(func() {
		var doc carrierconfig.PolicyDocument
		if bundle != nil && bundle.ErrorPolicyJSON != "" {
			if err := json.Unmarshal([]byte(bundle.ErrorPolicyJSON), &doc); err != nil {
				logWarn(e.logger, "errorpolicy: malformed policy document, keeping previous configuration", "slot", e.slot, "error", err)
				return
			}
		}
		e.table = parseDocument(doc, e.logger)
		logInfo(e.logger, "errorpolicy: policy table updated", "slot", e.slot, "apns", len(e.table))
	})
}

func logInfo(logger *logging.Logger, msg string, kv ...any) {
	if logger != nil {
		logger.Info(msg, kv...)
	}
}

// ReportError implements spec §4.3 reportError. waitSeconds is one of
// {0,1,2,...} or WaitGiveUp.
func (e *Engine) ReportError(apn string, err ikeerror.Error) int {
	var wait int
	e.do(func() {
		wait = e.reportErrorLocked(apn, err)
	})
	return wait
}

func (e *Engine) reportErrorLocked(apn string, ierr ikeerror.Error) int {
	if ierr.IsNoError() {
		if rk, ok := e.activeRecordKey[apn]; ok {
			delete(e.records, rk)
			delete(e.activeRecordKey, apn)
		}
		return WaitGiveUp
	}

	key := ierr.Canonicalize()
	rk := recordKey{apn: apn, key: key}
	retryArray, _ := e.table.lookup(apn, key)

	rec, exists := e.records[rk]
	var wait int
	switch {
	case !exists:
		// First report against a brand-new record always starts at index
		// 0 (spec §4.3 reportError), even for a single-element array.
		rec = &record{currentIndex: 0}
		e.records[rk] = rec
		wait = retryArray[0]
	case rec.fresh:
		// An unthrottle-event reset restarts the record exactly like a
		// first report (spec §8 scenario 4: "the next reportError returns
		// 4 again").
		rec.currentIndex = 0
		rec.fresh = false
		wait = retryArray[0]
	case rec.currentIndex >= len(retryArray)-1:
		// The record already exhausted the array on a previous report
		// (spec §4.3 tie-break: "a retry_array of [0] means retry
		// immediately once then give up", generalized to any array: once
		// the tail index has been returned once, the next report gives
		// up rather than repeating it).
		wait = WaitGiveUp
	default:
		rec.currentIndex = minInt(rec.currentIndex+1, len(retryArray)-1)
		wait = retryArray[rec.currentIndex]
	}

	now := e.clock.Now()
	rec.lastErrorInstant = now
	rec.lastWaitSeconds = wait
	if wait < 0 {
		rec.throttleUntil = now
	} else {
		rec.throttleUntil = now.Add(time.Duration(wait) * time.Second)
	}

	e.activeRecordKey[apn] = rk
	e.lastKeyByAPN[apn] = key

	e.reports.WithLabelValues(slotLabel(e.slot), apn, key.String()).Inc()
	e.throttleUntl.WithLabelValues(slotLabel(e.slot), apn).Set(float64(rec.throttleUntil.Unix()))

	return wait
}

// CanBringUpTunnel implements spec §4.3 canBringUpTunnel.
func (e *Engine) CanBringUpTunnel(apn string) bool {
	var ok bool
	e.do(func() {
		rk, exists := e.activeRecordKey[apn]
		if !exists {
			ok = true
			return
		}
		rec := e.records[rk]
		ok = !e.clock.Now().Before(rec.throttleUntil)
	})
	return ok
}

// GetCurrentRetryTime implements spec §4.3 getCurrentRetryTime, in ms.
// Negative (give-up) waits report as 0 — there is no pending retry to
// report a duration for.
func (e *Engine) GetCurrentRetryTime(apn string) int64 {
	var ms int64
	e.do(func() {
		rk, exists := e.activeRecordKey[apn]
		if !exists {
			return
		}
		wait := e.records[rk].lastWaitSeconds
		if wait < 0 {
			return
		}
		ms = int64(wait) * 1000
	})
	return ms
}

// GetDataFailCause implements spec §4.3 getDataFailCause: maps the APN's
// most recently recorded ErrorTypeKey to a platform fail-cause code.
func (e *Engine) GetDataFailCause(apn string) int {
	var cause int
	e.do(func() {
		key, ok := e.lastKeyByAPN[apn]
		if !ok {
			cause = FailCauseNone
			return
		}
		cause = dataFailCause(key)
	})
	return cause
}

// HandleEvent resets any record whose policy entry names ev as an
// unthrottling event: current_index := 0, throttle_until := 0 (spec §4.3
// "Event handler"), allowing an immediate retry.
func (e *Engine) HandleEvent(ev eventbus.Kind) {
	e.do(func() {
		for rk, rec := range e.records {
			_, unthrottle := e.table.lookup(rk.apn, rk.key)
			if unthrottle[ev] {
				rec.currentIndex = 0
				rec.throttleUntil = time.Time{}
				rec.fresh = true
				e.throttleUntl.WithLabelValues(slotLabel(e.slot), rk.apn).Set(0)
			}
		}
	})
}

// Deliver satisfies eventbus.Consumer so the Engine can subscribe directly
// to the slot's event bus (spec §4.3 reads CARRIER_CONFIG_CHANGED and the
// unthrottling events it is configured for).
func (e *Engine) Deliver(ev eventbus.Event) {
	if ev.Kind == eventbus.KindCarrierConfigChanged {
		if bundle, ok := ev.Payload.(*carrierconfig.Bundle); ok {
			e.UpdateConfig(bundle)
		}
		return
	}
	e.HandleEvent(ev.Kind)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
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

// context is imported for future cancellable config-load plumbing
// (UpdateConfig is synchronous today, but the worker model leaves room for
// a context-bound variant without changing the public surface).
var _ = context.Background

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package netstate holds the process-wide default-connectivity classifier
// (spec.md §5 "Shared resources"): a single-writer/multi-reader value
// written only by the network-callback worker in internal/datasurface and
// read by every internal/tunnelmgr.Manager instance when evaluating its
// transport gate.
package netstate

import "sync/atomic"

// Transport is the platform's classification of the current default
// network connection (spec §4.5 "a default-network callback classifies
// each connection as CELLULAR | WIFI | UNSPEC").
type Transport int

const (
	TransportUnspec Transport = iota
	TransportCellular
	TransportWifi
)

func (t Transport) String() string {
	switch t {
	case TransportCellular:
		return "CELLULAR"
	case TransportWifi:
		return "WIFI"
	default:
		return "UNSPEC"
	}
}

var current atomic.Int32

// CurrentTransport returns the most recently published Transport. Read by
// every Manager's worker at transport-gate evaluation time, giving
// release/acquire visibility of whatever SetTransport last published.
func CurrentTransport() Transport {
	return Transport(current.Load())
}

// SetTransport publishes a new Transport classification and returns the
// previous value, so the caller can detect a transition without a second
// read (spec §4.5 "if it differs from the previous non-UNSPEC value,
// triggers the force-close").
func SetTransport(t Transport) Transport {
	prev := current.Swap(int32(t))
	return Transport(prev)
}

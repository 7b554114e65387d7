// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package eventbus

import (
	"sync"

	"iwlan.dev/epdgctl/internal/logging"
)

// Registry owns one Bus per SIM slot. It replaces the teacher's pattern of
// process-wide mutable maps keyed by slot (spec §9 "Global mutable state →
// per-slot singleton registry") with a single struct callers thread
// through explicitly, rather than package-level globals.
type Registry struct {
	logger *logging.Logger

	mu    sync.Mutex
	buses map[int]*Bus
}

// NewRegistry creates an empty per-process registry of per-slot buses.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{logger: logger, buses: make(map[int]*Bus)}
}

// Get returns the Bus for slot, creating it if this is the first caller for
// that slot.
func (r *Registry) Get(slot int) *Bus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buses[slot]; ok {
		return b
	}
	b := newBus(r.logger)
	r.buses[slot] = b
	return b
}

// Release drops the Bus for slot if it currently has no subscribers. Called
// after Unsubscribe empties a slot's subscriber set (spec §4.1: "When the
// subscriber set for a slot becomes empty, the slot's bus instance is
// released").
func (r *Registry) Release(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buses[slot]
	if !ok {
		return
	}
	if b.Empty() {
		delete(r.buses, slot)
	}
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package eventbus

import (
	"sync"
	"sync/atomic"

	"iwlan.dev/epdgctl/internal/logging"
)

// Consumer receives events on its own serial queue. Deliver is called from
// the Bus's dispatch goroutine for that consumer only — never from the
// publisher's goroutine (spec §9 "Listener fan-out → message passing").
type Consumer interface {
	Deliver(Event)
}

const consumerQueueDepth = 64

// Bus is the per-slot event fan-out. Publish never blocks on a consumer:
// each subscriber has its own buffered channel and worker goroutine: a full
// queue drops the oldest pending event for that consumer rather than stall
// the publisher.
type Bus struct {
	logger *logging.Logger

	mu   sync.Mutex
	subs map[Consumer]*subscription
}

type subscription struct {
	events map[Kind]bool
	ch     chan Event
	done   chan struct{}
}

func newBus(logger *logging.Logger) *Bus {
	return &Bus{logger: logger, subs: make(map[Consumer]*subscription)}
}

// Subscribe registers consumer for the given event kinds. Re-subscribing
// the same consumer replaces its event set.
func (b *Bus) Subscribe(events []Kind, consumer Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.subs[consumer]; ok {
		close(existing.done)
	}

	set := make(map[Kind]bool, len(events))
	for _, k := range events {
		set[k] = true
	}

	sub := &subscription{
		events: set,
		ch:     make(chan Event, consumerQueueDepth),
		done:   make(chan struct{}),
	}
	b.subs[consumer] = sub
	go sub.run(consumer)
}

func (s *subscription) run(c Consumer) {
	for {
		select {
		case ev := <-s.ch:
			c.Deliver(ev)
		case <-s.done:
			return
		}
	}
}

// Unsubscribe removes consumer. The caller (Registry) is responsible for
// releasing the slot's Bus once its subscriber set becomes empty.
func (b *Bus) Unsubscribe(consumer Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[consumer]
	if !ok {
		return
	}
	close(sub.done)
	delete(b.subs, consumer)
}

// Empty reports whether this Bus has no remaining subscribers.
func (b *Bus) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs) == 0
}

// Publish fans ev out to every subscriber registered for ev.Kind. An event
// with no subscribers is dropped silently. KindUnknown is never publishable
// — callers that resolve an event kind from a string must drop unknown
// names before calling Publish (spec §4.1).
func (b *Bus) Publish(ev Event) {
	if ev.Kind == KindUnknown {
		if b.logger != nil {
			b.logger.Warn("eventbus: dropping unknown event kind")
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.events[ev.Kind] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Queue full: drop the oldest pending event for this consumer
			// and retry once so a burst never permanently wedges delivery.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// lastSSID is the process-wide last-seen Wi-Fi SSID (spec §5 "Shared
// resources"): written only by OnWifiConnected, read nowhere else in this
// package. atomic.Pointer gives release/acquire semantics without a mutex.
var lastSSID atomic.Pointer[string]

// OnWifiConnected compares ssid to the last-seen SSID and, iff the
// previous value was non-empty and differs, publishes WIFI_AP_CHANGED on
// b. The very first SSID observed after process start is recorded but does
// not fire the event, to avoid a spurious unthrottle on the initial camp
// (spec §4.1).
func (b *Bus) OnWifiConnected(ssid string) {
	prev := lastSSID.Swap(&ssid)
	if prev != nil && *prev != "" && *prev != ssid {
		b.Publish(Event{Kind: KindWifiAPChanged, Payload: ssid})
	}
}

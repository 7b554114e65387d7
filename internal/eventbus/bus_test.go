// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package eventbus

import (
	"testing"
	"time"
)

type recordingConsumer struct {
	ch chan Event
}

func newRecordingConsumer() *recordingConsumer {
	return &recordingConsumer{ch: make(chan Event, 16)}
}

func (c *recordingConsumer) Deliver(ev Event) {
	c.ch <- ev
}

func (c *recordingConsumer) expect(t *testing.T, kind Kind) {
	t.Helper()
	select {
	case ev := <-c.ch:
		if ev.Kind != kind {
			t.Fatalf("got kind %v, want %v", ev.Kind, kind)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event %v", kind)
	}
}

func (c *recordingConsumer) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-c.ch:
		t.Fatalf("unexpected event delivered: %v", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDeliversOnlySubscribedKinds(t *testing.T) {
	b := newBus(nil)
	c := newRecordingConsumer()
	b.Subscribe([]Kind{KindAirplaneModeEnabled}, c)

	b.Publish(Event{Kind: KindWifiDisabled})
	c.expectNone(t)

	b.Publish(Event{Kind: KindAirplaneModeEnabled})
	c.expect(t, KindAirplaneModeEnabled)
}

func TestPublishWithNoSubscribersIsDropped(t *testing.T) {
	b := newBus(nil)
	// No subscribers at all — must not panic or block.
	b.Publish(Event{Kind: KindCarrierConfigChanged})
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := newBus(nil)
	c := newRecordingConsumer()
	b.Subscribe([]Kind{KindWifiDisabled}, c)
	b.Unsubscribe(c)

	b.Publish(Event{Kind: KindWifiDisabled})
	c.expectNone(t)

	if !b.Empty() {
		t.Fatal("bus should be empty after unsubscribe")
	}
}

func TestUnknownKindNeverPublished(t *testing.T) {
	b := newBus(nil)
	c := newRecordingConsumer()
	b.Subscribe([]Kind{KindUnknown}, c)

	b.Publish(Event{Kind: KindUnknown})
	c.expectNone(t)
}

func TestOnWifiConnectedFirstSSIDDoesNotFire(t *testing.T) {
	lastSSID.Store(nil)
	b := newBus(nil)
	c := newRecordingConsumer()
	b.Subscribe([]Kind{KindWifiAPChanged}, c)

	b.OnWifiConnected("HomeNet")
	c.expectNone(t)

	b.OnWifiConnected("OfficeNet")
	c.expect(t, KindWifiAPChanged)

	b.OnWifiConnected("OfficeNet")
	c.expectNone(t)
}

func TestRegistryReleasesEmptySlot(t *testing.T) {
	r := NewRegistry(nil)
	b := r.Get(0)
	c := newRecordingConsumer()
	b.Subscribe([]Kind{KindWifiDisabled}, c)

	r.Release(0)
	if r.Get(0) != b {
		t.Fatal("bus with subscribers should not have been released")
	}

	b.Unsubscribe(c)
	r.Release(0)
	if r.Get(0) == b {
		t.Fatal("empty bus should have been released and recreated")
	}
}

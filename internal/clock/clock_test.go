// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	fc := NewFake(start)

	if !fc.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", fc.Now(), start)
	}

	fc.Advance(4 * time.Second)
	want := start.Add(4 * time.Second)
	if !fc.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", fc.Now(), want)
	}
}

func TestRealClockMovesForward(t *testing.T) {
	rc := New()
	a := rc.Now()
	time.Sleep(time.Millisecond)
	b := rc.Now()
	if !b.After(a) {
		t.Fatal("RealClock.Now() did not advance")
	}
}

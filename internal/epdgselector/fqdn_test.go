// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import "testing"

func TestPlmnFQDNPadsTwoDigitMNC(t *testing.T) {
	got := plmnFQDN("310", "12")
	want := "epdg.epc.mnc012.mcc310.pub.3gppnetwork.org"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPlmnFQDNKeepsThreeDigitMNC(t *testing.T) {
	got := plmnFQDN("310", "410")
	want := "epdg.epc.mnc410.mcc310.pub.3gppnetwork.org"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ierrors

import (
	"errors"
	"testing"
)

func TestWrapPreservesChain(t *testing.T) {
	base := errors.New("dial refused")
	wrapped := Wrap(base, KindUnavailable, "bring-up failed")

	if GetKind(wrapped) != KindUnavailable {
		t.Fatalf("GetKind = %v, want KindUnavailable", GetKind(wrapped))
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("errors.Is did not find base error through Unwrap")
	}
}

func TestAttrAccumulatesAcrossChain(t *testing.T) {
	err := New(KindInvalidArg, "bad apn")
	err = Attr(err, "apn", "ims")
	err = Attr(err, "slot", 0)

	attrs := GetAttributes(err)
	if attrs["apn"] != "ims" || attrs["slot"] != 0 {
		t.Fatalf("unexpected attributes: %#v", attrs)
	}
}

func TestAttrOnPlainErrorWraps(t *testing.T) {
	plain := errors.New("boom")
	wrapped := Attr(plain, "apn", "mms")

	if GetKind(wrapped) != KindInternal {
		t.Fatalf("plain error should be wrapped as KindInternal, got %v", GetKind(wrapped))
	}
	if GetAttributes(wrapped)["apn"] != "mms" {
		t.Fatalf("attribute not attached")
	}
}

func TestNilIsNoOp(t *testing.T) {
	if Wrap(nil, KindInternal, "x") != nil {
		t.Fatal("Wrap(nil, ...) should return nil")
	}
	if Attr(nil, "k", "v") != nil {
		t.Fatal("Attr(nil, ...) should return nil")
	}
}

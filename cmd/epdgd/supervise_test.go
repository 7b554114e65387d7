// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"os/exec"
	"syscall"
	"testing"
)

func TestClassifyExitCleanExit(t *testing.T) {
	err := exec.Command("sh", "-c", "exit 0").Run()
	exitCode, sig, wasPanic := classifyExit(err)
	if exitCode != 0 || sig != 0 || wasPanic {
		t.Fatalf("got (%d, %v, %v), want (0, 0, false)", exitCode, sig, wasPanic)
	}
}

func TestClassifyExitNonZero(t *testing.T) {
	err := exec.Command("sh", "-c", "exit 7").Run()
	exitCode, sig, wasPanic := classifyExit(err)
	if exitCode != 7 || sig != 0 || wasPanic {
		t.Fatalf("got (%d, %v, %v), want (7, 0, false)", exitCode, sig, wasPanic)
	}
}

func TestClassifyExitPanicCode(t *testing.T) {
	err := exec.Command("sh", "-c", "exit 70").Run()
	exitCode, _, wasPanic := classifyExit(err)
	if exitCode != panicExitCode || !wasPanic {
		t.Fatalf("got (%d, wasPanic=%v), want (%d, true)", exitCode, wasPanic, panicExitCode)
	}
}

func TestClassifyExitSignaled(t *testing.T) {
	cmd := exec.Command("sh", "-c", "kill -SEGV $$; sleep 1")
	err := cmd.Run()
	_, sig, _ := classifyExit(err)
	if sig != syscall.SIGSEGV {
		t.Fatalf("got signal %v, want SIGSEGV", sig)
	}
}

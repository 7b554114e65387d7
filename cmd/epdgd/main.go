// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command epdgd is the IWLAN/ePDG tunnel control plane daemon: it wires the
// Event Bus, ePDG Selector, Error Policy Engine, Tunnel Lifecycle Manager,
// and Data/Network Surfaces for each SIM slot, and optionally the
// operational HTTP/WS surface.
//
// Run standalone as the worker process directly (useful under systemd,
// which already restarts failed units), or self-supervised: the parent
// process forks a worker child, classifies how it exits, and restarts it
// unless the crash rate trips safe mode.
package main

import (
	"flag"
	"fmt"
	"os"

	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/supervisor"
)

func main() {
	configPath := flag.String("config", "/etc/epdgd/epdgd.hcl", "path to the daemon HCL config file")
	worker := flag.Bool("epdgd-worker", false, "run as the supervised worker (internal use)")
	flag.Parse()

	logger := logging.Default()

	if *worker || supervisor.ShouldSkipDetection() {
		os.Exit(runWorker(*configPath, logger))
	}

	os.Exit(runSupervised(*configPath, logger))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

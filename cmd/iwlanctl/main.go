// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command iwlanctl is the operator/bench tool for a running epdgd: a local
// Bubble Tea dashboard, the same dashboard served over SSH for remote lab
// access, and a "dump" subcommand that snapshots tunnel/policy state to
// YAML for bug reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/ssh"
	"iwlan.dev/epdgctl/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		runDashboard(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "dump":
		runDump(os.Args[2:])
	default:
		runDashboard(os.Args[1:])
	}
}

func parseSlots(raw string) []int {
	if raw == "" {
		return []int{0}
	}
	parts := strings.Split(raw, ",")
	slots := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		slots = append(slots, n)
	}
	if len(slots) == 0 {
		return []int{0}
	}
	return slots
}

func runDashboard(args []string) {
	fs := flag.NewFlagSet("iwlanctl", flag.ExitOnError)
	addr := fs.String("addr", "http://127.0.0.1:8878", "epdgd admin API base URL")
	slots := fs.String("slots", "0", "comma-separated slot indices to watch")
	fs.Parse(args)

	backend := tui.NewHTTPBackend(*addr)
	model := tui.NewModel(backend, parseSlots(*slots))

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "iwlanctl: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) {
	fs := flag.NewFlagSet("iwlanctl serve", flag.ExitOnError)
	listen := fs.String("listen", "", "ssh listen address")
	port := fs.Int("port", 2222, "ssh listen port")
	hostKey := fs.String("host-key", "", "ssh host key path")
	password := fs.String("password", "", "ssh password (empty accepts any credentials)")
	adminAddr := fs.String("addr", "http://127.0.0.1:8878", "epdgd admin API base URL")
	slots := fs.String("slots", "0", "comma-separated slot indices to watch")
	fs.Parse(args)

	logger := logging.Default()
	slotList := parseSlots(*slots)

	srv, err := ssh.NewServer(ssh.Config{
		ListenAddress: *listen,
		Port:          *port,
		HostKeyPath:   *hostKey,
		Password:      *password,
	}, logger, func() tui.Model {
		backend := tui.NewHTTPBackend(*adminAddr)
		return tui.NewModel(backend, slotList)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "iwlanctl: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "iwlanctl: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runDump(args []string) {
	fs := flag.NewFlagSet("iwlanctl dump", flag.ExitOnError)
	addr := fs.String("addr", "http://127.0.0.1:8878", "epdgd admin API base URL")
	slots := fs.String("slots", "0", "comma-separated slot indices to dump")
	fs.Parse(args)

	backend := tui.NewHTTPBackend(*addr)
	if err := dumpSnapshot(os.Stdout, backend, parseSlots(*slots)); err != nil {
		fmt.Fprintf(os.Stderr, "iwlanctl: %v\n", err)
		os.Exit(1)
	}
}

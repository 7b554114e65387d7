// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package main

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
)

// splitHostPortLoose parses a "host:port" syslog address into its parts,
// defaulting port to 514 when address carries no port at all.
func splitHostPortLoose(addr string) (host string, port int, err error) {
	h, p, splitErr := net.SplitHostPort(addr)
	if splitErr != nil {
		return addr, 514, nil
	}
	host = h
	port, err = strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("logconfig: invalid syslog port %q: %w", p, err)
	}
	return host, port, nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

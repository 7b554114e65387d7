// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"
)

// SyslogConfig configures the optional syslog sink used to ship tunnel
// lifecycle events to a carrier NOC collector.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string // "udp" or "tcp"
	Tag      string
	Facility int
}

// DefaultSyslogConfig returns the disabled-by-default syslog configuration.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "epdgctl",
		Facility: 1,
	}
}

// SyslogWriter is an io.Writer that forwards each Write as one syslog
// datagram/stream message.
type SyslogWriter struct {
	conn     net.Conn
	tag      string
	facility int
}

// NewSyslogWriter dials the configured syslog collector and applies
// defaults for any zero-valued field.
func NewSyslogWriter(cfg SyslogConfig) (*SyslogWriter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("logging: syslog host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "epdgctl"
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.DialTimeout(cfg.Protocol, addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("logging: dial syslog %s: %w", addr, err)
	}
	return &SyslogWriter{conn: conn, tag: cfg.Tag, facility: cfg.Facility}, nil
}

func (w *SyslogWriter) Write(p []byte) (int, error) {
	pri := w.facility*8 + 6 // informational severity
	msg := fmt.Sprintf("<%d>%s %s: %s", pri, time.Now().Format(time.Stamp), w.tag, p)
	if _, err := w.conn.Write([]byte(msg)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *SyslogWriter) Close() error {
	return w.conn.Close()
}

// NewWithSyslog returns a Logger that duplicates records to both stderr and
// the configured syslog collector, falling back to stderr-only if the
// collector is unreachable at startup.
func NewWithSyslog(cfg SyslogConfig, level slog.Level) *Logger {
	base := New(nil, level)
	if !cfg.Enabled {
		return base
	}
	w, err := NewSyslogWriter(cfg)
	if err != nil {
		base.Warn("syslog sink unavailable, logging to stderr only", "error", err)
		return base
	}
	return New(io.MultiWriter(os.Stderr, w), level)
}

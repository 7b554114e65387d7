// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package epdgselector

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// BoundNetwork resolves DNS queries bound to a specific interface via
// SO_BINDTODEVICE, so lookups traverse that interface even when the
// system's default route would pick another (spec §4.2 "DNS resolution
// must use the supplied network handle").
type BoundNetwork struct {
	ifaceName string
}

// NewBoundNetwork returns a Network bound to ifaceName.
func NewBoundNetwork(ifaceName string) *BoundNetwork {
	return &BoundNetwork{ifaceName: ifaceName}
}

func (n *BoundNetwork) Dialer() *net.Dialer {
	return &net.Dialer{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, n.ifaceName)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}

func (n *BoundNetwork) InterfaceName() string { return n.ifaceName }

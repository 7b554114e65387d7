// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package epdgselector

import "net"

// BoundNetwork on non-Linux platforms falls back to an unbound dialer;
// SO_BINDTODEVICE has no portable equivalent here. Endpoint resolution still
// works, it just can't be pinned to a specific interface.
type BoundNetwork struct {
	ifaceName string
}

func NewBoundNetwork(ifaceName string) *BoundNetwork {
	return &BoundNetwork{ifaceName: ifaceName}
}

func (n *BoundNetwork) Dialer() *net.Dialer   { return &net.Dialer{} }
func (n *BoundNetwork) InterfaceName() string { return n.ifaceName }

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import "net"

// Network is the interface abstraction over "resolve on this network
// handle" (spec §4.2, §5): DNS lookups the Selector performs must traverse
// the requested interface rather than whatever a default route would pick.
type Network interface {
	// Dialer returns a *net.Dialer whose outgoing connections (including
	// the plain UDP/TCP sockets github.com/miekg/dns opens for queries)
	// are bound to this network's interface.
	Dialer() *net.Dialer
	// InterfaceName is the bound interface, for logs/metrics labels.
	InterfaceName() string
}

// DefaultNetwork performs no interface binding, used in tests and on
// platforms where SO_BINDTODEVICE is unavailable.
type DefaultNetwork struct{}

func (DefaultNetwork) Dialer() *net.Dialer   { return &net.Dialer{} }
func (DefaultNetwork) InterfaceName() string { return "" }

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// exchanger is the subset of *dns.Client this package depends on, seamed
// out so tests can substitute a fake DNS responder without a real socket.
type exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// resolver performs A/AAAA lookups for an FQDN over a bound Network using
// github.com/miekg/dns, rather than the stdlib resolver, so the Selector
// controls the query transport directly (spec §4.2 "DNS resolution").
type resolver struct {
	client  exchanger
	server  string
	timeout time.Duration
}

func newResolver(network Network, timeout time.Duration) *resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cfg := systemResolvConf()
	return &resolver{
		client:  &dns.Client{Net: "udp", Dialer: network.Dialer()},
		server:  net.JoinHostPort(cfg.Servers[0], cfg.Port),
		timeout: timeout,
	}
}

var (
	resolvConfOnce sync.Once
	resolvConf     *dns.ClientConfig
)

func systemResolvConf() *dns.ClientConfig {
	resolvConfOnce.Do(func() {
		cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil || len(cfg.Servers) == 0 {
			cfg = &dns.ClientConfig{Servers: []string{"127.0.0.1"}, Port: "53"}
		}
		resolvConf = cfg
	})
	return resolvConf
}

// lookupIPs resolves fqdn to its A and AAAA records, honoring ctx
// cancellation between and during queries (spec §5 "Cancellation").
func (r *resolver) lookupIPs(ctx context.Context, fqdn string) ([]net.IP, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var ips []net.IP
	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		if ctx.Err() != nil {
			break
		}
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(fqdn), qtype)
		msg.RecursionDesired = true

		reply, _, err := r.client.ExchangeContext(ctx, msg, r.server)
		if err != nil {
			lastErr = err
			continue
		}
		for _, rr := range reply.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				ips = append(ips, rec.A)
			case *dns.AAAA:
				ips = append(ips, rec.AAAA)
			}
		}
	}
	if len(ips) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("epdgselector: resolve %s: %w", fqdn, lastErr)
		}
		return nil, fmt.Errorf("epdgselector: resolve %s: no records", fqdn)
	}
	return ips, nil
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package epdgselector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"

	"iwlan.dev/epdgctl/internal/carrierconfig"
	"iwlan.dev/epdgctl/internal/logging"
)

// fakeExchanger answers canned A/AAAA records by (qname, qtype), so source
// resolution tests never open a real socket.
type fakeExchanger struct {
	answers map[string][]net.IP
	errs    map[string]error
}

func newFakeExchanger() *fakeExchanger {
	return &fakeExchanger{answers: make(map[string][]net.IP), errs: make(map[string]error)}
}

func (f *fakeExchanger) set(fqdn string, ips ...net.IP) {
	f.answers[dns.Fqdn(fqdn)] = ips
}

func (f *fakeExchanger) fail(fqdn string, err error) {
	f.errs[dns.Fqdn(fqdn)] = err
}

func (f *fakeExchanger) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	q := m.Question[0]
	if err, ok := f.errs[q.Name]; ok {
		return nil, 0, err
	}
	reply := new(dns.Msg)
	reply.SetReply(m)
	for _, ip := range f.answers[q.Name] {
		if ip4 := ip.To4(); ip4 != nil && q.Qtype == dns.TypeA {
			reply.Answer = append(reply.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
				A:   ip4,
			})
		}
		if ip.To4() == nil && q.Qtype == dns.TypeAAAA {
			reply.Answer = append(reply.Answer, &dns.AAAA{
				Hdr:  dns.RR_Header{Name: q.Name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: 300},
				AAAA: ip,
			})
		}
	}
	return reply, time.Millisecond, nil
}

func newTestSelector(t *testing.T, fe *fakeExchanger) *Selector {
	t.Helper()
	sel := NewSelector(0, logging.Default(), nil)
	sel.newResolver = func(network Network, timeout time.Duration) *resolver {
		return &resolver{client: fe, server: "127.0.0.1:53", timeout: time.Second}
	}
	return sel
}

func TestResolveStaticLiteralNoDNS(t *testing.T) {
	fe := newFakeExchanger()
	sel := newTestSelector(t, fe)
	sel.UpdateConfig(&carrierconfig.Bundle{
		EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourceStatic},
		StaticAddress:       "198.51.100.1",
	})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || eps[0].IP.String() != "198.51.100.1" || eps[0].Source != carrierconfig.SourceStatic {
		t.Fatalf("got %+v", eps)
	}
}

func TestResolveStaticFQDN(t *testing.T) {
	fe := newFakeExchanger()
	fe.set("epdg.example.net", net.ParseIP("198.51.100.2"))
	sel := newTestSelector(t, fe)
	sel.UpdateConfig(&carrierconfig.Bundle{
		EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourceStatic},
		StaticAddress:       "epdg.example.net",
	})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || eps[0].IP.String() != "198.51.100.2" {
		t.Fatalf("got %+v", eps)
	}
}

func TestResolvePLMNUsesCampedAndAdditional(t *testing.T) {
	fe := newFakeExchanger()
	fe.set(plmnFQDN("310", "12"), net.ParseIP("198.51.100.10"))
	fe.set(plmnFQDN("234", "15"), net.ParseIP("198.51.100.11"))

	sel := newTestSelector(t, fe)
	sel.UpdateConfig(&carrierconfig.Bundle{
		EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourcePLMN},
		AdditionalPLMNs:     []carrierconfig.PLMNID{{MCC: "234", MNC: "15"}},
	})
	sel.UpdateDeviceState(DeviceState{CampedPLMN: carrierconfig.PLMNID{MCC: "310", MNC: "12"}})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("got %d endpoints, want 2: %+v", len(eps), eps)
	}
	if eps[0].IP.String() != "198.51.100.10" || eps[1].IP.String() != "198.51.100.11" {
		t.Fatalf("got %+v, want camped PLMN first", eps)
	}
}

func TestResolvePCOBypassesDNS(t *testing.T) {
	sel := newTestSelector(t, newFakeExchanger())
	sel.UpdateConfig(&carrierconfig.Bundle{EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourcePCO}})
	sel.UpdateDeviceState(DeviceState{PCOAddresses: []net.IP{net.ParseIP("198.51.100.20")}})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || eps[0].Source != carrierconfig.SourcePCO {
		t.Fatalf("got %+v", eps)
	}
}

func TestResolveDedupsAcrossSourcesPreservingFirstOccurrence(t *testing.T) {
	fe := newFakeExchanger()
	fe.set("epdg.example.net", net.ParseIP("198.51.100.30"))
	fe.set(plmnFQDN("310", "12"), net.ParseIP("198.51.100.30"), net.ParseIP("198.51.100.31"))

	sel := newTestSelector(t, fe)
	sel.UpdateConfig(&carrierconfig.Bundle{
		EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourceStatic, carrierconfig.SourcePLMN},
		StaticAddress:       "epdg.example.net",
	})
	sel.UpdateDeviceState(DeviceState{CampedPLMN: carrierconfig.PLMNID{MCC: "310", MNC: "12"}})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("got %d, want 2 deduped endpoints: %+v", len(eps), eps)
	}
	if eps[0].Source != carrierconfig.SourceStatic || eps[1].IP.String() != "198.51.100.31" {
		t.Fatalf("got %+v, want STATIC's address first and the new PLMN address second", eps)
	}
}

func TestResolveFiltersByProtocol(t *testing.T) {
	fe := newFakeExchanger()
	sel := newTestSelector(t, fe)
	sel.UpdateConfig(&carrierconfig.Bundle{
		EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourceStatic},
		StaticAddress:       "2001:db8::1",
	})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4, false, DefaultNetwork{}, "ims")
	if err == nil {
		t.Fatalf("expected ErrServerSelectionFailed, got %+v", eps)
	}
	if !errors.Is(err, ErrServerSelectionFailed) {
		t.Fatalf("got %v, want ErrServerSelectionFailed", err)
	}
}

func TestResolveFailsWhenAllSourcesEmpty(t *testing.T) {
	sel := newTestSelector(t, newFakeExchanger())
	sel.UpdateConfig(&carrierconfig.Bundle{EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourcePCO}})

	_, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if !errors.Is(err, ErrServerSelectionFailed) {
		t.Fatalf("got %v, want ErrServerSelectionFailed", err)
	}
}

func TestResolveToleratesOneSourceFailing(t *testing.T) {
	fe := newFakeExchanger()
	fe.fail("epdg.example.net.", fmt.Errorf("timeout"))
	fe.set(plmnFQDN("310", "12"), net.ParseIP("198.51.100.40"))

	sel := newTestSelector(t, fe)
	sel.UpdateConfig(&carrierconfig.Bundle{
		EpdgAddressPriority: []carrierconfig.Source{carrierconfig.SourceStatic, carrierconfig.SourcePLMN},
		StaticAddress:       "epdg.example.net",
	})
	sel.UpdateDeviceState(DeviceState{CampedPLMN: carrierconfig.PLMNID{MCC: "310", MNC: "12"}})

	eps, err := sel.Resolve(context.Background(), ProtocolIPv4v6, false, DefaultNetwork{}, "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eps) != 1 || eps[0].IP.String() != "198.51.100.40" {
		t.Fatalf("got %+v", eps)
	}
}

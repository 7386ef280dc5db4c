package usox

import (
	"net"
	"testing"
)

func TestNeedsResolve(t *testing.T) {
	cases := map[string]bool{
		"example.com": true,
		"127.0.0.1":   false,
		"::1":         false,
	}
	for host, want := range cases {
		if got := needsResolve(host); got != want {
			t.Fatalf("needsResolve(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestDNSCallbackQueuesWithoutWakeup(t *testing.T) {
	loop := newTestLoop()
	cs := &ConnectingSocket{host: "example.com"}

	loop.DNSCallback(cs, &ResolveResult{Addrs: []net.IP{net.ParseIP("10.0.0.1")}})

	loop.dnsMu.Lock()
	n := len(loop.dnsReady)
	loop.dnsMu.Unlock()
	if n != 1 {
		t.Fatalf("dnsReady length = %d, want 1", n)
	}
}

func TestDrainDNSCachesSuccessfulResolve(t *testing.T) {
	loop := newTestLoop()
	cs := &ConnectingSocket{
		host: "example.com", network: "tcp", address: "example.com:80",
		parkedCtx: &Context{loop: loop},
	}

	loop.DNSCallback(cs, &ResolveResult{Addrs: []net.IP{net.ParseIP("10.0.0.1")}})
	loop.drainDNS()

	loop.dnsMu.Lock()
	remaining := len(loop.dnsReady)
	loop.dnsMu.Unlock()
	if remaining != 0 {
		t.Fatalf("drainDNS left %d entries queued, want 0", remaining)
	}

	if _, ok := loop.cache.get("example.com"); !ok {
		t.Fatalf("successful resolve was not cached")
	}
}

func TestDrainDNSSkipsFailedResolve(t *testing.T) {
	loop := newTestLoop()
	cs := &ConnectingSocket{host: "nope.invalid"}

	loop.DNSCallback(cs, &ResolveResult{Err: errInvalidNetwork})
	loop.drainDNS() // must not panic despite no addrs and no backing fd

	if _, ok := loop.cache.get("nope.invalid"); ok {
		t.Fatalf("failed resolve should not populate the cache")
	}
}

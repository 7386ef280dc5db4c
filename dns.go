package usox

import (
	"net"

	"github.com/rs/zerolog/log"
)

// ResolveResult is what a caller hands back to the loop once a hostname
// lookup finishes out of band — on a worker goroutine, another OS thread,
// wherever. It never touches loop state directly; it's queued and drained
// from inside the loop thread by drainDNS.
type ResolveResult struct {
	Addrs []net.IP
	Err   error
}

type pendingDNS struct {
	cs  *ConnectingSocket
	ctx *Context
	res *ResolveResult
}

func splitHostForResolve(address string) (host string, port string, err error) {
	return net.SplitHostPort(address)
}

// needsResolve reports whether host is a name that needs a resolver round
// trip rather than a literal IP Connect can dial directly.
func needsResolve(host string) bool {
	return net.ParseIP(host) == nil
}

// parkForResolve checks the DNS cache (dnscache.go) for a parked
// ConnectingSocket's target hostname; on a hit it queues the cached
// addresses through DNSCallback, on a miss it leaves the socket for the
// caller to resolve out of band and deliver via DNSCallback /
// DNSCallbackThreadsafe — this is the cache's hook into the hand-off
// protocol spec.md describes.
func (l *Loop) parkForResolve(cs *ConnectingSocket, ctx *Context) {
	if addrs, ok := l.cache.get(cs.host); ok {
		l.DNSCallback(cs, &ResolveResult{Addrs: addrs})
		return
	}
	// No cache hit: the caller is expected to resolve cs.host out of
	// band (e.g. via net.Resolver on a worker goroutine) and deliver the
	// result through DNSCallback/DNSCallbackThreadsafe. We keep no
	// reference here — the hand-off carries the ConnectingSocket itself.
	_ = ctx
}

// DNSCallback delivers a resolution result from the loop's own thread
// (e.g. a synchronous cache hit, or a resolver that happens to run
// in-loop) — enqueued for the next drain (pre- or post-hook) without waking the
// poller, since the caller is already inside the loop and the event will
// be seen this same iteration or the next without help.
func (l *Loop) DNSCallback(cs *ConnectingSocket, res *ResolveResult) {
	l.dnsMu.Lock()
	l.dnsReady = append(l.dnsReady, pendingDNS{cs: cs, res: res})
	l.dnsMu.Unlock()
}

// DNSCallbackThreadsafe is DNSCallback's cross-thread twin: same queue,
// but followed by Wakeup() so a loop blocked in poller.Wait on another OS
// thread's resolver result doesn't sit there until its next unrelated
// readiness event or sweep tick.
func (l *Loop) DNSCallbackThreadsafe(cs *ConnectingSocket, res *ResolveResult) {
	l.dnsMu.Lock()
	l.dnsReady = append(l.dnsReady, pendingDNS{cs: cs, res: res})
	l.dnsMu.Unlock()
	l.Wakeup()
}

// drainDNS runs in every iteration's pre-hook and again in its post-hook.
// A failed resolution is delivered to the context's OnConnectError; a
// successful one is cached and starts a live connect attempt to the first
// address.
func (l *Loop) drainDNS() {
	l.dnsMu.Lock()
	if len(l.dnsReady) == 0 {
		l.dnsMu.Unlock()
		return
	}
	batch := l.dnsReady
	l.dnsReady = nil
	l.dnsMu.Unlock()

	for _, p := range batch {
		cs := p.cs
		if p.res.Err != nil || len(p.res.Addrs) == 0 {
			log.Debug().Msgf("dns resolve failed for %s: %v", cs.host, p.res.Err)
			if ctx := cs.resolveContext(); ctx != nil {
				if cb := ctx.callbacks.OnConnectError; cb != nil {
					cb(cs, CloseConnectFailed)
				}
			}
			continue
		}
		l.cache.set(cs.host, p.res.Addrs)
		_, port, _ := net.SplitHostPort(cs.address)
		resolved := net.JoinHostPort(p.res.Addrs[0].String(), port)
		if _, err := cs.resolveContext().dialNow(cs.network, resolved, cs.opts); err != nil {
			log.Error().Msgf("dial after dns resolve for %s: %+v", cs.host, err)
		}
	}
}

// resolveContext recovers the Context a ConnectingSocket was created
// under. Parked connects never got a backing fd (see Connect), so this
// is the only place that link needs to survive the hand-off.
func (cs *ConnectingSocket) resolveContext() *Context {
	return cs.parkedCtx
}

package usox

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// ConnectingSocket is a PollTypeSemiSocket fd that has called connect(2)
// and is waiting for either writability (success) or an error (failure),
// or — for a hostname target — a DNS hand-off (see dns.go) before connect
// is even attempted.
type ConnectingSocket struct {
	sock      *Socket
	network   string
	address   string
	opts      ConnectOptions
	host      string // set when address still needs resolving
	parkedCtx *Context
}

func (c *ConnectingSocket) Fd() int { return c.sock.fd }

// Connect starts a non-blocking connect. If address is a bare hostname
// (no parseable IP), the attempt is parked until a DNS result arrives
// through DNSCallback/DNSCallbackThreadsafe — see dns.go — exactly as the
// original core defers a SEMI_SOCKET's connect() until resolution
// completes out of band.
func (c *Context) Connect(network, address string, opts ConnectOptions) (*ConnectingSocket, error) {
	host, _, err := splitHostForResolve(address)
	if err == nil && needsResolve(host) {
		cs := &ConnectingSocket{network: network, address: address, opts: opts, host: host, parkedCtx: c}
		c.loop.parkForResolve(cs, c)
		return cs, nil
	}
	return c.dialNow(network, address, opts)
}

func (c *Context) dialNow(network, address string, opts ConnectOptions) (*ConnectingSocket, error) {
	domain, sotype, sa, err := resolveSockaddr(network, address)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(domain, sotype, 0)
	if err != nil {
		return nil, err
	}
	applySocketOptions(fd, c.loop.cfg)

	s := newSocket(c.loop, c, fd, PollTypeSemiSocket)
	c.addSocket(s)

	cs := &ConnectingSocket{sock: s, network: network, address: address, opts: opts}
	// Must be in l.connecting before registerFd: registerFd's semi-socket
	// branch uses presence in this map to tell a connecting fd apart from
	// a listening one, so it doesn't also get filed under l.listeners.
	c.loop.connecting[fd] = cs
	c.loop.registerFd(fd, s)

	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		delete(c.loop.connecting, fd)
		s.Close(CloseConnectFailed, err.Error())
		return nil, err
	}
	if err := c.loop.poller.AddWrite(fd); err != nil {
		delete(c.loop.connecting, fd)
		s.Close(CloseConnectFailed, err.Error())
		return nil, err
	}
	return cs, nil
}

// finishConnect is invoked from dispatch.go once a SEMI_SOCKET becomes
// writable; SO_ERROR distinguishes a completed connect from a failed one,
// same check the original core does before promoting the poll type.
func (l *Loop) finishConnect(cs *ConnectingSocket) {
	s := cs.sock
	delete(l.connecting, s.fd)
	errno, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil || errno != 0 {
		code := CloseConnectFailed
		if cs.opts.SourceAddr != "" {
			log.Debug().Msgf("connect fd=%d via source=%s failed errno=%d", s.fd, cs.opts.SourceAddr, errno)
		}
		if cb := s.ctx.callbacks.OnConnectError; cb != nil {
			cb(cs, code)
		}
		s.Close(code, "connect failed")
		return
	}
	s.pt = PollTypeSocket
	// Read-only now that connect() has succeeded — WRITABLE is re-armed
	// by Socket.Write only if an actual write blocks, same as a freshly
	// accepted socket.
	if err := l.poller.Modify(s.fd, true, false); err != nil {
		log.Error().Msgf("poller modify fd=%d: %+v", s.fd, err)
	}
	if s.ctx.opts.IsIPC {
		s.isIPC = true
	}
	if cb := s.ctx.callbacks.OnOpen; cb != nil {
		cb(s, true, nil, nil)
	}
}

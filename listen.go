package usox

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// ListenSocket is a bound, listening fd registered as PollTypeSemiSocket
// while acceptLoop (below, driven from dispatch.go) promotes each accepted connection to a
// full PollTypeSocket under the same Context.
type ListenSocket struct {
	sock *Socket
	opts ListenOptions
}

func (l *ListenSocket) Close() {
	l.sock.Close(CloseCleanShutdown, "listener closed")
}

func (l *ListenSocket) Fd() int          { return l.sock.fd }
func (l *ListenSocket) Socket() *Socket  { return l.sock }

// Listen binds and listens on network/addr, registering the fd with the
// loop's poller as a semi-socket. Grounded in the teacher's Frontend.listen
// plus kanengo-kio's raw socket/bind/listen sequence, generalized off
// net.Listen to a raw fd so the accept path stays inside the single loop
// thread instead of spawning a goroutine per listener.
func (c *Context) Listen(network, address string, opts ListenOptions) (*ListenSocket, error) {
	domain, sotype, sa, err := resolveSockaddr(network, address)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(domain, sotype, 0)
	if err != nil {
		return nil, err
	}
	applyListenerOptions(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}
	backlog := opts.Backlog
	if backlog <= 0 {
		backlog = 511
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	s := newSocket(c.loop, c, fd, PollTypeSemiSocket)
	c.addSocket(s)
	c.loop.registerFd(fd, s)
	if err := c.loop.poller.AddRead(fd); err != nil {
		return nil, err
	}
	log.Debug().Msgf("listening network=%s addr=%s fd=%d", network, address, fd)
	return &ListenSocket{sock: s, opts: opts}, nil
}

// acceptLoop drains every pending connection on a ready listen fd in one
// dispatch pass, same as accept() being called in a loop until EAGAIN in
// the original core's on_accept handling.
func (l *Loop) acceptLoop(listener *Socket) {
	ctx := listener.ctx
	for {
		connFd, sa, err := unix.Accept4(listener.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err != unix.EAGAIN {
				log.Error().Msgf("accept4 on fd=%d: %+v", listener.fd, err)
			}
			return
		}
		applySocketOptions(connFd, l.cfg)
		s := newSocket(l, ctx, connFd, PollTypeSocket)
		s.remote = sockaddrToAddr(sa)
		ctx.addSocket(s)
		l.registerFd(connFd, s)
		// Read-only from birth: WRITABLE is only armed by Socket.Write
		// when a write actually blocks, and cleared again once it drains
		// (dispatchSocket's writable phase) — arming it unconditionally
		// here would fire OnWritable on every iteration forever.
		if err := l.poller.AddRead(connFd); err != nil {
			log.Error().Msgf("poller add fd=%d: %+v", connFd, err)
			s.Close(CloseGenericErr, "poller add failed")
			continue
		}
		if ctx.opts.IsIPC {
			s.isIPC = true
		}
		if cb := ctx.callbacks.OnOpen; cb != nil {
			cb(s, false, listener, s.remote)
		}
		if listener.closed {
			return
		}
	}
}

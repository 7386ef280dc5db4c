package usox

import (
	"net"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// disarmedTimeout (255) marks a socket that carries no armed timeout in
// either wheel, same sentinel the original core uses for a single byte
// field.
type Socket struct {
	loop    *Loop
	ctx     *Context
	fd      int
	pt      PollType
	remote  net.Addr
	isIPC   bool

	next, prev *Socket // Context's intrusive socket list

	shortTimeout byte // disarmedTimeout when unarmed
	longTimeout  byte

	lowPrioState int // 0 = none, 1 = queued, 2 = running off-queue
	lowPrioNext  *Socket

	shutdown bool
	closed   bool

	userData interface{}
}

func newSocket(loop *Loop, ctx *Context, fd int, pt PollType) *Socket {
	return &Socket{
		loop:         loop,
		ctx:          ctx,
		fd:           fd,
		pt:           pt,
		shortTimeout: disarmedTimeout,
		longTimeout:  disarmedTimeout,
	}
}

func (s *Socket) Fd() int           { return s.fd }
func (s *Socket) IsClosed() bool    { return s.closed }
func (s *Socket) IsShutdown() bool  { return s.shutdown }
func (s *Socket) Context() *Context { return s.ctx }
func (s *Socket) RemoteAddr() net.Addr { return s.remote }

func (s *Socket) UserData() interface{}       { return s.userData }
func (s *Socket) SetUserData(v interface{})   { s.userData = v }

// Write pushes b directly to the fd. Non-blocking: a short write is
// reported back through the returned count rather than buffered, same
// contract as us_socket_write — buffering above this is the caller's job.
// A write that would block (EAGAIN) is not returned as an error: it sets
// the loop's last_write_failed flag (consulted by dispatchSocket's
// writable phase) and adds WRITABLE to the fd's poller interest (READABLE
// stays armed), so the caller is woken again once the socket can take
// more instead of polling for writability on every tick.
func (s *Socket) Write(b []byte) (int, error) {
	if s.closed {
		return 0, errSocketClosed
	}
	n, err := unix.Write(s.fd, b)
	if err == unix.EAGAIN {
		s.loop.lastWriteFailed = true
		if modErr := s.loop.poller.Modify(s.fd, true, true); modErr != nil {
			log.Error().Msgf("poller modify fd=%d: %+v", s.fd, modErr)
		}
		return n, nil
	}
	return n, err
}

// Shutdown half-closes the write side (SHUT_WR) and reclassifies the poll
// type as SOCKET_SHUT_DOWN, mirroring us_socket_shutdown. A socket that is
// already shut down is a no-op.
func (s *Socket) Shutdown() {
	if s.closed || s.shutdown {
		return
	}
	if err := unix.Shutdown(s.fd, unix.SHUT_WR); err != nil {
		log.Error().Msgf("shutdown fd=%d: %+v", s.fd, err)
	}
	s.shutdown = true
	s.pt = PollTypeSocketShutDown
}

// Close detaches the fd from the poller and schedules the underlying fd
// close for the next post-iteration sweep, so code still walking this
// loop iteration's ready list never dereferences freed state. on_close
// fires synchronously here, before the deferral, matching spec.md's
// "on_close fires immediately, memory freed at next post-hook" rule.
func (s *Socket) Close(code int, reason string) {
	if s.closed {
		return
	}
	s.closed = true
	s.loop.disarmShort(s)
	s.loop.disarmLong(s)
	if s.ctx != nil {
		s.ctx.removeSocket(s)
		if cb := s.ctx.callbacks.OnClose; cb != nil {
			cb(s, code, reason)
		}
	}
	_ = s.loop.poller.Remove(s.fd)
	s.loop.deferClose(s)
}

// Timeout arms the short (coarse, whole-second) wheel. seconds == 0
// disarms it, matching us_socket_timeout(0).
func (s *Socket) Timeout(seconds int) {
	if seconds <= 0 {
		s.loop.disarmShort(s)
		return
	}
	s.loop.armShort(s, seconds)
}

// LongTimeout arms the coarser, minute-granularity wheel used for
// overall-connection-lifetime caps (us_socket_long_timeout).
func (s *Socket) LongTimeout(minutes int) {
	if minutes <= 0 {
		s.loop.disarmLong(s)
		return
	}
	s.loop.armLong(s, minutes)
}

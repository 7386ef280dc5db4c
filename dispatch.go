package usox

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// dispatch is the callback handed to Poller.Wait; it classifies fd by
// poll type and routes to the matching phase, the same four-way switch
// the original core's dispatch loop runs (SEMI_SOCKET / SOCKET /
// SOCKET_SHUT_DOWN / UDP), plus the wakeup callback fd which has no
// socket backing it at all.
func (l *Loop) dispatch(fd int, readable, writable, errored bool) {
	if fd == l.wake.fd() {
		l.wake.drain()
		if l.hooks.OnWakeup != nil {
			l.hooks.OnWakeup(l)
		}
		return
	}

	if u, ok := l.udpSockets[fd]; ok {
		if writable {
			u.drain()
		}
		if readable && !u.sock.closed {
			u.readDatagram()
		}
		if errored && !u.sock.closed {
			u.Close()
		}
		return
	}

	s, ok := l.sockets[fd]
	if !ok {
		// Already unregistered this iteration (e.g. closed by an earlier
		// callback in the same batch); drop the stale readiness event.
		return
	}

	switch s.pt {
	case PollTypeSemiSocket:
		l.dispatchSemiSocket(s, readable, writable, errored)
	case PollTypeSocket, PollTypeSocketShutDown:
		l.dispatchSocket(s, readable, writable, errored)
	default:
		log.Debug().Msgf("fd=%d unexpected poll type %s in dispatch", fd, s.pt)
	}
}

func (l *Loop) dispatchSemiSocket(s *Socket, readable, writable, errored bool) {
	if cs, ok := l.connecting[s.fd]; ok {
		if writable || errored {
			l.finishConnect(cs)
		}
		return
	}
	if readable {
		l.acceptLoop(s)
	}
}

// dispatchSocket runs the four dispatch phases in the fixed order spec.md
// §4.2 mandates for SOCKET/SOCKET_SHUT_DOWN: writable, then readable, then
// EOF (folded into the readable phase's n==0 case below), then error —
// each short-circuiting as soon as the socket closes.
func (l *Loop) dispatchSocket(s *Socket, readable, writable, errored bool) {
	if writable && !errored {
		l.lastWriteFailed = false
		if cb := s.ctx.callbacks.OnWritable; cb != nil {
			cb(s)
		}
		if s.closed {
			return
		}
		if !l.lastWriteFailed || s.shutdown {
			if err := l.poller.Modify(s.fd, true, false); err != nil {
				log.Error().Msgf("poller modify fd=%d: %+v", s.fd, err)
			}
		}
	}
	if readable {
		l.handleReadable(s, errored)
		if s.closed {
			return
		}
	}
	if errored {
		s.Close(CloseGenericErr, "poll error")
	}
}

// handleReadable runs the readable phase: admission control first (spec.md
// §4.2 step 2), then a bounded receive loop into the loop's shared scratch
// buffer, delivering OnData per chunk and handling the half-open EOF
// nuance from loop.c: a socket already shut down that sees a second EOF
// closes clean rather than re-invoking OnEnd. errored carries this
// dispatch's poll-level error bit, used by the repeat-recv heuristic below
// exactly as spec.md's "we already saw an error flag" clause describes.
//
// Admission control, matching spec.md's three-way branch: a socket
// promoted by promoteLowPrio (lowPrioState == lowPrioRunning) pays its
// dues this one pass regardless of budget; otherwise, if the loop's shared
// low_prio_budget still has room this iteration, spend one unit and
// proceed normally; otherwise park it and switch to WRITABLE-only until a
// future iteration's promoteLowPrio lets it through.
func (l *Loop) handleReadable(s *Socket, errored bool) {
	if s.ctx != nil {
		if cb := s.ctx.callbacks.IsLowPrio; cb != nil && cb(s) {
			switch {
			case s.lowPrioState == lowPrioRunning:
				s.lowPrioState = lowPrioNone
			case l.lowPrioBudget > 0:
				l.lowPrioBudget--
			default:
				l.queueLowPrio(s)
				if err := l.poller.Modify(s.fd, false, true); err != nil {
					log.Error().Msgf("poller modify fd=%d: %+v", s.fd, err)
				}
				return
			}
		}
	}

	pad := l.cfg.RecvBufferPadding
	buf := l.recvBuf[pad : pad+l.cfg.RecvBufferLength]
	repeats := 0
	for {
		var n int
		var err error
		if s.isIPC {
			n, err = l.recvWithRights(s, buf)
		} else {
			n, err = unix.Read(s.fd, buf)
		}
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			s.Close(CloseGenericErr, err.Error())
			return
		}
		if n == 0 {
			l.handleEOF(s)
			return
		}
		if cb := s.ctx.callbacks.OnData; cb != nil {
			cb(s, buf[:n])
		}
		if s.closed {
			return
		}
		// Repeat-recv heuristic (spec.md §4.2/§8): only keep draining this
		// fd past one read if the buffer came back almost full, and only
		// when recent poll pressure is low enough to afford it, capped at
		// 10 repeats once pressure climbs.
		filledNearFull := n >= l.cfg.RecvBufferLength-24*1024
		if !filledNearFull {
			return
		}
		if !(errored || l.numReadyPolls < 25) {
			return
		}
		repeats++
		if repeats >= 10 && l.numReadyPolls > 2 {
			return
		}
	}
}

func (l *Loop) handleEOF(s *Socket) {
	if s.shutdown {
		s.Close(CloseCleanShutdown, "eof after shutdown")
		return
	}
	if s.ctx.opts.AllowHalfOpen {
		if cb := s.ctx.callbacks.OnEnd; cb != nil {
			cb(s)
		}
		return
	}
	s.Close(CloseCleanShutdown, "eof")
}

// recvWithRights reads into buf via recvmsg(2) instead of plain read(2),
// collecting any SCM_RIGHTS ancillary data in the same call — like
// bsd_recvmsg in loop.c, which reads payload and control data together.
// A stream socket's ancillary data only survives on the call that reads
// across the byte offset it was attached to; a later, separate recvmsg
// peek finds nothing, since the kernel has already dropped it once the
// payload bytes were consumed by a call that didn't ask for it.
func (l *Loop) recvWithRights(s *Socket, buf []byte) (int, error) {
	oob := make([]byte, unix.CmsgSpace(4*maxSCMRightsPerMsg))
	n, oobn, _, _, err := unix.Recvmsg(s.fd, buf, oob, 0)
	if err != nil {
		return n, err
	}
	if oobn > 0 {
		l.deliverSCMRights(s, oob[:oobn])
	}
	return n, nil
}

// deliverSCMRights hands each received fd to the Context's OnFd callback,
// mirroring the on_fd callback the original core exposes for IPC sockets.
// An fd nobody claims is closed immediately rather than leaked.
func (l *Loop) deliverSCMRights(s *Socket, oob []byte) {
	cmsgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return
	}
	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			if cb := s.ctx.callbacks.OnFd; cb != nil {
				cb(s, fd)
			} else {
				unix.Close(fd)
			}
		}
	}
}

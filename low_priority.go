package usox

import "github.com/rs/zerolog/log"

// Low-priority socket states, matching LIBUS_SOCKET_NOT_LOW_PRIO etc:
// 0 a socket runs normally, 1 it's parked in the admission queue waiting
// for budget, 2 it has been promoted this iteration and should be let
// through dispatch's admission check once without consuming budget.
const (
	lowPrioNone    = 0
	lowPrioQueued  = 1
	lowPrioRunning = 2
)

// queueLowPrio parks s instead of dispatching it immediately; called from
// dispatch when a Context's IsLowPrio callback returns true for a socket
// that just became active and the loop's low_prio_budget is exhausted for
// this iteration (typically a just-accepted TLS connection about to pay
// for a handshake). LIFO, same as the original queue — the socket that
// arrived last gets first crack at the next budget, so under a flood the
// newest arrivals are served first and the oldest queued sockets wait
// longest.
func (l *Loop) queueLowPrio(s *Socket) {
	if s.lowPrioState != lowPrioNone {
		return
	}
	s.lowPrioState = lowPrioQueued
	l.lowPrioQueue = append(l.lowPrioQueue, s)
}

// promoteLowPrio runs once per pre-iteration hook, before poll-wait and
// dispatch — matching loop.c's us_internal_loop_pre calling
// handle_low_priority_sockets at the start of the iteration, not the end.
// It resets the loop's shared low-priority budget for this iteration, then
// walks the queue LIFO, spending budget to promote sockets back to
// lowPrioRunning and re-arm READABLE interest. It does not read anything
// itself: a promoted socket only actually runs once the poller reports it
// readable and dispatch's admission check (in handleReadable) sees its
// state is lowPrioRunning.
func (l *Loop) promoteLowPrio() {
	l.lowPrioBudget = MaxLowPrioSocketsPerTick
	for l.lowPrioBudget > 0 && len(l.lowPrioQueue) > 0 {
		last := len(l.lowPrioQueue) - 1
		s := l.lowPrioQueue[last]
		l.lowPrioQueue = l.lowPrioQueue[:last]
		if s.closed {
			continue
		}
		l.lowPrioBudget--
		s.lowPrioState = lowPrioRunning
		if err := l.poller.Modify(s.fd, true, false); err != nil {
			log.Error().Msgf("poller modify fd=%d: %+v", s.fd, err)
		}
	}
}

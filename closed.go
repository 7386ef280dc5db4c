package usox

// deferClose parks s for fd teardown at the next post-hook instead of
// tearing it down inline from Close. on_close has already fired by the
// time this runs — this queue exists only so a dispatch pass still
// walking this iteration's ready-fd batch never has the fd table mutated
// underneath it, the same reentrancy hazard us_internal_free_closed_sockets
// exists to avoid.
func (l *Loop) deferClose(s *Socket) {
	l.closedQueue = append(l.closedQueue, s)
}

// freeClosed runs once per post-iteration hook and actually releases the
// fd and drops it from every lookup table.
func (l *Loop) freeClosed() {
	if len(l.closedQueue) == 0 {
		return
	}
	for _, s := range l.closedQueue {
		l.unregisterFd(s.fd)
		closeFd(s.fd)
	}
	l.closedQueue = l.closedQueue[:0]
}

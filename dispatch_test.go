package usox

import "testing"

func TestDispatchDropsStaleFd(t *testing.T) {
	loop := newTestLoop()
	// fd 999 was never registered; dispatch must not panic or misbehave.
	loop.dispatch(999, true, false, false)
}

func TestDispatchSocketErrorClosesSocket(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}
	var closeCode int
	c.callbacks.OnClose = func(s *Socket, code int, reason string) { closeCode = code }

	s := newSocket(loop, c, 42, PollTypeSocket)
	c.addSocket(s)
	loop.registerFd(42, s)

	loop.dispatch(42, false, false, true)

	if !s.closed {
		t.Fatalf("socket not closed after errored dispatch")
	}
	if closeCode != CloseGenericErr {
		t.Fatalf("close code = %d, want %d", closeCode, CloseGenericErr)
	}
}

func TestDispatchWritableInvokesOnWritable(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}
	var gotWritable bool
	c.callbacks.OnWritable = func(s *Socket) { gotWritable = true }

	s := newSocket(loop, c, 43, PollTypeSocket)
	c.addSocket(s)
	loop.registerFd(43, s)

	loop.dispatch(43, false, true, false)

	if !gotWritable {
		t.Fatalf("OnWritable not invoked on writable dispatch")
	}
}

func TestFreeClosedDrainsQueueAndUnregisters(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}
	s := newSocket(loop, c, 44, PollTypeSocket)
	c.addSocket(s)
	loop.registerFd(44, s)
	loop.closedQueue = append(loop.closedQueue, s)

	loop.freeClosed()

	if _, ok := loop.sockets[44]; ok {
		t.Fatalf("fd=44 still registered after freeClosed")
	}
	if len(loop.closedQueue) != 0 {
		t.Fatalf("closedQueue not drained, len=%d", len(loop.closedQueue))
	}
}

package usox

import "testing"

func TestPromoteLowPrioRespectsBudget(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}

	for i := 0; i < MaxLowPrioSocketsPerTick*2; i++ {
		s := newSocket(loop, c, 100+i, PollTypeSocket)
		c.addSocket(s)
		loop.queueLowPrio(s)
	}

	if len(loop.lowPrioQueue) != MaxLowPrioSocketsPerTick*2 {
		t.Fatalf("queue length = %d, want %d", len(loop.lowPrioQueue), MaxLowPrioSocketsPerTick*2)
	}

	loop.promoteLowPrio()

	wantRemaining := MaxLowPrioSocketsPerTick
	if len(loop.lowPrioQueue) != wantRemaining {
		t.Fatalf("after one promotion pass, queue length = %d, want %d", len(loop.lowPrioQueue), wantRemaining)
	}
	if loop.lowPrioBudget != 0 {
		t.Fatalf("lowPrioBudget = %d, want 0 after spending it all on promotion", loop.lowPrioBudget)
	}

	loop.promoteLowPrio()
	if len(loop.lowPrioQueue) != 0 {
		t.Fatalf("after second promotion pass, queue length = %d, want 0", len(loop.lowPrioQueue))
	}
}

func TestQueueLowPrioIsIdempotentPerSocket(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}
	s := newSocket(loop, c, 200, PollTypeSocket)
	c.addSocket(s)

	loop.queueLowPrio(s)
	loop.queueLowPrio(s)

	if len(loop.lowPrioQueue) != 1 {
		t.Fatalf("queue length = %d, want 1 (queueing twice must be a no-op)", len(loop.lowPrioQueue))
	}
}

func TestLowPrioQueueIsLIFO(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}

	sockets := make([]*Socket, MaxLowPrioSocketsPerTick+1)
	for i := range sockets {
		s := newSocket(loop, c, 300+i, PollTypeSocket)
		c.addSocket(s)
		sockets[i] = s
		loop.queueLowPrio(s)
	}

	loop.promoteLowPrio()

	if sockets[0].lowPrioState != lowPrioQueued {
		t.Fatalf("oldest-queued socket should still be waiting (LIFO favors later arrivals), state=%d", sockets[0].lowPrioState)
	}
	for i := 1; i < len(sockets); i++ {
		if sockets[i].lowPrioState != lowPrioRunning {
			t.Fatalf("socket %d should have been promoted, state=%d", i, sockets[i].lowPrioState)
		}
	}
}

// TestHandleReadableAdmitsInlineWhileBudgetRemains covers spec.md §4.2
// step 2's middle branch: a socket an IsLowPrio callback flags, seen for
// the first time this iteration (not a promoteLowPrio pass), still runs
// immediately as long as the loop's shared per-iteration budget has room —
// it must not be unconditionally queued.
func TestHandleReadableAdmitsInlineWhileBudgetRemains(t *testing.T) {
	loop := newTestLoop()
	loop.lowPrioBudget = 1
	c := &Context{loop: loop}
	c.callbacks.IsLowPrio = func(s *Socket) bool { return true }

	s := newSocket(loop, c, 500, PollTypeSocket)
	c.addSocket(s)

	loop.handleReadable(s, false)

	if s.lowPrioState == lowPrioQueued {
		t.Fatalf("socket was queued despite available budget")
	}
	if loop.lowPrioBudget != 0 {
		t.Fatalf("lowPrioBudget = %d, want 0 after spending the inline unit", loop.lowPrioBudget)
	}
}

// TestHandleReadableQueuesOnceBudgetExhausted covers the final branch: once
// the shared budget is spent, a newly-flagged low-prio socket is parked
// rather than read, and left untouched until a future promoteLowPrio pass.
func TestHandleReadableQueuesOnceBudgetExhausted(t *testing.T) {
	loop := newTestLoop()
	loop.lowPrioBudget = 0
	c := &Context{loop: loop}
	c.callbacks.IsLowPrio = func(s *Socket) bool { return true }

	s := newSocket(loop, c, 501, PollTypeSocket)
	c.addSocket(s)

	loop.handleReadable(s, false)

	if s.lowPrioState != lowPrioQueued {
		t.Fatalf("socket should be queued once budget is exhausted, state=%d", s.lowPrioState)
	}
	if len(loop.lowPrioQueue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(loop.lowPrioQueue))
	}
	if s.closed {
		t.Fatalf("queued socket must not be read or closed")
	}
}

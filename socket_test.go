package usox

import "testing"

func TestContextAddRemoveSocketListMembership(t *testing.T) {
	c := &Context{}
	a := &Socket{}
	b := &Socket{}
	c.addSocket(a)
	c.addSocket(b)

	if c.head != b {
		t.Fatalf("head = %p, want most recently added socket", c.head)
	}

	c.removeSocket(a)
	if a.next != nil || a.prev != nil {
		t.Fatalf("removed socket still linked: next=%p prev=%p", a.next, a.prev)
	}
	if c.head != b || b.next != nil {
		t.Fatalf("list corrupted after removing non-head: head=%p b.next=%p", c.head, b.next)
	}

	c.removeSocket(b)
	if c.head != nil {
		t.Fatalf("head = %p, want nil after removing last socket", c.head)
	}
}

func TestContextCloseAdvancesIteratorPastReentrantRemoval(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}
	var closed []int
	c.callbacks.OnClose = func(s *Socket, code int, reason string) {
		closed = append(closed, s.fd)
	}

	s1 := newSocket(loop, c, 1, PollTypeSocket)
	s2 := newSocket(loop, c, 2, PollTypeSocket)
	s3 := newSocket(loop, c, 3, PollTypeSocket)
	c.addSocket(s1)
	c.addSocket(s2)
	c.addSocket(s3)

	c.Close()

	if len(closed) != 3 {
		t.Fatalf("closed %d sockets, want 3: %v", len(closed), closed)
	}
	if !s1.closed || !s2.closed || !s3.closed {
		t.Fatalf("not all sockets marked closed")
	}
}

func TestSocketCloseIsIdempotent(t *testing.T) {
	loop := newTestLoop()
	c := &Context{loop: loop}
	var closes int
	c.callbacks.OnClose = func(s *Socket, code int, reason string) { closes++ }

	s := newSocket(loop, c, 5, PollTypeSocket)
	c.addSocket(s)

	s.Close(CloseCleanShutdown, "first")
	s.Close(CloseCleanShutdown, "second")

	if closes != 1 {
		t.Fatalf("OnClose fired %d times, want 1", closes)
	}
	if len(loop.closedQueue) != 1 {
		t.Fatalf("closedQueue has %d entries, want 1", len(loop.closedQueue))
	}
}

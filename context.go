package usox

import "net"

// Callbacks is the set of lifecycle hooks a Context dispatches to. Any
// left nil is simply skipped, same as the original core's optional
// function-pointer slots.
type Callbacks struct {
	// OnOpen fires for both accepted and outbound sockets. listener is
	// the ListenSocket's underlying Socket that produced s on the
	// server side, or nil for an outbound connect.
	OnOpen          func(s *Socket, isClient bool, listener *Socket, addr net.Addr)
	OnData          func(s *Socket, data []byte)
	OnWritable      func(s *Socket)
	OnClose         func(s *Socket, code int, reason string)
	OnEnd           func(s *Socket) // half-open EOF, before shutdown completes
	OnTimeout       func(s *Socket)
	OnLongTimeout   func(s *Socket)
	OnConnectError  func(c *ConnectingSocket, code int)
	OnFd            func(s *Socket, fd int) // SCM_RIGHTS IPC hand-off
	IsLowPrio       func(s *Socket) bool
}

// Context groups sockets that share a protocol and a Callbacks set, same
// role as us_socket_context_t: one loop can host many contexts (e.g. one
// per listening protocol), each with its own socket list.
type Context struct {
	loop      *Loop
	opts      ContextOptions
	callbacks Callbacks

	head     *Socket // intrusive list head, see addSocket/removeSocket
	iterator *Socket // Context.Close's walk cursor, kept valid across re-entrant removal

	closed bool
}

func (l *Loop) CreateContext(opts ContextOptions) *Context {
	c := &Context{loop: l, opts: opts}
	l.contexts = append(l.contexts, c)
	return c
}

func (c *Context) SetCallbacks(cb Callbacks) { c.callbacks = cb }

func (c *Context) Options() ContextOptions { return c.opts }

// Close closes every socket still registered under this context. Mirrors
// us_socket_context_free's walk-and-close, using the context's own
// iterator slot so a callback closing a sibling socket mid-walk can't
// corrupt the traversal.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.iterator = c.head
	for c.iterator != nil {
		s := c.iterator
		c.iterator = s.next
		s.Close(CloseCleanShutdown, "context closed")
	}
}

func (c *Context) addSocket(s *Socket) {
	s.next = c.head
	s.prev = nil
	if c.head != nil {
		c.head.prev = s
	}
	c.head = s
}

// removeSocket unlinks s and, critically, advances any in-flight iterator
// that currently points at s — the same trick us_socket_context_t's
// iterator field exists for, so a callback-driven close during a
// Context.Close walk never dereferences an unlinked node.
func (c *Context) removeSocket(s *Socket) {
	if c.iterator == s {
		c.iterator = s.next
	}
	if s.prev != nil {
		s.prev.next = s.next
	} else if c.head == s {
		c.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	}
	s.next, s.prev = nil, nil
}

package usox

// PollType tags what a registered fd actually is, mirroring the union
// discriminator us_poll_t carries in the original core: a plain callback
// (wakeup/async fd), a semi-socket still connecting or listening, a live
// socket, a socket that has been shut down but not yet closed, or UDP.
type PollType int

const (
	PollTypeCallback PollType = iota
	PollTypeSemiSocket
	PollTypeSocket
	PollTypeSocketShutDown
	PollTypeUDP
)

func (t PollType) String() string {
	switch t {
	case PollTypeCallback:
		return "callback"
	case PollTypeSemiSocket:
		return "semi_socket"
	case PollTypeSocket:
		return "socket"
	case PollTypeSocketShutDown:
		return "socket_shut_down"
	case PollTypeUDP:
		return "udp"
	default:
		return "unknown"
	}
}

const defEventsBufferSize = 1024
const blocked = -1

// Poller is the readiness-notification adapter the loop drives. One
// implementation per platform; only the Linux epoll adapter is real here,
// matching spec.md's framing that only the adapter interface is in scope.
type Poller interface {
	Close() error
	AddRead(fd int) error
	AddReadWrite(fd int) error
	AddWrite(fd int) error
	Modify(fd int, readable, writable bool) error
	Remove(fd int) error
	// Wait blocks up to timeoutMs (or indefinitely if timeoutMs < 0) and
	// invokes cb once per ready fd. Returns the number of ready fds.
	Wait(timeoutMs int, cb func(fd int, readable, writable, errored bool)) (int, error)
}

// wakeupSource is the cross-thread wakeup primitive registered with the
// poller as a PollTypeCallback fd: an eventfd on Linux, a self-pipe
// elsewhere.
type wakeupSource interface {
	fd() int
	signal() error
	drain()
	close() error
}

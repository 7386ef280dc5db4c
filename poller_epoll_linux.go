//go:build linux

package usox

import (
	"math"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	readEvents      = unix.EPOLLPRI | unix.EPOLLIN
	writeEvents     = unix.EPOLLOUT
	readWriteEvents = readEvents | writeEvents
	errorEvents     = unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLRDHUP
)

// epollPoller is the Linux Poller adapter, carried over from the teacher's
// epoll_linux_amd64.go/netpoll_linux_amd64.go (which duplicated the same
// epoll_create1/epoll_ctl/epoll_wait plumbing in two files); merged here
// into the one adapter the dispatch core actually drives.
type epollPoller struct {
	fd      int
	timeout int
	events  []unix.EpollEvent
}

func newPoller(eventsBufferSize int) (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	bufferSize := int(math.Max(float64(eventsBufferSize), defEventsBufferSize))
	return &epollPoller{
		fd:      fd,
		timeout: blocked,
		events:  make([]unix.EpollEvent, bufferSize),
	}, nil
}

func (p *epollPoller) Close() error {
	return os.NewSyscallError("close", unix.Close(p.fd))
}

func (p *epollPoller) ctl(op int, fd int, events uint32) error {
	err := unix.EpollCtl(p.fd, op, fd, &unix.EpollEvent{Fd: int32(fd), Events: events})
	if err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

func (p *epollPoller) AddRead(fd int) error      { return p.ctl(unix.EPOLL_CTL_ADD, fd, readEvents|errorEvents) }
func (p *epollPoller) AddReadWrite(fd int) error { return p.ctl(unix.EPOLL_CTL_ADD, fd, readWriteEvents|errorEvents) }
func (p *epollPoller) AddWrite(fd int) error     { return p.ctl(unix.EPOLL_CTL_ADD, fd, writeEvents|errorEvents) }
func (p *epollPoller) Remove(fd int) error       { return p.ctl(unix.EPOLL_CTL_DEL, fd, 0) }

func (p *epollPoller) Modify(fd int, readable, writable bool) error {
	var events uint32 = errorEvents
	if readable {
		events |= readEvents
	}
	if writable {
		events |= writeEvents
	}
	return p.ctl(unix.EPOLL_CTL_MOD, fd, events)
}

func (p *epollPoller) Wait(timeoutMs int, cb func(fd int, readable, writable, errored bool)) (int, error) {
	p.timeout = timeoutMs
	evCount, err := unix.EpollWait(p.fd, p.events, p.timeout)
	if evCount < 0 && err == unix.EINTR {
		return 0, nil
	}
	if err != nil {
		return 0, os.NewSyscallError("epoll_wait", err)
	}
	for i := 0; i < evCount; i++ {
		ev := p.events[i]
		if log.Debug().Enabled() {
			log.Debug().Msgf("epoll event fd=%d mask=%#x", ev.Fd, ev.Events)
		}
		cb(int(ev.Fd), ev.Events&readEvents != 0, ev.Events&writeEvents != 0, ev.Events&errorEvents != 0)
	}
	return evCount, nil
}

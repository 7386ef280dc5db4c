//go:build linux

package usox

import "golang.org/x/sys/unix"

// eventfdWakeup is the async-callback wakeup handle us_internal_loop_data's
// dns_callback_threadsafe path uses to pull the loop out of epoll_wait from
// another OS thread. Grounded in kanengo-kio's raw eventfd2 creation for its
// poller, adapted here to use x/sys/unix directly since the teacher already
// depends on it for epoll.
type eventfdWakeup struct {
	efd int
}

func newWakeupSource() (wakeupSource, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &eventfdWakeup{efd: fd}, nil
}

func (w *eventfdWakeup) fd() int { return w.efd }

func (w *eventfdWakeup) signal() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(w.efd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return err
	}
	return nil
}

func (w *eventfdWakeup) drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.efd, buf[:])
		if err != nil {
			return
		}
	}
}

func (w *eventfdWakeup) close() error {
	return unix.Close(w.efd)
}

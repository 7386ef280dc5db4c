//go:build !linux

package usox

import "os"

// pipeWakeup is the portable fallback wakeup source for platforms without
// a real poller adapter (see poller_other.go): a self-pipe, same trick
// libuv and net/http's old netpoll fallback used before eventfd existed.
type pipeWakeup struct {
	r, w *os.File
}

func newWakeupSource() (wakeupSource, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	return &pipeWakeup{r: r, w: w}, nil
}

func (p *pipeWakeup) fd() int { return int(p.r.Fd()) }

func (p *pipeWakeup) signal() error {
	_, err := p.w.Write([]byte{1})
	return err
}

func (p *pipeWakeup) drain() {
	buf := make([]byte, 64)
	for {
		n, err := p.r.Read(buf)
		if n == 0 || err != nil {
			return
		}
	}
}

func (p *pipeWakeup) close() error {
	p.w.Close()
	return p.r.Close()
}

package usox

// fakePoller is a no-op Poller for exercising dispatch/socket/timeout
// logic without a real epoll fd, grounded in momentics-hioload-ws's
// tests/fake.FakePoller: record calls, never actually block.
type fakePoller struct {
	added    []int
	removed  []int
	modified []int
	queued   []func(fd int, readable, writable, errored bool)
}

func (p *fakePoller) Close() error { return nil }

func (p *fakePoller) AddRead(fd int) error      { p.added = append(p.added, fd); return nil }
func (p *fakePoller) AddReadWrite(fd int) error { p.added = append(p.added, fd); return nil }
func (p *fakePoller) AddWrite(fd int) error     { p.added = append(p.added, fd); return nil }
func (p *fakePoller) Remove(fd int) error       { p.removed = append(p.removed, fd); return nil }

func (p *fakePoller) Modify(fd int, readable, writable bool) error {
	p.modified = append(p.modified, fd)
	return nil
}

func (p *fakePoller) Wait(timeoutMs int, cb func(fd int, readable, writable, errored bool)) (int, error) {
	return 0, nil
}

// fakeWakeup is a platform-neutral stand-in for the real eventfd/pipe
// wakeupSource, used so tests don't need a platform build tag to get a
// wake() fd that's simply never equal to any real socket fd under test.
type fakeWakeup struct{}

func (fakeWakeup) fd() int     { return -1 }
func (fakeWakeup) signal() error { return nil }
func (fakeWakeup) drain()        {}
func (fakeWakeup) close() error  { return nil }

func newTestLoop() *Loop {
	cfg := LoopConfig{SweepGranularitySec: DefaultSweepGranularitySec, RecvBufferLength: 4096, RecvBufferPadding: DefaultRecvBufferPadding}
	return &Loop{
		cfg:        cfg,
		poller:     &fakePoller{},
		wake:       fakeWakeup{},
		sockets:    make(map[int]*Socket),
		listeners:  make(map[int]*Socket),
		connecting: make(map[int]*ConnectingSocket),
		udpSockets: make(map[int]*UDPSocket),
		cache:      newDNSCache(),
		recvBuf:    make([]byte, cfg.RecvBufferLength+2*cfg.RecvBufferPadding),
	}
}

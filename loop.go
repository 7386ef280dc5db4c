package usox

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// LoopHooks are the pre/post-iteration and wakeup hooks every Loop
// iteration runs through, same three slots us_loop_t exposes
// (pre_cb, post_cb, and the wakeup async's callback).
type LoopHooks struct {
	OnPre    func(l *Loop)
	OnPost   func(l *Loop)
	OnWakeup func(l *Loop)
}

// Loop is a single-threaded, non-blocking socket event loop: one poller,
// any number of Contexts, a two-wheel timeout sweep and a bounded
// low-priority admission queue. A process may run several Loops, each on
// its own goroutine (locked to its OS thread when LoopConfig.LockOSThread
// is set); they never share sockets or contexts (see LoopGroup in loopgroup.go for sharding across them).
type Loop struct {
	cfg   LoopConfig
	hooks LoopHooks

	poller Poller
	wake   wakeupSource

	running   atomic.Bool
	iteration atomic.Int64
	refcount  atomic.Int64

	contexts []*Context

	sockets    map[int]*Socket
	listeners  map[int]*Socket
	connecting map[int]*ConnectingSocket
	udpSockets map[int]*UDPSocket

	closedQueue []*Socket

	shortWheel [shortTickWheelSize][]*Socket
	longWheel  [shortTickWheelSize][]*Socket
	sweepRefcount atomic.Int64
	lastSweepTick int64

	lowPrioQueue  []*Socket
	lowPrioBudget int // reset each iteration by promoteLowPrio; spent by both the promotion walk and dispatch's inline admission branch

	dnsMu    sync.Mutex
	dnsReady []pendingDNS
	cache    *dnsCache

	// recvBuf is the loop-owned scratch receive buffer (spec.md §3: size R
	// with padding P on each side), reused across every socket on this
	// loop — never retained past an OnData call's return. numReadyPolls
	// is the ready-fd count the last poller.Wait call reported, consulted
	// by the repeat-recv heuristic in dispatch.go (it lags by one
	// iteration rather than the one currently dispatching, since a
	// poller's event count isn't known until Wait returns — an
	// approximation spec.md itself allows for backends where the figure
	// isn't available at all). lastWriteFailed is cleared before each
	// writable-phase OnWritable call and set by Socket.Write on EAGAIN, so
	// dispatchSocket knows whether to keep WRITABLE armed afterward.
	recvBuf         []byte
	numReadyPolls   int
	lastWriteFailed bool
}

// NewLoop allocates a loop and its poller. The sizeof(sync.Mutex) check
// below has no equivalent hazard in Go — no raw memory layout to get
// wrong — but it's carried over as the one us_internal_loop_data_init
// assertion that has a direct Go analogue: a platform where the runtime's
// mutex representation somehow grew past what callers assume would be a
// build worth aborting on loudly instead of silently.
func NewLoop(cfg LoopConfig, hooks LoopHooks) (*Loop, error) {
	cfg.applyDefaults()
	if unsafe.Sizeof(sync.Mutex{}) > 8 {
		log.Fatal().Msg("sync.Mutex footprint exceeds the assumed bound")
		return nil, errMutexSizeMismatch
	}

	poller, err := newPoller(defEventsBufferSize)
	if err != nil {
		return nil, err
	}
	wake, err := newWakeupSource()
	if err != nil {
		poller.Close()
		return nil, err
	}
	if err := poller.AddRead(wake.fd()); err != nil {
		wake.close()
		poller.Close()
		return nil, err
	}

	l := &Loop{
		cfg:        cfg,
		hooks:      hooks,
		poller:     poller,
		wake:       wake,
		sockets:    make(map[int]*Socket),
		listeners:  make(map[int]*Socket),
		connecting: make(map[int]*ConnectingSocket),
		udpSockets: make(map[int]*UDPSocket),
		cache:      newDNSCache(),
		recvBuf:    make([]byte, cfg.RecvBufferLength+2*cfg.RecvBufferPadding),
	}
	for i := range l.shortWheel {
		l.shortWheel[i] = nil
	}
	return l, nil
}

func (l *Loop) registerFd(fd int, s *Socket) {
	switch s.pt {
	case PollTypeSemiSocket:
		if _, connecting := l.connecting[fd]; !connecting {
			l.listeners[fd] = s
		}
		l.sockets[fd] = s
	default:
		l.sockets[fd] = s
	}
}

func (l *Loop) unregisterFd(fd int) {
	delete(l.sockets, fd)
	delete(l.listeners, fd)
	delete(l.connecting, fd)
}

// Ref/Unref track auxiliary interest in keeping the loop alive beyond its
// own sockets (e.g. a timer with no socket backing it) — informational
// bookkeeping only here since Run's exit condition is Stop(), not refcount
// reaching zero.
func (l *Loop) Ref()   { l.refcount.Inc() }
func (l *Loop) Unref() { l.refcount.Dec() }
func (l *Loop) Refs() int64 { return l.refcount.Load() }

func (l *Loop) Iteration() int64 { return l.iteration.Load() }

func (l *Loop) Wakeup() {
	if err := l.wake.signal(); err != nil {
		log.Error().Msgf("loop wakeup signal: %+v", err)
	}
}

func (l *Loop) Stop() { l.running.Store(false) }

// Run drives the loop until Stop is called. Each iteration: run the pre
// hook (drains any cross-thread DNS results that arrived since the last
// iteration, promotes a budgeted slice of the low-priority queue), block
// in the poller, dispatch every ready fd, then run the post hook (free
// sockets deferred for destruction this iteration, sweep the timeout
// wheels, drain DNS results again).
func (l *Loop) Run() error {
	if l.cfg.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	l.running.Store(true)
	defer l.poller.Close()
	defer l.wake.close()

	for l.running.Load() {
		l.preIteration()

		timeoutMs := l.nextTimeoutMs()
		n, err := l.poller.Wait(timeoutMs, l.dispatch)
		if err != nil {
			log.Error().Msgf("poller wait: %+v", err)
		}
		l.numReadyPolls = n

		l.postIteration()
		l.iteration.Inc()
	}
	return nil
}

func (l *Loop) preIteration() {
	l.drainDNS()
	// handle_low_priority_sockets runs at the start of the iteration, ahead
	// of poll-wait/dispatch, so a socket promoted here has a chance to be
	// seen readable by the very poller.Wait call that follows.
	l.promoteLowPrio()
	if l.hooks.OnPre != nil {
		l.hooks.OnPre(l)
	}
}

func (l *Loop) postIteration() {
	l.freeClosed()
	l.sweep()
	// us_internal_loop_post also runs us_internal_handle_dns_results, so a
	// DNS completion that arrived mid-dispatch is visible before the next
	// poll-wait rather than sitting a full extra iteration.
	l.drainDNS()
	if l.hooks.OnPost != nil {
		l.hooks.OnPost(l)
	}
}

// nextTimeoutMs bounds how long poller.Wait may block: indefinitely if no
// timeout is armed anywhere (sweepRefcount == 0), otherwise no longer than
// one sweep granularity, so the wheel never misses a tick.
func (l *Loop) nextTimeoutMs() int {
	if l.sweepRefcount.Load() == 0 {
		return blocked
	}
	return l.cfg.SweepGranularitySec * 1000
}

// Package usox implements a single-threaded, non-blocking socket event
// loop core: a readiness poller, per-protocol socket Contexts, a
// two-wheel coarse timeout sweep, a budgeted low-priority admission
// queue, and a thread-safe hand-off for cross-thread DNS completions.
//
// A Loop runs on one goroutine (locked to its OS thread when
// LoopConfig.LockOSThread is set) and owns its own Contexts and Sockets; it shares none of them with any other Loop.
// Programs that want to use more than one CPU core run several Loops,
// each independent, and shard accepted connections across them (see
// LoopGroup).
package usox

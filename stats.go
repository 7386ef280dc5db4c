package usox

import "go.uber.org/atomic"

// ContextStats tracks live/lifetime socket counts per Context, the same
// shape the teacher's FrontendStats carried (active/max/total sessions)
// but generalized off one hardcoded frontend to any Context and kept as
// atomics instead of plain fields so callers can read them from another
// goroutine without racing the loop thread.
type ContextStats struct {
	Active atomic.Int64
	Opened atomic.Int64
	Closed atomic.Int64
}

// LoopStats aggregates across every Context a Loop owns, mirroring the
// teacher's StatsManager/ActiveStats split between a process-wide view
// and a per-component breakdown.
type LoopStats struct {
	Iteration int64
	Contexts  int
}

func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Iteration: l.Iteration(),
		Contexts:  len(l.contexts),
	}
}

package usox

// The sweep is a classic timing wheel: arming a socket for N seconds
// places it in the bucket the wheel will reach in N/SweepGranularitySec
// ticks (at least one), so firing a tick is just "run whatever's in the
// current bucket" — no per-socket countdown bookkeeping. shortWheel
// advances one bucket per tick; longWheel advances one bucket every
// longTickMultiplier short ticks, the same 1:15 nesting loop.c's
// us_internal_loop_data's timer/long_timer wheels use (one 240-bucket
// revolution of the short wheel moves the long wheel on by 16 buckets...
// the exact reach doesn't matter here, the nesting ratio does).

func (l *Loop) armShort(s *Socket, seconds int) {
	l.disarmShort(s)
	ticks := seconds / l.cfg.SweepGranularitySec
	if ticks <= 0 {
		ticks = 1
	}
	if ticks >= shortTickWheelSize {
		ticks = shortTickWheelSize - 1
	}
	bucket := (int(l.lastSweepTick) + ticks) % shortTickWheelSize
	l.shortWheel[bucket] = append(l.shortWheel[bucket], s)
	s.shortTimeout = byte(bucket)
	l.enableSweep()
}

func (l *Loop) armLong(s *Socket, minutes int) {
	l.disarmLong(s)
	ticks := minutes
	if ticks <= 0 {
		ticks = 1
	}
	if ticks >= shortTickWheelSize {
		ticks = shortTickWheelSize - 1
	}
	longTick := int(l.lastSweepTick) / longTickMultiplier
	bucket := (longTick + ticks) % shortTickWheelSize
	l.longWheel[bucket] = append(l.longWheel[bucket], s)
	s.longTimeout = byte(bucket)
	l.enableSweep()
}

func (l *Loop) disarmShort(s *Socket) {
	if s.shortTimeout == disarmedTimeout {
		return
	}
	l.shortWheel[s.shortTimeout] = removeSocketFromSlice(l.shortWheel[s.shortTimeout], s)
	s.shortTimeout = disarmedTimeout
	l.disableSweepIfIdle()
}

func (l *Loop) disarmLong(s *Socket) {
	if s.longTimeout == disarmedTimeout {
		return
	}
	l.longWheel[s.longTimeout] = removeSocketFromSlice(l.longWheel[s.longTimeout], s)
	s.longTimeout = disarmedTimeout
	l.disableSweepIfIdle()
}

func removeSocketFromSlice(list []*Socket, s *Socket) []*Socket {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// enableSweep/disableSweepIfIdle refcount armed timeouts across the whole
// loop: the sweep only needs to run (and poller.Wait only needs a bounded
// timeout) while at least one socket anywhere has a live timeout, exactly
// us_internal_enable_sweep_timer / us_internal_disable_sweep_timer's job.
func (l *Loop) enableSweep() { l.sweepRefcount.Inc() }

func (l *Loop) disableSweepIfIdle() {
	if l.sweepRefcount.Load() > 0 {
		l.sweepRefcount.Dec()
	}
}

// sweep fires once per post-iteration hook, advancing the short wheel by
// one tick and, every longTickMultiplier short ticks, the long wheel by
// one tick too.
func (l *Loop) sweep() {
	if l.sweepRefcount.Load() == 0 {
		return
	}
	tick := l.lastSweepTick
	l.lastSweepTick++

	shortBucket := int(tick) % shortTickWheelSize
	fireTimeouts(l.shortWheel[shortBucket], byte(shortBucket), false)
	l.shortWheel[shortBucket] = nil

	if tick%longTickMultiplier == 0 {
		longBucket := int(tick/longTickMultiplier) % shortTickWheelSize
		fireTimeouts(l.longWheel[longBucket], byte(longBucket), true)
		l.longWheel[longBucket] = nil
	}
}

// fireTimeouts walks a bucket snapshot taken at the top of sweep(). A
// callback firing earlier in this same walk may have disarmed a sibling
// sharing the bucket; removeSocketFromSlice mutates the wheel's backing
// array in place, which a plain range over the pre-captured list slice
// would not observe, re-firing an already-disarmed socket. Re-checking
// s.shortTimeout/s.longTimeout against the bucket just swept — not trusting
// bucket-list membership captured before the walk began — mirrors the
// original core's per-socket field comparison and makes disarm-in-callback
// and double-fire impossible.
func fireTimeouts(list []*Socket, bucket byte, long bool) {
	for _, s := range list {
		if s.closed {
			continue
		}
		if long {
			if s.longTimeout != bucket {
				continue
			}
			s.longTimeout = disarmedTimeout
			s.loop.disableSweepIfIdle()
			if cb := s.ctx.callbacks.OnLongTimeout; cb != nil {
				cb(s)
			}
		} else {
			if s.shortTimeout != bucket {
				continue
			}
			s.shortTimeout = disarmedTimeout
			s.loop.disableSweepIfIdle()
			if cb := s.ctx.callbacks.OnTimeout; cb != nil {
				cb(s)
			}
		}
	}
}

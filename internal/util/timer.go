package util

import "time"

// Timer measures the wall time of one operation.
type Timer struct {
	start time.Time
	now   func() time.Time
}

// StartTimer starts a timer on the system clock.
func StartTimer() Timer {
	return StartTimerWith(time.Now)
}

// StartTimerWith starts a timer on the supplied clock.
func StartTimerWith(now func() time.Time) Timer {
	return Timer{start: now(), now: now}
}

// Elapsed returns the time since start, or zero for an unstarted timer.
func (t Timer) Elapsed() time.Duration {
	if t.start.IsZero() || t.now == nil {
		return 0
	}
	return t.now().Sub(t.start)
}

// ElapsedMs returns the elapsed milliseconds since start.
func (t Timer) ElapsedMs() int64 {
	return t.Elapsed().Milliseconds()
}

package harness

import "time"

// safetyMargin is subtracted from the deadline so the timeout result
// can be produced and reported before the platform hard-kills the
// process.
const safetyMargin = 100 * time.Millisecond

// wakeDelay computes how long the deadline watcher sleeps before
// declaring a timeout. The duration is derived once from a wall clock
// sample; the timer armed with it runs on the monotonic clock, so
// wall-clock drift cannot move it. Deadlines already in the past wake
// immediately, never underflow.
func wakeDelay(deadlineMS int64, now time.Time) time.Duration {
	d := time.UnixMilli(deadlineMS).Sub(now) - safetyMargin
	if d < 0 {
		return 0
	}
	return d
}

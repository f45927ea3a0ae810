// Package harness runs short-lived, stateless compute functions and
// races each invocation against an externally imposed absolute
// deadline. The outer event loop stays external; callers hand the
// harness one event at a time together with the deadline the platform
// gave them.
package harness

import "context"

// Invocation carries the per-call facts the platform knows and the
// runner may want. It is immutable for the duration of the call.
type Invocation struct {
	// Region the invocation executes in
	Region string
	// DeadlineMS is the absolute deadline in epoch milliseconds.
	// Zero means no deadline (local replay mode).
	DeadlineMS int64
}

// Runner is the user-side contract. S is the shared state living
// across warm invocations, E the event type, R the return type.
//
// Setup runs once per process before the first invocation. Run
// executes one invocation; the context is cancelled when the deadline
// watcher wins, so long-running work should select on ctx.Done().
// The harness guarantees at most one logical invocation in flight per
// harness instance; runners that spawn their own concurrency guard
// shared state themselves.
type Runner[S, E, R any] interface {
	Setup(ctx context.Context) error
	Run(ctx context.Context, shared *S, event E, inv *Invocation) (R, error)
}

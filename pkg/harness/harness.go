package harness

import (
	"context"
	"os"
	"time"

	"github.com/systmms/rotatefn/internal/errors"
	"github.com/systmms/rotatefn/internal/logging"
	"github.com/systmms/rotatefn/internal/metrics"
)

// Harness owns a runner, its shared state and the invocation race.
// The shared state is constructed once at New and never reconstructed
// mid-invocation; warm starts see whatever previous invocations left
// in it.
type Harness[S, E, R any] struct {
	runner  Runner[S, E, R]
	shared  *S
	region  string
	logger  *logging.Logger
	metrics *metrics.InvocationMetrics
}

type options struct {
	logger *logging.Logger
}

// Option configures a Harness.
type Option func(*options)

// WithLogger sets the logger used for invocation lifecycle entries.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds a harness for the given runner and calls its Setup once.
// An empty region falls back to AWS_REGION; having neither is a
// configuration error.
func New[S, E, R any](ctx context.Context, runner Runner[S, E, R], region string, opts ...Option) (*Harness[S, E, R], error) {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		return nil, &errors.ConfigError{
			Field:      "region",
			Message:    "no region configured",
			Suggestion: "set AWS_REGION or pass a region explicitly",
		}
	}

	o := &options{logger: logging.New(false, false)}
	for _, opt := range opts {
		opt(o)
	}

	h := &Harness[S, E, R]{
		runner:  runner,
		shared:  new(S),
		region:  region,
		logger:  o.logger,
		metrics: metrics.NewInvocationMetrics(),
	}

	if err := runner.Setup(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// Shared exposes the harness-owned shared state, mainly for tests and
// composition-time initialization before the first invocation.
func (h *Harness[S, E, R]) Shared() *S {
	return h.shared
}

// Region returns the region the harness was configured with.
func (h *Harness[S, E, R]) Region() string {
	return h.region
}

// Invoke runs one invocation. deadlineMS is the absolute deadline in
// epoch milliseconds; zero means no deadline and Invoke simply awaits
// the runner.
func (h *Harness[S, E, R]) Invoke(ctx context.Context, event E, deadlineMS int64) (R, error) {
	return h.invoke(ctx, event, deadlineMS, h.region)
}

type outcome[R any] struct {
	ret R
	err error
}

func (h *Harness[S, E, R]) invoke(ctx context.Context, event E, deadlineMS int64, region string) (R, error) {
	var zero R

	h.logger.Debug("Invocation started with event: %+v", event)
	h.metrics.RecordInvocationStarted()
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	inv := &Invocation{Region: region, DeadlineMS: deadlineMS}

	// Buffered so the loser of the race can finish its send and exit
	// instead of leaking.
	done := make(chan outcome[R], 1)
	go func() {
		ret, err := h.runner.Run(runCtx, h.shared, event, inv)
		done <- outcome[R]{ret: ret, err: err}
	}()

	// A nil channel never fires, which is exactly the no-deadline case.
	var wake <-chan time.Time
	if deadlineMS > 0 {
		timer := time.NewTimer(wakeDelay(deadlineMS, time.Now()))
		defer timer.Stop()
		wake = timer.C
	}

	select {
	case out := <-done:
		if out.err != nil {
			h.logger.Error("Invocation failed: %v", out.err)
			h.metrics.RecordInvocationCompleted("error", time.Since(start).Seconds())
			return zero, out.err
		}
		h.logger.Debug("Invocation finished with result: %+v", out.ret)
		h.metrics.RecordInvocationCompleted("success", time.Since(start).Seconds())
		return out.ret, nil

	case <-wake:
		// The runner is abandoned, not awaited. Cancelling its context
		// is a cooperative courtesy; any store call it already started
		// may still complete.
		cancel()
		err := &errors.TimeoutError{Deadline: time.UnixMilli(deadlineMS).UTC()}
		h.logger.Error("%v", err)
		h.metrics.RecordInvocationCompleted("timeout", time.Since(start).Seconds())
		return zero, err
	}
}

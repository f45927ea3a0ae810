package rotate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/systmms/rotatefn/internal/logging"
	"github.com/systmms/rotatefn/internal/metrics"
	"github.com/systmms/rotatefn/internal/secretstore"
	"github.com/systmms/rotatefn/pkg/harness"
)

// Adapter turns a RotateRunner into a harness Runner by dispatching on
// the event's step. It holds no rotation state of its own; every
// invocation re-reads whatever the store says, which is what makes
// re-invocation at any step safe.
type Adapter[S, Sec any] struct {
	runner  RotateRunner[S, Sec]
	store   secretstore.Gateway
	logger  *logging.Logger
	metrics *metrics.InvocationMetrics
}

type adapterOptions struct {
	logger *logging.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*adapterOptions)

// WithLogger sets the logger used for step entries.
func WithLogger(logger *logging.Logger) AdapterOption {
	return func(o *adapterOptions) {
		o.logger = logger
	}
}

// NewAdapter wires a rotation runner to a secret store gateway.
func NewAdapter[S, Sec any](runner RotateRunner[S, Sec], store secretstore.Gateway, opts ...AdapterOption) *Adapter[S, Sec] {
	o := &adapterOptions{logger: logging.New(false, false)}
	for _, opt := range opts {
		opt(o)
	}
	return &Adapter[S, Sec]{
		runner:  runner,
		store:   store,
		logger:  o.logger,
		metrics: metrics.NewInvocationMetrics(),
	}
}

// Setup defers to the runner.
func (a *Adapter[S, Sec]) Setup(ctx context.Context) error {
	return a.runner.Setup(ctx)
}

// Run executes one rotation step. Store operations are strictly
// sequential; transient retry lives in the gateway, never here, and
// all failures propagate unmodified.
func (a *Adapter[S, Sec]) Run(ctx context.Context, shared *S, event Event, inv *harness.Invocation) (Ack, error) {
	a.logger.Debug("Rotation step %s for secret %s", event.Step, event.SecretID)

	var err error
	switch event.Step {
	case StepCreate:
		err = a.create(ctx, shared, event, inv.Region)
	case StepSet:
		err = a.set(ctx, shared, event, inv.Region)
	case StepTest:
		err = a.test(ctx, shared, event, inv.Region)
	case StepFinish:
		err = a.finish(ctx, shared, event, inv.Region)
	default:
		err = fmt.Errorf("unknown rotation step %q", event.Step)
	}

	if err != nil {
		a.metrics.RecordRotationStep(event.Step.String(), "error")
		return Ack{}, err
	}
	a.metrics.RecordRotationStep(event.Step.String(), "success")
	return Ack{}, nil
}

// create writes a new pending version unless a usable one already
// exists. A pending label still sitting on the current version means
// an earlier attempt never produced a distinct version; that label is
// stale and a fresh value is created over it.
func (a *Adapter[S, Sec]) create(ctx context.Context, shared *S, event Event, region string) error {
	current, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StageCurrent)
	if err != nil {
		return err
	}

	pending, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StagePending)
	if err == nil && pending.VersionID != current.VersionID {
		a.logger.Info("Found existing pending value")
		return nil
	}

	a.logger.Debug("Creating new secret value")
	next, err := a.runner.Create(ctx, shared, current.Container, a.store, region)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("cannot serialize new secret value: %w", err)
	}
	return a.store.WritePending(ctx, event.SecretID, event.ClientRequestToken, string(payload))
}

// set applies the pending credential to the remote system. The probe
// runs first: if the pending credential already works, a previous
// attempt applied it and the mutation is skipped.
func (a *Adapter[S, Sec]) set(ctx context.Context, shared *S, event Event, region string) error {
	pending, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StagePending)
	if err != nil {
		return err
	}

	if err := a.runner.Test(ctx, shared, pending.Container, region); err == nil {
		a.logger.Info("Password already set in remote system")
		return nil
	}

	current, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StageCurrent)
	if err != nil {
		return err
	}
	return a.runner.Set(ctx, shared, current.Container, pending.Container, region)
}

func (a *Adapter[S, Sec]) test(ctx context.Context, shared *S, event Event, region string) error {
	pending, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StagePending)
	if err != nil {
		return err
	}
	return a.runner.Test(ctx, shared, pending.Container, region)
}

// finish promotes pending to current. The optional Finisher hook runs
// before the promotion, so its failure leaves the labels untouched.
func (a *Adapter[S, Sec]) finish(ctx context.Context, shared *S, event Event, region string) error {
	current, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StageCurrent)
	if err != nil {
		return err
	}
	pending, err := fetchStage[Sec](ctx, a.store, event.SecretID, secretstore.StagePending)
	if err != nil {
		return err
	}

	if finisher, ok := a.runner.(Finisher[S, Sec]); ok {
		if err := finisher.Finish(ctx, shared, current.Container, pending.Container, region); err != nil {
			return err
		}
	}

	a.logger.Debug("Promoting pending secret version %s", pending.VersionID)
	return a.store.Promote(ctx, pending.ARN, current.VersionID, pending.VersionID)
}

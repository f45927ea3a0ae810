package rotate

import (
	"context"

	"github.com/systmms/rotatefn/internal/secretstore"
)

// RotateRunner is the user-side rotation contract. S is the warm
// shared state, Sec the typed part of the secret payload.
//
// Create receives the current secret and returns the next one; the
// store is passed along so implementations can ask it to generate
// credential material. Set applies the pending credential to the
// remote system. Test probes whether the pending credential works;
// its failure is terminal for the rotation attempt.
type RotateRunner[S, Sec any] interface {
	Setup(ctx context.Context) error
	Create(ctx context.Context, shared *S, current Container[Sec], store secretstore.Gateway, region string) (Container[Sec], error)
	Set(ctx context.Context, shared *S, current, pending Container[Sec], region string) error
	Test(ctx context.Context, shared *S, pending Container[Sec], region string) error
}

// Finisher is the optional fourth hook. Runners that need work before
// the pending version is promoted (cleanup, notification of dependent
// systems) implement it; everyone else gets a no-op finish.
type Finisher[S, Sec any] interface {
	Finish(ctx context.Context, shared *S, current, pending Container[Sec], region string) error
}

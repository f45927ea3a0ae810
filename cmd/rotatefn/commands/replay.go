package commands

import (
	"context"
	"reflect"
	"sync"

	"github.com/spf13/cobra"
	"github.com/systmms/rotatefn/pkg/harness"
)

// echoState remembers the previous event across warm invocations.
type echoState struct {
	mu   sync.Mutex
	prev map[string]any
}

// echoResult is what the built-in replay runner returns per event.
type echoResult struct {
	Event       map[string]any `json:"event"`
	MatchesPrev bool           `json:"matches_prev"`
}

// echoRunner is the built-in runner behind `rotatefn replay`. It
// exercises warm shared state without touching any remote system.
type echoRunner struct{}

func (r *echoRunner) Setup(ctx context.Context) error { return nil }

func (r *echoRunner) Run(ctx context.Context, shared *echoState, event map[string]any, inv *harness.Invocation) (echoResult, error) {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	matches := shared.prev != nil && reflect.DeepEqual(shared.prev, event)
	shared.prev = event
	return echoResult{Event: event, MatchesPrev: matches}, nil
}

func NewReplayCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <document>",
		Short: "Replay a test document through the invocation path",
		Long: `Drive each event of the document through the same invocation path a
deployed function uses, sequentially and with no deadline. Events are
handled by a built-in echo runner that reports whether each event
matches the previous one, which exercises warm shared state across
invocations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := harness.LoadTestDocumentFile[map[string]any](args[0])
			if err != nil {
				return err
			}

			h, err := harness.New[echoState, map[string]any, echoResult](
				cmd.Context(), &echoRunner{}, doc.Region, harness.WithLogger(opts.Logger))
			if err != nil {
				return err
			}

			results, err := h.Replay(cmd.Context(), doc)
			for i, result := range results {
				opts.Logger.Info("Invocation %d: matches_prev=%t", i, result.MatchesPrev)
			}
			if err != nil {
				return err
			}

			opts.Logger.Info("Replayed %d invocation(s) in region %s", len(results), doc.Region)
			return nil
		},
	}

	return cmd
}

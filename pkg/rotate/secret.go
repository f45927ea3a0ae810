package rotate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/systmms/rotatefn/internal/errors"
	"github.com/systmms/rotatefn/internal/secretstore"
)

// Secret is a staged secret version with its payload parsed into a
// container. Only staged fetches produce it.
type Secret[Sec any] struct {
	ARN       string
	VersionID string
	Container Container[Sec]
}

// fetchStage reads and parses the version carrying the given stage
// label. A payload that does not parse is reported with the same
// context as a store failure.
func fetchStage[Sec any](ctx context.Context, store secretstore.Gateway, secretID, stage string) (*Secret[Sec], error) {
	rec, err := store.Fetch(ctx, secretID, stage)
	if err != nil {
		return nil, err
	}

	var c Container[Sec]
	if err := json.Unmarshal(rec.Payload, &c); err != nil {
		return nil, &errors.StoreError{
			Op:       fmt.Sprintf("parse %s value", stage),
			SecretID: secretID,
			Err:      err,
		}
	}

	return &Secret[Sec]{
		ARN:       rec.ARN,
		VersionID: rec.VersionID,
		Container: c,
	}, nil
}

// Package secretstore provides typed operations over a key-versioned
// remote secret store. Rotation moves a secret version between the two
// well-known stage labels; a version is relabeled, never copied.
package secretstore

import "context"

// Stage labels used by the rotation protocol.
const (
	StageCurrent = "AWSCURRENT"
	StagePending = "AWSPENDING"
)

// Record is the raw result of a staged fetch. It is produced only by
// Gateway reads, never hand-constructed.
type Record struct {
	// ARN of the secret
	ARN string
	// VersionID is the opaque version token assigned by the store
	VersionID string
	// Payload is the serialized secret value
	Payload []byte
}

// Gateway defines the typed secret store operations used by the
// rotation orchestrator. Exactly one concrete implementation is linked
// at composition time.
type Gateway interface {
	// Fetch returns the record for the version currently carrying the
	// given stage label. It fails if the store has no such version, if
	// the response is missing its identifying metadata, or if neither a
	// string nor a binary payload is set.
	Fetch(ctx context.Context, secretID, stage string) (*Record, error)

	// GeneratePassword asks the store to synthesize random secret
	// material. The double-quote character is always excluded for
	// payload transport safety; punctuation is excluded on request.
	// A length of 0 uses the store default.
	GeneratePassword(ctx context.Context, excludePunctuation bool, length int64) (string, error)

	// WritePending writes a new version labeled pending. The request
	// token lets the store deduplicate repeated writes for the same
	// rotation attempt.
	WritePending(ctx context.Context, secretID, requestToken, payload string) error

	// Promote atomically moves the current label from the old version
	// to the pending version of the given secret.
	Promote(ctx context.Context, arn, currentVersionID, pendingVersionID string) error
}
